package drafts

import (
	"encoding/csv"
	"os"
)

var csvHeader = []string{"fecha", "titulo", "imagen", "descripcion", "image_path", "status"}

func writeCSV(path string, records []Draft) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{r.Date, r.Title, r.ImageDescription, r.Body, r.ImagePath, r.Status}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
