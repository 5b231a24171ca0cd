package drafts

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social_post_generator/responseparser"
)

func testBatch() *responseparser.Batch {
	return &responseparser.Batch{
		Posts: []responseparser.Post{
			{
				Date:             "2025-01-05",
				Title:            "Noticia Ambiental",
				ImageDescription: "Un parque verde con gente caminando",
				Body:             "Hoy celebramos el Día del Árbol con estas reflexiones #MedioAmbiente",
			},
			{
				Date:             "2025-01-05",
				Title:            "Segunda Noticia",
				ImageDescription: "Una huerta comunitaria al amanecer",
				Body:             "Las huertas comunitarias transforman los barrios #Comunidad",
			},
		},
		Meta: responseparser.Meta{TotalSeen: 2, Accepted: 2, ParseAttempts: 1},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	path, err := s.SaveBatch(testBatch(), "")
	require.NoError(t, err)
	assert.FileExists(t, path)

	records, err := s.LoadDrafts("2025-01-05")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Noticia Ambiental", records[0].Title)
	assert.Equal(t, StatusDraft, records[0].Status)
	assert.Empty(t, records[0].ImagePath)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestStore_SaveBatchRejectsEmpty(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveBatch(&responseparser.Batch{}, "")
	assert.Error(t, err)
}

func TestStore_UpdateImagePath(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SaveBatch(testBatch(), "")
	require.NoError(t, err)

	require.NoError(t, s.UpdateImagePath("2025-01-05", 1, "imagenes/2025-01-05_segunda-noticia.png"))

	records, err := s.LoadDrafts("2025-01-05")
	require.NoError(t, err)
	assert.Empty(t, records[0].ImagePath, "untouched record must stay untouched")
	assert.Equal(t, "imagenes/2025-01-05_segunda-noticia.png", records[1].ImagePath)

	assert.Error(t, s.UpdateImagePath("2025-01-05", 7, "x.png"), "index out of range")
}

func TestStore_MarkPublished(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SaveBatch(testBatch(), "")
	require.NoError(t, err)

	require.NoError(t, s.MarkPublished("2025-01-05", 0))

	records, err := s.LoadDrafts("2025-01-05")
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, records[0].Status)
	assert.Equal(t, StatusDraft, records[1].Status)
}

func TestStore_ListDatesAndPastTitles(t *testing.T) {
	s := newTestStore(t)

	older := testBatch()
	for i := range older.Posts {
		older.Posts[i].Date = "2024-12-01"
	}
	_, err := s.SaveBatch(older, "")
	require.NoError(t, err)
	_, err = s.SaveBatch(testBatch(), "")
	require.NoError(t, err)

	dates, err := s.ListDates()
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-05", "2024-12-01"}, dates)

	titles, err := s.PastTitles(3)
	require.NoError(t, err)
	require.Len(t, titles, 3)
	assert.Equal(t, "Noticia Ambiental", titles[0], "newest drafts come first")
}

func TestStore_ExportCSV(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SaveBatch(testBatch(), "")
	require.NoError(t, err)

	path, err := s.ExportCSV("2025-01-05")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "Noticia Ambiental", rows[1][1])
	assert.Equal(t, StatusDraft, rows[1][5])
}

func TestStore_CleanupOlderThan(t *testing.T) {
	s := newTestStore(t)

	old := testBatch()
	oldDate := time.Now().AddDate(0, -6, 0).Format("2006-01-02")
	for i := range old.Posts {
		old.Posts[i].Date = oldDate
	}
	_, err := s.SaveBatch(old, "")
	require.NoError(t, err)

	fresh := testBatch()
	freshDate := time.Now().Format("2006-01-02")
	for i := range fresh.Posts {
		fresh.Posts[i].Date = freshDate
	}
	_, err = s.SaveBatch(fresh, "")
	require.NoError(t, err)

	removed, err := s.CleanupOlderThan(4)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	dates, err := s.ListDates()
	require.NoError(t, err)
	assert.Equal(t, []string{freshDate}, dates)
}

func TestStore_Settings(t *testing.T) {
	s := newTestStore(t)

	settings, err := s.Settings()
	require.NoError(t, err)
	assert.Equal(t, 3, settings.PostsPerDay)
	assert.Equal(t, 4, settings.CleanupMonths)

	settings.PostsPerDay = 5
	require.NoError(t, s.SaveSettings(settings))

	reloaded, err := s.Settings()
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.PostsPerDay)

	// partial settings files keep defaults for missing keys
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, settingsFile), []byte(`{"posts_per_day": 7}`), 0o644))
	partial, err := s.Settings()
	require.NoError(t, err)
	assert.Equal(t, 7, partial.PostsPerDay)
	assert.Equal(t, 4, partial.CleanupMonths)
}
