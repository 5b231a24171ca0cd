package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Noticia Ambiental", "noticia-ambiental"},
		{"  ¡Día del Árbol!  ", "día-del-árbol"},
		{"---", "post"},
		{"Título: con / símbolos", "título-con-símbolos"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, slugify(tt.in))
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "2025-01-05_noticia-ambiental.png", FileName("2025-01-05", "Noticia Ambiental"))
}

func TestPromptFor(t *testing.T) {
	g, err := New(Settings{APIKey: "test-key", Dir: t.TempDir(), StylePrefix: "Estilo de la marca."}, nil)
	require.NoError(t, err)

	p := g.PromptFor("  Un parque verde con gente caminando  ")
	assert.Equal(t, "Estilo de la marca.\n\nUn parque verde con gente caminando", p)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Settings{Dir: t.TempDir()}, nil)
	assert.Error(t, err, "missing api key")

	_, err = New(Settings{APIKey: "k"}, nil)
	assert.Error(t, err, "missing dir")
}
