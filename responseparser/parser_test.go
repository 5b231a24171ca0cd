package responseparser

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = 0
	return cfg
}

func TestParse_FencedResponse(t *testing.T) {
	p := New(testConfig(), nil)

	raw := " ```json\n{\"posts\": [{\"fecha\": \"2025-01-05\", \"titulo\": \"Noticia Ambiental\", \"imagen\": \"Un parque verde con gente caminando\", \"descripcion\": \"Hoy celebramos el Día del Árbol con estas reflexiones #MedioAmbiente\"}]}\n``` "

	batch, err := p.Parse(raw, 0)
	require.NoError(t, err)
	require.Len(t, batch.Posts, 1)

	post := batch.Posts[0]
	assert.Equal(t, "2025-01-05", post.Date)
	assert.Equal(t, "Noticia Ambiental", post.Title)
	assert.Equal(t, "Un parque verde con gente caminando", post.ImageDescription)
	assert.Equal(t, "Hoy celebramos el Día del Árbol con estas reflexiones #MedioAmbiente", post.Body)
	assert.Equal(t, 1, batch.Meta.ParseAttempts)
}

func TestParse_RoundTripVerbatim(t *testing.T) {
	p := New(testConfig(), nil)

	raw := `{"posts":[{"fecha":"2025-03-01","titulo":"Valid Title Here","imagen":"A sufficiently long image description.","descripcion":"A sufficiently long body text with enough characters."}]}`

	batch, err := p.Parse(raw, 1)
	require.NoError(t, err)
	require.Len(t, batch.Posts, 1)

	post := batch.Posts[0]
	assert.Equal(t, "2025-03-01", post.Date)
	assert.Equal(t, "Valid Title Here", post.Title)
	assert.Equal(t, "A sufficiently long image description.", post.ImageDescription)
	assert.Equal(t, "A sufficiently long body text with enough characters.", post.Body)
}

func TestParse_InvalidDateRejectsOnlyRecord(t *testing.T) {
	p := New(testConfig(), nil)

	raw := `Here is the result: {"fecha": "2025-02-30", "titulo": "Título válido aquí", "imagen": "Una imagen descrita con suficiente detalle", "descripcion": "Un cuerpo de texto suficientemente largo para validar."}`

	_, err := p.Parse(raw, 0)
	var nvp *NoValidPostsError
	require.ErrorAs(t, err, &nvp)
	require.Len(t, nvp.Rejections, 1)
	assert.Equal(t, "fecha", nvp.Rejections[0].Field)
}

func TestParse_NoJSONFound(t *testing.T) {
	p := New(testConfig(), nil)

	_, err := p.Parse("I cannot comply with this request.", 0)
	assert.ErrorIs(t, err, ErrNoJSONFound)
}

func TestParse_RetryExhaustion(t *testing.T) {
	p := New(testConfig(), nil)

	// Balanced brace counts get it past the locator, but the document can
	// never parse and the quote repair has nothing to fix.
	raw := `{"a": [1, 2}`

	start := time.Now()
	_, err := p.Parse(raw, 0)
	elapsed := time.Since(start)

	var up *UnparseableError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, 3, up.Attempts)
	assert.Error(t, up.LastErr)
	assert.NotEmpty(t, up.Candidate)
	assert.Less(t, elapsed, time.Second, "zero retry delay must not sleep")
}

func TestParse_QuoteRepairSucceedsOnSecondAttempt(t *testing.T) {
	p := New(testConfig(), nil)

	raw := "{\n\"fecha\": \"2025-03-01\",\n\"titulo\": \"Título válido aquí\",\n\"imagen\": \"Una plaza llena de gente celebrando\",\n\"descripcion\": \"Una \"gran\" descripción suficientemente larga del evento.\"\n}"

	batch, err := p.Parse(raw, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Meta.ParseAttempts)
	require.Len(t, batch.Posts, 1)
	assert.Contains(t, batch.Posts[0].Body, `"gran"`)
}

func TestParse_ExpectedCountIsAdvisoryOnly(t *testing.T) {
	p := New(testConfig(), nil)

	raw := `{"posts":[{"fecha":"2025-03-01","titulo":"Valid Title Here","imagen":"A sufficiently long image description.","descripcion":"A sufficiently long body text with enough characters."}]}`

	batch, err := p.Parse(raw, 5)
	require.NoError(t, err, "count mismatch must never reject a valid batch")
	assert.Equal(t, 1, batch.Meta.Accepted)
}

func TestParse_TwelvePostsTruncatedToMax(t *testing.T) {
	p := New(testConfig(), nil)

	var items []string
	for i := 1; i <= 12; i++ {
		items = append(items, fmt.Sprintf(`{"fecha": "2025-04-%02d", "titulo": "Título válido número %d", "imagen": "Una imagen descrita con suficiente detalle", "descripcion": "Un cuerpo de texto suficientemente largo para validar."}`, i, i))
	}
	raw := "La lista completa:\n[" + strings.Join(items, ",\n") + "]"

	batch, err := p.Parse(raw, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, batch.Meta.Accepted)
	assert.Equal(t, 12, batch.Meta.TotalSeen)
}

func TestTruncateForLog(t *testing.T) {
	long := strings.Repeat("x", candidateLogLimit+100)
	got := truncateForLog(long, candidateLogLimit)
	assert.Contains(t, got, "(100 characters omitted)")
	assert.True(t, strings.HasPrefix(got, strings.Repeat("x", candidateLogLimit)))

	short := "{\"a\":1}"
	assert.Equal(t, short, truncateForLog(short, candidateLogLimit))
}
