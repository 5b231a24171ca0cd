package generator

import (
	"context"
	"sync"
)

const defaultMockResponse = "```json\n" +
	`{"posts": [{"fecha": "2025-01-05", "titulo": "Título de ejemplo generado", "imagen": "Un parque verde con gente caminando al atardecer", "descripcion": "Contenido de ejemplo generado localmente para pruebas sin modelo. #Comunidad"}]}` +
	"\n```"

// MockLLM is a placeholder implementation for local runs and tests; it never
// calls an external model. With no scripted Responses it returns one canned
// valid batch; otherwise it replays Responses in order, repeating the last
// one once exhausted.
type MockLLM struct {
	Responses []string

	mu    sync.Mutex
	calls int
}

func (m *MockLLM) Complete(_ context.Context, _ Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Responses) == 0 {
		m.calls++
		return defaultMockResponse, nil
	}
	idx := m.calls
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	m.calls++
	return m.Responses[idx], nil
}

// Calls reports how many completions were requested.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
