package responseparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate_StrategyPriority(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "labeled fence wins over earlier bare braces",
			raw:  "intro {\"decoy\": 1} text\n```json\n{\"a\": 1}\n```\n",
			want: "{\"a\": 1}",
		},
		{
			name: "labeled fence wins over earlier unlabeled fence",
			raw:  "```\n{\"plain\": 1}\n```\nluego\n```json\n{\"a\": 1}\n```\n",
			want: "{\"a\": 1}",
		},
		{
			name: "unlabeled fence",
			raw:  "resultado:\n```\n{\"a\": 1}\n```\n",
			want: "{\"a\": 1}",
		},
		{
			name: "custom json tags",
			raw:  "claro, aquí está <JSON>{\"a\": 1}</JSON> como pediste",
			want: "{\"a\": 1}",
		},
		{
			name: "json prefix",
			raw:  "JSON: {\"a\": 1} espero que sirva",
			want: "{\"a\": 1}",
		},
		{
			name: "bare brace window",
			raw:  "Here is the result: {\"fecha\": \"2025-02-30\", \"titulo\": \"x\"}",
			want: "{\"fecha\": \"2025-02-30\", \"titulo\": \"x\"}",
		},
		{
			name: "top level array",
			raw:  "los resultados son [1, 2, 3] nada más",
			want: "[1, 2, 3]",
		},
		{
			name: "fence with leading indent",
			raw:  " ```json\n{\"a\": 1}\n```",
			want: "{\"a\": 1}",
		},
		{
			name: "json prefix with array",
			raw:  "JSON: [{\"a\": 1}, {\"b\": 2}] espero que sirva",
			want: "[{\"a\": 1}, {\"b\": 2}]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := locate(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocate_ProseWrappedArrayOfObjects(t *testing.T) {
	// The brace window from the first { to the last } balances here too, but
	// it would strip the enclosing brackets; the array must come back whole.
	raw := "La lista completa:\n[{\"a\": 1},\n{\"b\": 2},\n{\"c\": 3}]\nnada más"
	got, ok := locate(raw)
	require.True(t, ok)
	assert.Equal(t, "[{\"a\": 1},\n{\"b\": 2},\n{\"c\": 3}]", got)
}

func TestLocate_UnbalancedBraceWindowFallsThrough(t *testing.T) {
	// { count != } count inside the first{...last} window, so strategy 5 must
	// reject it and the array strategy takes over.
	raw := "opts {\"a\": {\"b\": 1} tail [1, 2, 3]"
	got, ok := locate(raw)
	require.True(t, ok)
	assert.Equal(t, "[1, 2, 3]", got)
}

func TestLocate_NoCandidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "refusal prose", raw: "I cannot comply with this request."},
		{name: "empty", raw: ""},
		{name: "whitespace", raw: "   \n\t  "},
		{name: "unbalanced braces only", raw: "nota { sin cierre de objeto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := locate(tt.raw)
			assert.False(t, ok)
		})
	}
}
