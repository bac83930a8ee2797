package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"justification":"ok"}`, `{"justification":"ok"}`},
		{"fenced", "```json\n{\"justification\":\"ok\"}\n```", `{"justification":"ok"}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"thinking", "<think>maybe {not this}</think>\n{\"a\":1}", `{"a":1}`},
		{"preamble", "Sure! Here it is: {\"a\":{\"b\":2}} hope that helps {\"c\":3}", `{"a":{"b":2}}`},
		{"braces in strings", `{"justification":"uses } and { freely \"quoted\""}`, `{"justification":"uses } and { freely \"quoted\""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONFailures(t *testing.T) {
	for _, raw := range []string{"", "   ", "no json here", `{"unterminated": true`} {
		_, err := ExtractJSON(raw)
		assert.ErrorIs(t, err, ErrNoJSONObject, raw)
	}
}
