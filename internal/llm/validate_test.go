package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	var out struct {
		Message string   `json:"message"`
		Sources []string `json:"sources"`
	}
	require.NoError(t, Decode(replySchema, []byte(`{"message":"hi","sources":["intro"]}`), &out))
	assert.Equal(t, "hi", out.Message)
	assert.Equal(t, []string{"intro"}, out.Sources)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `Sure! Here is the answer`},
		{"missing required", `{"sources":[]}`},
		{"wrong type", `{"message":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out map[string]any
			err := Decode(replySchema, []byte(tt.raw), &out)
			var inv *ErrInvalidResponse
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, tt.raw, string(inv.Content))
		})
	}
}

func TestBrokenSchemaIsInvalidRequest(t *testing.T) {
	broken := &Schema{Name: "broken-schema", Definition: map[string]any{"type": 12}}
	err := validateResponse(broken, []byte(`{}`))
	var bad *ErrInvalidRequest
	assert.ErrorAs(t, err, &bad)
}

func TestNilSchemaSkipsValidation(t *testing.T) {
	assert.NoError(t, validateResponse(nil, []byte("plain text")))
}
