package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject_PlainObject(t *testing.T) {
	obj, err := ExtractObject(`{"metrics": ["clicks"]}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"metrics": []any{"clicks"}}, obj)
}

func TestExtractObject_StripsSurroundingProse(t *testing.T) {
	raw := "Sure! Here is the structured request:\n```json\n" +
		`{"time_period": "last 15 days", "metrics": ["spend"]}` +
		"\n```\nLet me know if you need anything else."
	obj, err := ExtractObject(raw)
	require.NoError(t, err)
	assert.Equal(t, "last 15 days", obj["time_period"])
}

func TestExtractObject_FirstToLastBrace(t *testing.T) {
	// Nested objects survive because the slice runs to the last brace.
	obj, err := ExtractObject(`text {"outer": {"inner": 1}} trailing`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"inner": float64(1)}, obj["outer"])
}

func TestExtractObject_NoBraces(t *testing.T) {
	_, err := ExtractObject("blah blah no braces here")
	assert.Error(t, err)
}

func TestExtractObject_UnparseableSlice(t *testing.T) {
	_, err := ExtractObject(`{"metrics": [}`)
	assert.Error(t, err)
}

func TestExtractObject_ReversedBraces(t *testing.T) {
	_, err := ExtractObject("} nothing {")
	assert.Error(t, err)
}

func TestErrorObject(t *testing.T) {
	assert.Equal(t, map[string]any{"error": "could not structure response"}, ErrorObject())
}
