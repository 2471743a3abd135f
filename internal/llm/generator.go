// Package llm is the boundary to the external text-generation service. The
// rest of the pipeline couples to it through the Generator interface and
// the JSON brace-extraction rule only; nothing else about the service's
// output is trusted.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Generator produces text for a prompt. Calls are synchronous and fallible.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MalformedResponse is the error marker value produced when a response
// carries no parseable JSON object.
const MalformedResponse = "could not structure response"

// ErrorObject returns the degraded output used when a response could not be
// structured.
func ErrorObject() map[string]any {
	return map[string]any{"error": MalformedResponse}
}

// ExtractObject locates the first '{' and the last '}' in raw, slices
// inclusively, and parses the slice as a JSON object. Missing braces or a
// parse failure return an error; callers degrade to ErrorObject rather
// than propagating it upward.
func ExtractObject(raw string) (map[string]any, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("parse response object: %w", err)
	}
	return out, nil
}
