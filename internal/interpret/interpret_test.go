package interpret

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/observability"
)

type fakeGenerator struct {
	response string
	err      error
	prompt   string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func TestInterpret_StructuredResponse(t *testing.T) {
	gen := &fakeGenerator{response: `Here you go: {"time_period": "last 15 days", "metrics": ["clicks"]} done`}
	i := New(gen, zap.NewNop(), observability.NewNoOpRegistry())

	obj, err := i.Interpret(context.Background(), "clicks for the last 15 days")
	require.NoError(t, err)
	assert.Equal(t, "last 15 days", obj["time_period"])
	assert.Contains(t, gen.prompt, "clicks for the last 15 days")
	assert.True(t, strings.Contains(gen.prompt, `"advertising_platform"`))
}

func TestInterpret_MalformedResponseDegrades(t *testing.T) {
	gen := &fakeGenerator{response: "I could not understand the request, sorry."}
	i := New(gen, zap.NewNop(), observability.NewNoOpRegistry())

	obj, err := i.Interpret(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"error": "could not structure response"}, obj)
}

func TestInterpret_TransportErrorPropagates(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection reset")}
	i := New(gen, zap.NewNop(), observability.NewNoOpRegistry())

	_, err := i.Interpret(context.Background(), "anything")
	assert.Error(t, err)
}
