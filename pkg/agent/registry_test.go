package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func querySchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string"},
		},
		Required: []string{"query"},
	}
}

func TestRegisterAndInvoke(t *testing.T) {
	registry := NewRegistry()

	err := registry.Register("search_documents", "Search indexed documents.", querySchema(),
		func(ctx context.Context, args json.RawMessage) (*Result, error) {
			var parsed struct {
				Query string `json:"query"`
			}
			require.NoError(t, json.Unmarshal(args, &parsed))
			return &Result{Content: "found: " + parsed.Query}, nil
		})
	require.NoError(t, err)

	res, err := registry.Invoke(context.Background(), "search_documents", json.RawMessage(`{"query": "bail"}`))
	require.NoError(t, err)
	assert.Equal(t, "found: bail", res.Content)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	handler := func(ctx context.Context, args json.RawMessage) (*Result, error) {
		return &Result{}, nil
	}

	require.NoError(t, registry.Register("t", "", querySchema(), handler))
	assert.Error(t, registry.Register("t", "", querySchema(), handler))
}

func TestInvokeUnknownTool(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Invoke(context.Background(), "nope", json.RawMessage(`{}`))

	var unknownErr *UnknownToolError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "nope", unknownErr.Name)
}

func TestInvokeRejectsSchemaViolations(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("search", "", querySchema(),
		func(ctx context.Context, args json.RawMessage) (*Result, error) {
			t.Fatal("handler must not run on invalid arguments")
			return nil, nil
		}))

	cases := []json.RawMessage{
		json.RawMessage(`{}`),                // missing required field
		json.RawMessage(`{"query": 42}`),     // wrong type
		json.RawMessage(`{"query": "ok", `),  // malformed JSON
	}

	for _, args := range cases {
		_, err := registry.Invoke(context.Background(), "search", args)

		var invalidErr *InvalidToolArgumentsError
		require.ErrorAs(t, err, &invalidErr, "args: %s", string(args))
		assert.Equal(t, "search", invalidErr.Name)
	}
}

func TestInvokeEmptyArgumentsDefaultToEmptyObject(t *testing.T) {
	registry := NewRegistry()
	schema := &jsonschema.Schema{Type: "object"}

	require.NoError(t, registry.Register("ping", "", schema,
		func(ctx context.Context, args json.RawMessage) (*Result, error) {
			return &Result{Content: "pong"}, nil
		}))

	res, err := registry.Invoke(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", res.Content)
}

func TestSpecsPreserveRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	handler := func(ctx context.Context, args json.RawMessage) (*Result, error) {
		return &Result{}, nil
	}

	require.NoError(t, registry.Register("b_tool", "second letter", querySchema(), handler))
	require.NoError(t, registry.Register("a_tool", "first letter", querySchema(), handler))

	specs, err := registry.Specs()
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "b_tool", specs[0].Name)
	assert.Equal(t, "a_tool", specs[1].Name)
	assert.Equal(t, "second letter", specs[0].Description)
	assert.Equal(t, "object", specs[0].Parameters["type"])
}

func TestHandlerErrorsPassThrough(t *testing.T) {
	registry := NewRegistry()
	sentinel := errors.New("upstream down")

	require.NoError(t, registry.Register("flaky", "", &jsonschema.Schema{Type: "object"},
		func(ctx context.Context, args json.RawMessage) (*Result, error) {
			return nil, sentinel
		}))

	_, err := registry.Invoke(context.Background(), "flaky", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, sentinel)
}
