package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-lawyer-be/pkg/llm"
	"ai-lawyer-be/pkg/retrieval"

	"github.com/google/jsonschema-go/jsonschema"
)

// Result is what a tool hands back. Content is fed to the model as the
// tool message; Documents carries any retrieved items so the loop can
// surface them to the caller without re-parsing Content.
type Result struct {
	Content   string
	Documents []retrieval.RankedResult
}

// Handler executes one tool call. Arguments arrive schema-validated.
type Handler func(ctx context.Context, args json.RawMessage) (*Result, error)

type registeredTool struct {
	name        string
	description string
	schema      *jsonschema.Schema
	resolved    *jsonschema.Resolved
	handler     Handler
}

// Registry holds the tools an agent may call. Registration happens at
// container build time; lookups at run time need no locking.
type Registry struct {
	tools map[string]*registeredTool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*registeredTool)}
}

// Register adds a tool under a unique name. The parameter schema is
// resolved eagerly so a broken schema fails at startup, not mid-run.
func (r *Registry) Register(name string, description string, schema *jsonschema.Schema, handler Handler) error {
	if name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	if handler == nil {
		return fmt.Errorf("tool %s has no handler", name)
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("tool %s has an invalid parameter schema: %w", name, err)
	}

	r.tools[name] = &registeredTool{
		name:        name,
		description: description,
		schema:      schema,
		resolved:    resolved,
		handler:     handler,
	}
	r.order = append(r.order, name)
	return nil
}

// Specs returns the registered tools as provider-neutral tool specs,
// in registration order.
func (r *Registry) Specs() ([]llm.ToolSpec, error) {
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]

		raw, err := json.Marshal(tool.schema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema for tool %s: %w", name, err)
		}
		var params map[string]interface{}
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("unmarshal schema for tool %s: %w", name, err)
		}

		specs = append(specs, llm.ToolSpec{
			Name:        tool.name,
			Description: tool.description,
			Parameters:  params,
		})
	}
	return specs, nil
}

// Invoke validates the arguments against the tool's schema and runs
// the handler. Unknown tools and schema violations come back as typed
// errors so the loop can report them to the model as failed calls.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (*Result, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}

	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	var instance interface{}
	if err := json.Unmarshal(args, &instance); err != nil {
		return nil, &InvalidToolArgumentsError{Name: name, Err: err}
	}
	if err := tool.resolved.Validate(instance); err != nil {
		return nil, &InvalidToolArgumentsError{Name: name, Err: err}
	}

	return tool.handler(ctx, args)
}
