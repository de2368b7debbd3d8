package tools

import (
	"fmt"

	"github.com/teemow/mailtriage/internal/llm"
)

// Registry holds tools in registration order.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds t, replacing any tool with the same name in place.
func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) Len() int {
	return len(r.order)
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// ReadOnly returns a registry without the tools that change external state.
func (r *Registry) ReadOnly() *Registry {
	out := NewRegistry()
	for _, t := range r.Tools() {
		if t.ReadOnly() {
			out.Register(t)
		}
	}
	return out
}

// Subset returns a registry with the named tools, in the given order.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	out := NewRegistry()
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", name)
		}
		out.Register(t)
	}
	return out, nil
}

// ToolDefs returns the definitions sent to the model.
func (r *Registry) ToolDefs() []llm.ToolDef {
	out := make([]llm.ToolDef, 0, len(r.order))
	for _, t := range r.Tools() {
		out = append(out, llm.ToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  Schema(t.Params()),
		})
	}
	return out
}
