// Package spytools implements Cheeko's surveillance tools: read-only
// peeks into the user's Gmail, Google Calendar and GitHub activity,
// exposed to the realtime model as callable functions.
package spytools

import (
	"context"
	"fmt"
	"log"

	"github.com/altio-ai/cheeko/pkg/llm"
)

// Tool defines the tool interface
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) string
}

// Registry holds registered tools
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register a tool
func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
	log.Printf("[SpyTools] tool registered: %s", t.Name())
}

// Get returns a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List all tools in registration order
func (r *Registry) List() []string {
	return append([]string(nil), r.order...)
}

// CallTool runs a tool and returns its conversational text. Unknown
// tool names produce an in-character line rather than an error, so the
// session never sees a failure.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]interface{}) string {
	t, ok := r.Get(name)
	if !ok {
		log.Printf("[SpyTools] unknown tool requested: %s", name)
		return fmt.Sprintf("I don't have a gadget called %q. Whoever told you I do was lying.", name)
	}
	log.Printf("[SpyTools] calling tool: %s, args: %v", name, args)
	return t.Execute(ctx, args)
}

// Specs returns function-calling specs for the session config
func (r *Registry) Specs() []llm.Tool {
	specs := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		specs = append(specs, llm.Tool{
			Type: "function",
			Function: &llm.ToolFunction{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return specs
}

// GetInt reads an integer argument, tolerating the float64 the JSON
// decoder produces.
func GetInt(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
