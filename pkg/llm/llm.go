/**
 * @description
 * This package provides the language-model invocation layer for the agent
 * service. It defines a small Client interface implemented by per-provider
 * backends, and a Registry that maps a (provider, model) pair to a callable
 * handle. The registry is constructed once in main and injected into the
 * components that need it; there is no ambient global provider state.
 *
 * @dependencies
 * - context, errors, fmt: Standard Go libraries.
 */
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownProvider is returned when a provider id has no configured backend.
var ErrUnknownProvider = errors.New("unknown LLM provider")

// ChatMessage is a flattened role/text pair supplied as model context.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamFunc receives incremental text as the model produces it.
type StreamFunc func(delta string)

// Client is a handle to one provider backend. Complete performs a single-shot
// completion; Stream yields increments through onDelta and returns the full
// text once the model finishes.
type Client interface {
	Complete(ctx context.Context, model, system string, history []ChatMessage) (string, error)
	Stream(ctx context.Context, model, system string, history []ChatMessage, onDelta StreamFunc) (string, error)
}

// Handle binds a resolved client to a concrete model name.
type Handle struct {
	client Client
	model  string
}

// Complete invokes the bound model once and returns the full reply text.
func (h Handle) Complete(ctx context.Context, system string, history []ChatMessage) (string, error) {
	return h.client.Complete(ctx, h.model, system, history)
}

// Stream invokes the bound model, forwarding increments to onDelta, and
// returns the full reply text on completion.
func (h Handle) Stream(ctx context.Context, system string, history []ChatMessage, onDelta StreamFunc) (string, error) {
	return h.client.Stream(ctx, h.model, system, history, onDelta)
}

// Registry maps provider ids to constructed clients.
type Registry struct {
	clients map[string]Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds a backend under the given provider id.
func (r *Registry) Register(provider string, client Client) {
	r.clients[provider] = client
}

// Resolve returns a handle for the given (provider, model) pair, or
// ErrUnknownProvider when no backend is registered under that id.
func (r *Registry) Resolve(provider, model string) (Handle, error) {
	client, ok := r.clients[provider]
	if !ok {
		return Handle{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return Handle{client: client, model: model}, nil
}

// Providers returns the ids of all registered backends.
func (r *Registry) Providers() []string {
	out := make([]string, 0, len(r.clients))
	for p := range r.clients {
		out = append(out, p)
	}
	return out
}

// AvailableModels lists the models offered per provider, used by the account
// creation flow to validate and present choices.
var AvailableModels = map[string][]string{
	"openai":    {"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "o3-mini"},
	"anthropic": {"claude-sonnet-4-20250514", "claude-3-5-haiku-20241022"},
	"google":    {"gemini-2.0-flash", "gemini-1.5-pro"},
}
