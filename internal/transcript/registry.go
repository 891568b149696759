package transcript

import (
	"encoding/json"
	"sync"
)

// CommandHandler is invoked when a command_result event arrives for a
// registered command name. Handlers are fire-and-forget side effects; the
// assembler does not consume a return value.
type CommandHandler func(args json.RawMessage)

// Registry maps command names to result handlers. It is constructed once
// per application instance and passed by reference to whatever needs to
// register or invoke handlers. Registration is additive; registering a
// name twice replaces the earlier handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]CommandHandler
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]CommandHandler)}
}

// Register binds a handler to a command name. Last registration wins.
func (r *Registry) Register(name string, h CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Lookup returns the handler for a command name, or nil.
func (r *Registry) Lookup(name string) CommandHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[name]
}
