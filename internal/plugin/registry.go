package plugin

import "sync"

// Registry holds accepted plugins in registration order. Names are unique:
// a second registration under the same name is refused, never merged.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	plugins map[string]*Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]*Plugin)}
}

// Register stores p under name. It returns false and leaves the registry
// untouched when p is nil or name is already taken.
func (r *Registry) Register(name string, p *Plugin) bool {
	if p == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; exists {
		return false
	}
	r.plugins[name] = p
	r.order = append(r.order, name)
	return true
}

// CheckConflict returns the first plugin, in registration order, that
// declares command. It returns nil when no plugin does.
func (r *Registry) CheckConflict(command string) *Conflict {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if r.plugins[name].Commands.Has(command) {
			return &Conflict{Command: command, Plugin: name}
		}
	}
	return nil
}

// Get returns the plugin registered under name, or nil.
func (r *Registry) Get(name string) *Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugins[name]
}

// GetAll returns a snapshot of the registered plugins.
func (r *Registry) GetAll() map[string]*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*Plugin, len(r.plugins))
	for name, p := range r.plugins {
		out[name] = p
	}
	return out
}

// Names returns the registered plugin names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// GetAllCommands lists every command of every plugin, in registration order
// and then declaration order within each plugin.
func (r *Registry) GetAllCommands() []CommandEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []CommandEntry
	for _, name := range r.order {
		for _, cmd := range r.plugins[name].Commands {
			out = append(out, CommandEntry{Plugin: name, Command: cmd.Name, Spec: cmd.CommandSpec})
		}
	}
	return out
}

// Clear removes every plugin.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.plugins = make(map[string]*Plugin)
}
