package bot

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"telegram-dialog-bot/internal/domain"
)

// Factory builds one command definition. Factories run lazily so localized
// descriptions are produced under whatever locale is active when the registry
// cache is (re)built.
type Factory func() *Command

// Registry is the explicit registration table mapping command names to
// factories, with a built-command cache and an invalidation primitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	cache     map[string]*Command
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		cache:     make(map[string]*Command),
	}
}

// Register adds a command factory under the given name. Registering the same
// name twice is a programming error.
func (r *Registry) Register(name string, factory Factory) error {
	key := normalizeName(name)
	if key == "" {
		return fmt.Errorf("register command: empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("register command %q: already registered", key)
	}
	r.factories[key] = factory
	return nil
}

// Resolve returns the command for name (case-insensitive, leading slash
// ignored), building and caching it on first use.
// Unknown names yield domain.ErrCommandNotFound.
func (r *Registry) Resolve(name string) (*Command, error) {
	key := normalizeName(name)

	r.mu.RLock()
	if cmd, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return cmd, nil
	}
	factory, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrCommandNotFound, key)
	}

	cmd := factory()
	r.mu.Lock()
	r.cache[key] = cmd
	r.mu.Unlock()
	return cmd, nil
}

// All returns every registered command sorted by name.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)

	cmds := make([]*Command, 0, len(names))
	for _, name := range names {
		cmd, err := r.Resolve(name)
		if err != nil {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// Invalidate drops all built commands so the next resolve rebuilds them.
// Required when localized descriptions must be regenerated per locale.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[string]*Command)
	r.mu.Unlock()
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
}
