package mob

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/netbattle/game/battle"
)

var (
	ErrUnknownMob    = errors.New("unknown mob")
	ErrFieldTooSmall = errors.New("field too small for mob")
)

// Factory prepares a field and builds the mob fighting on it
type Factory interface {
	Name() string
	Build(field *battle.Field) (*Mob, error)
}

// Registry holds factories by name
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in mobs. rng drives every random
// spawn decision; pass a seeded source for reproducible battles.
func NewRegistry(rng *rand.Rand) *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(NewStarfish(rng))
	r.Register(NewMetalMan())
	return r
}

// Register adds or replaces a factory
func (r *Registry) Register(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(f.Name())] = f
}

// Get returns the factory registered under name
func (r *Registry) Get(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMob, name)
	}
	return f, nil
}

// Names returns the registered factory names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build looks up name and builds its mob on field
func (r *Registry) Build(name string, field *battle.Field) (*Mob, error) {
	f, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return f.Build(field)
}

func requireSize(field *battle.Field, width, height int) error {
	if field.GetWidth() < width || field.GetHeight() < height {
		return fmt.Errorf("%w: need %dx%d, got %dx%d", ErrFieldTooSmall, width, height, field.GetWidth(), field.GetHeight())
	}
	return nil
}
