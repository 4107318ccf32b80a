package host

import (
	"errors"
	"fmt"
	"github.com/shimmeringbee/xbeeio/entity"
	"sync"
)

var ErrDuplicateName = errors.New("entity name already registered")
var ErrUnknownEntity = errors.New("unknown entity")
var ErrNotSwitchable = errors.New("entity cannot be switched")

// Registry holds entities by name, in the order they were added.
type Registry struct {
	m        *sync.RWMutex
	order    []string
	entities map[string]entity.Entity
}

func NewRegistry() *Registry {
	return &Registry{
		m:        &sync.RWMutex{},
		entities: map[string]entity.Entity{},
	}
}

func (r *Registry) Add(e entity.Entity) error {
	r.m.Lock()
	defer r.m.Unlock()

	if _, found := r.entities[e.Name()]; found {
		return fmt.Errorf("%w: %s", ErrDuplicateName, e.Name())
	}

	r.entities[e.Name()] = e
	r.order = append(r.order, e.Name())

	return nil
}

func (r *Registry) Get(name string) (entity.Entity, bool) {
	r.m.RLock()
	defer r.m.RUnlock()

	e, found := r.entities[name]
	return e, found
}

// Switchable returns the named entity if it can be turned on and off.
func (r *Registry) Switchable(name string) (entity.Switchable, error) {
	e, found := r.Get(name)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}

	s, ok := e.(entity.Switchable)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotSwitchable, name)
	}

	if d, ok := e.(*entity.DigitalPin); ok && d.Role() == entity.Input {
		return nil, fmt.Errorf("%w: %s", ErrNotSwitchable, name)
	}

	return s, nil
}

func (r *Registry) Entities() []entity.Entity {
	r.m.RLock()
	defer r.m.RUnlock()

	out := make([]entity.Entity, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entities[name])
	}

	return out
}
