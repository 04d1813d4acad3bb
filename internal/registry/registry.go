// Package registry provides the thread-safe directory from template-facing
// component names to component types, used for the "string name in template,
// construct me" path.
package registry

import (
	"reflect"
	"sync"
	"time"

	"github.com/wiredom/wiredom/internal/types"
)

// ComponentType is a registry entry: a named component type plus the
// structural facts decided once at registration time.
type ComponentType struct {
	// Name is the template-facing identifier (e.g. "Button").
	Name string
	// Type is the component's Go type: a struct type or a constructor func.
	Type reflect.Type
	// Kind distinguishes struct components from function components.
	Kind types.ComponentKind
	// Async records whether the component requires async construction.
	Async bool
}

// ComponentEvent represents a change in the name registry.
type ComponentEvent struct {
	Type      EventType
	Component ComponentType
	Timestamp time.Time
}

// EventType represents the type of component event.
type EventType int

const (
	EventTypeRegistered EventType = iota
	EventTypeOverridden
)

// ComponentNameRegistry maps string names to component types. Registration
// under an existing name overwrites the previous entry with no history kept;
// this last-write-wins rule is the mechanism behind override patterns. There
// is no removal operation.
//
// Every operation takes the lock around the underlying mapping, so
// concurrent registration and lookup from multiple goroutines see no torn
// reads. GetAllNames returns a snapshot taken under the lock.
type ComponentNameRegistry struct {
	components map[string]ComponentType
	watchers   []chan ComponentEvent
	mutex      sync.RWMutex
}

// NewComponentNameRegistry creates an empty name registry.
func NewComponentNameRegistry() *ComponentNameRegistry {
	return &ComponentNameRegistry{
		components: make(map[string]ComponentType),
		watchers:   make([]chan ComponentEvent, 0),
	}
}

// Register maps a name to a component type, overwriting any previous entry
// under that name. Kind and async-ness are classified here, once.
func (r *ComponentNameRegistry) Register(name string, componentType reflect.Type) {
	entry := ComponentType{
		Name:  name,
		Type:  componentType,
		Kind:  types.KindOf(componentType),
		Async: types.IsAsync(componentType),
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeRegistered
	if _, exists := r.components[name]; exists {
		eventType = EventTypeOverridden
	}
	r.components[name] = entry

	event := ComponentEvent{
		Type:      eventType,
		Component: entry,
		Timestamp: time.Now(),
	}
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// GetType retrieves the entry for a name. The second return value is the
// explicit not-found signal; lookup never errors.
func (r *ComponentNameRegistry) GetType(name string) (ComponentType, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entry, exists := r.components[name]
	return entry, exists
}

// GetAllNames returns a snapshot of all registered names, used for building
// nearest-name suggestions on lookup failure.
func (r *ComponentNameRegistry) GetAllNames() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered names.
func (r *ComponentNameRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.components)
}

// Watch returns a channel that receives registration events.
func (r *ComponentNameRegistry) Watch() <-chan ComponentEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan ComponentEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it.
func (r *ComponentNameRegistry) UnWatch(ch <-chan ComponentEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}
