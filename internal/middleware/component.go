package middleware

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/wiredom/wiredom/internal/errors"
	"github.com/wiredom/wiredom/internal/types"
)

// Lifecycle phase names used by convention for per-component middleware.
// Phase keys are free-form strings, not a closed enum: the executor only
// knows how to run the list for a named phase, and callers decide which
// phases exist. Only PhasePreResolution is invoked by the lookup pipeline.
const (
	PhasePreResolution  = "pre_resolution"
	PhasePostResolution = "post_resolution"
	PhaseRendering      = "rendering"
)

// ComponentMiddlewareRegistry maps a component type to its per-phase
// middleware configuration. It is an explicit side table keyed by component
// identity, owned here rather than stashed as metadata on user types.
//
// Entries are middleware types, not instances: Execute resolves each type
// fresh from the supplied container on every call, mirroring the Manager's
// fresh-service-state rule.
//
// The table is expected to be populated at wiring time and read during
// execution; both paths are locked, so late attachment is also safe.
type ComponentMiddlewareRegistry struct {
	mu    sync.RWMutex
	table map[reflect.Type]map[string][]reflect.Type
}

// NewComponentMiddlewareRegistry creates an empty per-component middleware
// registry.
func NewComponentMiddlewareRegistry() *ComponentMiddlewareRegistry {
	return &ComponentMiddlewareRegistry{
		table: make(map[reflect.Type]map[string][]reflect.Type),
	}
}

// Attach sets the phase configuration for a component, overwriting any
// previous configuration for that component. The mapping is copied.
func (r *ComponentMiddlewareRegistry) Attach(component reflect.Type, phases map[string][]reflect.Type) {
	copied := make(map[string][]reflect.Type, len(phases))
	for phase, list := range phases {
		copied[phase] = append([]reflect.Type(nil), list...)
	}

	r.mu.Lock()
	r.table[component] = copied
	r.mu.Unlock()
}

// Get returns the phase configuration for a component. Components with no
// attached configuration get an empty mapping, never an error.
func (r *ComponentMiddlewareRegistry) Get(component reflect.Type) map[string][]reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	phases, ok := r.table[component]
	if !ok {
		return map[string][]reflect.Type{}
	}

	copied := make(map[string][]reflect.Type, len(phases))
	for phase, list := range phases {
		copied[phase] = append([]reflect.Type(nil), list...)
	}
	return copied
}

// Execute runs the component's middleware for the named phase synchronously,
// with the Manager's ordering and halt semantics: instances resolved fresh
// from the container, stable-sorted by priority, nil props halting the
// chain, async middleware on this path a fatal mismatch.
func (r *ComponentMiddlewareRegistry) Execute(component reflect.Type, props Props, container types.Container, phase string) (Props, error) {
	chain, err := r.resolvePhase(component, container, phase)
	if err != nil {
		return nil, err
	}

	mctx := ContainerContext{Container: container}
	current := props
	for _, e := range chain {
		if e.sync == nil {
			return nil, errors.NewAsyncInSyncChain(e.name())
		}

		next, err := e.sync.Handle(component, current, mctx)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, nil
		}
		current = next
	}

	return current, nil
}

// ExecuteAsync is the async variant of Execute, awaiting async middleware
// inline in the same priority-ordered pass.
func (r *ComponentMiddlewareRegistry) ExecuteAsync(ctx context.Context, component reflect.Type, props Props, container types.Container, phase string) (Props, error) {
	chain, err := r.resolvePhase(component, container, phase)
	if err != nil {
		return nil, err
	}

	mctx := ContainerContext{Container: container}
	current := props
	for _, e := range chain {
		var next Props
		var err error
		if e.sync != nil {
			next, err = e.sync.Handle(component, current, mctx)
		} else {
			next, err = e.async.HandleAsync(ctx, component, current, mctx)
		}
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, nil
		}
		current = next
	}

	return current, nil
}

func (r *ComponentMiddlewareRegistry) resolvePhase(component reflect.Type, container types.Container, phase string) ([]entry, error) {
	if container == nil || isNilValue(container) {
		return nil, errors.NewContractViolation(errors.CodeInvalidContainer,
			"per-component middleware container is nil")
	}

	r.mu.RLock()
	var middlewareTypes []reflect.Type
	if phases, ok := r.table[component]; ok {
		middlewareTypes = append([]reflect.Type(nil), phases[phase]...)
	}
	r.mu.RUnlock()

	chain := make([]entry, 0, len(middlewareTypes))
	for _, t := range middlewareTypes {
		instance, err := container.Get(t)
		if err != nil {
			return nil, errors.NewServiceUnresolved(t.String(), err)
		}

		mw, ok := instance.(Middleware)
		if !ok {
			return nil, errors.NewContractViolation(errors.CodeInvalidMiddleware,
				"resolved middleware "+t.String()+" does not satisfy the Middleware contract")
		}
		e, err := classify(mw)
		if err != nil {
			return nil, err
		}
		chain = append(chain, e)
	}

	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].priority() < chain[j].priority()
	})
	return chain, nil
}
