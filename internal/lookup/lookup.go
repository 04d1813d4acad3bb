// Package lookup implements the component resolution pipeline: the single
// entry point translating "the component named X, with this ambient context"
// into a constructed, dependency-satisfied instance (or an in-flight future
// for async components).
package lookup

import (
	"context"
	"reflect"

	"github.com/wiredom/wiredom/internal/errors"
	"github.com/wiredom/wiredom/internal/injector"
	"github.com/wiredom/wiredom/internal/logging"
	"github.com/wiredom/wiredom/internal/middleware"
	"github.com/wiredom/wiredom/internal/registry"
	"github.com/wiredom/wiredom/internal/types"
)

var (
	registryType      = reflect.TypeOf((*registry.ComponentNameRegistry)(nil))
	managerType       = reflect.TypeOf((*middleware.Manager)(nil))
	componentMWType   = reflect.TypeOf((*middleware.ComponentMiddlewareRegistry)(nil))
	syncInjectorType  = reflect.TypeOf((*injector.Injector)(nil)).Elem()
	asyncInjectorType = reflect.TypeOf((*injector.AsyncInjector)(nil)).Elem()
)

// ComponentLookup resolves components by name through the backing container:
// name to type via the registry, global then per-component pre-resolution
// middleware, then dispatch to the sync or async injector.
type ComponentLookup struct {
	container types.Container
	logger    logging.Logger
}

// Option configures a ComponentLookup.
type Option func(*ComponentLookup)

// WithLogger sets the lookup's logger.
func WithLogger(l logging.Logger) Option {
	return func(cl *ComponentLookup) { cl.logger = l }
}

// New creates a ComponentLookup over a backing container.
func New(container types.Container, opts ...Option) (*ComponentLookup, error) {
	if container == nil {
		return nil, errors.NewInvalidSetup("lookup requires a non-nil container")
	}

	cl := &ComponentLookup{container: container, logger: logging.NopLogger{}}
	for _, opt := range opts {
		opt(cl)
	}
	return cl, nil
}

// Lookup resolves the component registered under name. For sync components
// the constructed instance is returned; for async components the return
// value is an *injector.Future that the caller must await — Lookup never
// awaits on the caller's behalf.
//
// The middleware manager and the per-component middleware registry are
// optional infrastructure: when neither is registered with the container,
// their steps are silently skipped. The registry and the matching injector
// are hard requirements.
//
// A middleware halt inside the pre-resolution steps is converted to an
// ExecutionHalted error here: halt-as-value holds inside middleware chains
// generally, but at this boundary there is no caller positioned to interpret
// a nil component.
func (cl *ComponentLookup) Lookup(ctx context.Context, name string, mctx middleware.Context) (interface{}, error) {
	reg, err := cl.nameRegistry()
	if err != nil {
		return nil, err
	}

	entry, found := reg.GetType(name)
	if !found {
		names := reg.GetAllNames()
		suggestions := errors.NearestNames(name, names, errors.MaxSuggestions)
		return nil, errors.NewComponentNotFound(name, suggestions, len(names))
	}

	props := middleware.Props{}
	props, err = cl.runGlobalMiddleware(ctx, entry, props, mctx)
	if err != nil {
		return nil, err
	}

	if _, err = cl.runPreResolutionMiddleware(ctx, entry, props); err != nil {
		return nil, err
	}

	if entry.Async {
		return cl.constructAsync(ctx, entry)
	}
	return cl.construct(entry)
}

func (cl *ComponentLookup) nameRegistry() (*registry.ComponentNameRegistry, error) {
	instance, err := cl.container.Get(registryType)
	if err != nil {
		return nil, errors.NewRegistryNotSetup()
	}
	reg, ok := instance.(*registry.ComponentNameRegistry)
	if !ok {
		return nil, errors.NewRegistryNotSetup()
	}
	return reg, nil
}

// runGlobalMiddleware executes the globally-registered middleware when a
// manager is registered with the container; absence of a manager is an
// intentional soft dependency and skips the step.
func (cl *ComponentLookup) runGlobalMiddleware(ctx context.Context, entry registry.ComponentType, props middleware.Props, mctx middleware.Context) (middleware.Props, error) {
	instance, err := cl.container.Get(managerType)
	if err != nil {
		cl.logger.Debug(ctx, "no middleware manager registered, skipping global middleware", "component", entry.Name)
		return props, nil
	}
	manager, ok := instance.(*middleware.Manager)
	if !ok {
		return props, nil
	}

	result, err := manager.ExecuteAsync(ctx, entry, props, mctx)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.NewExecutionHalted("global", entry.Name)
	}
	return result, nil
}

// runPreResolutionMiddleware executes the component's own pre_resolution
// middleware. Global middleware has already run at this point; a global halt
// never reaches here.
func (cl *ComponentLookup) runPreResolutionMiddleware(ctx context.Context, entry registry.ComponentType, props middleware.Props) (middleware.Props, error) {
	instance, err := cl.container.Get(componentMWType)
	if err != nil {
		return props, nil
	}
	cmw, ok := instance.(*middleware.ComponentMiddlewareRegistry)
	if !ok {
		return props, nil
	}

	result, err := cmw.ExecuteAsync(ctx, entry.Type, props, cl.container, middleware.PhasePreResolution)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.NewExecutionHalted("pre-resolution", entry.Name)
	}
	return result, nil
}

func (cl *ComponentLookup) construct(entry registry.ComponentType) (interface{}, error) {
	instance, err := cl.container.Get(syncInjectorType)
	if err != nil {
		return nil, errors.NewInjectorNotFound(false).WithComponent(entry.Name)
	}
	inj, ok := instance.(injector.Injector)
	if !ok {
		return nil, errors.NewInjectorNotFound(false).WithComponent(entry.Name)
	}

	component, err := inj.Construct(entry.Type)
	if err != nil {
		return nil, err
	}
	return component, nil
}

func (cl *ComponentLookup) constructAsync(ctx context.Context, entry registry.ComponentType) (interface{}, error) {
	instance, err := cl.container.Get(asyncInjectorType)
	if err != nil {
		return nil, errors.NewInjectorNotFound(true).WithComponent(entry.Name)
	}
	inj, ok := instance.(injector.AsyncInjector)
	if !ok {
		return nil, errors.NewInjectorNotFound(true).WithComponent(entry.Name)
	}

	return inj.ConstructAsync(ctx, entry.Type), nil
}
