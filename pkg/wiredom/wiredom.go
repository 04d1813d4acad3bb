// Package wiredom wires the component resolution core into a service
// container. Setup registers the standard collaborators (name registry,
// middleware manager, per-component middleware registry, injectors) so that
// lookups and renders can be performed against the container.
package wiredom

import (
	"github.com/wiredom/wiredom/internal/di"
	"github.com/wiredom/wiredom/internal/errors"
	"github.com/wiredom/wiredom/internal/injector"
	"github.com/wiredom/wiredom/internal/logging"
	"github.com/wiredom/wiredom/internal/lookup"
	"github.com/wiredom/wiredom/internal/middleware"
	"github.com/wiredom/wiredom/internal/registry"
	"github.com/wiredom/wiredom/internal/renderer"
	"github.com/wiredom/wiredom/internal/types"
)

type options struct {
	logger logging.Logger
}

// Option configures Setup.
type Option func(*options)

// WithLogger sets the logger used by the registered collaborators.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Setup registers the resolution core's collaborators with the container:
// the component name registry, the global middleware manager, the
// per-component middleware registry, and the default sync and async
// injectors backed by the same container.
func Setup(c *di.Container, opts ...Option) error {
	if c == nil {
		return errors.NewInvalidSetup("Setup requires a non-nil *di.Container")
	}

	o := &options{logger: logging.NopLogger{}}
	for _, opt := range opts {
		opt(o)
	}

	c.RegisterValue(registry.NewComponentNameRegistry())
	c.RegisterValue(middleware.NewManager(middleware.WithLogger(o.logger)))
	c.RegisterValue(middleware.NewComponentMiddlewareRegistry())
	c.RegisterValueAs(types.TypeFor[injector.Injector](), injector.NewInjector(c))
	c.RegisterValueAs(types.TypeFor[injector.AsyncInjector](), injector.NewAsyncInjector(c))

	return nil
}

// Registry fetches the component name registry from a container set up with
// Setup.
func Registry(c *di.Container) (*registry.ComponentNameRegistry, error) {
	instance, err := c.Get(types.TypeFor[*registry.ComponentNameRegistry]())
	if err != nil {
		return nil, errors.NewRegistryNotSetup()
	}
	return instance.(*registry.ComponentNameRegistry), nil
}

// Manager fetches the global middleware manager from a container set up with
// Setup.
func Manager(c *di.Container) (*middleware.Manager, error) {
	instance, err := c.Get(types.TypeFor[*middleware.Manager]())
	if err != nil {
		return nil, errors.NewInvalidSetup("no middleware manager registered; call Setup first")
	}
	return instance.(*middleware.Manager), nil
}

// ComponentMiddleware fetches the per-component middleware registry from a
// container set up with Setup.
func ComponentMiddleware(c *di.Container) (*middleware.ComponentMiddlewareRegistry, error) {
	instance, err := c.Get(types.TypeFor[*middleware.ComponentMiddlewareRegistry]())
	if err != nil {
		return nil, errors.NewInvalidSetup("no per-component middleware registry registered; call Setup first")
	}
	return instance.(*middleware.ComponentMiddlewareRegistry), nil
}

// NewLookup creates a ComponentLookup over the container.
func NewLookup(c *di.Container, logger logging.Logger) (*lookup.ComponentLookup, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return lookup.New(c, lookup.WithLogger(logger))
}

// NewRenderer creates a ComponentRenderer over the container.
func NewRenderer(c *di.Container, logger logging.Logger) (*renderer.ComponentRenderer, error) {
	cl, err := NewLookup(c, logger)
	if err != nil {
		return nil, err
	}
	return renderer.NewComponentRenderer(cl, logger), nil
}
