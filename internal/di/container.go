// Package di provides the type-keyed service container backing the wiredom
// resolution pipeline. The container stores values and factories keyed by
// reflect.Type and resolves them on demand, with singleton creation
// coordination and circular-resolution detection.
package di

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/wiredom/wiredom/internal/types"
)

// FactoryFunc creates a service instance using the resolver.
type FactoryFunc func(resolver Resolver) (interface{}, error)

// Resolver provides safe dependency resolution inside factories, carrying
// the in-flight resolution set to detect cycles.
type Resolver interface {
	Get(serviceType reflect.Type) (interface{}, error)
}

// serviceDefinition defines how a service is created and cached.
type serviceDefinition struct {
	serviceType reflect.Type
	factory     FactoryFunc
	singleton   bool
}

// inflight tracks a singleton creation in progress. The creator fills
// instance/err before calling Done, so waiters reading after Wait see the
// outcome, including a factory failure.
type inflight struct {
	wg       sync.WaitGroup
	instance interface{}
	err      error
}

// Container manages type-keyed dependency injection. It implements
// types.Container.
type Container struct {
	services   map[reflect.Type]serviceDefinition
	singletons map[reflect.Type]interface{}
	creating   map[reflect.Type]*inflight
	mu         sync.RWMutex
}

var _ types.Container = (*Container)(nil)

// NewContainer creates a new dependency injection container.
func NewContainer() *Container {
	return &Container{
		services:   make(map[reflect.Type]serviceDefinition),
		singletons: make(map[reflect.Type]interface{}),
		creating:   make(map[reflect.Type]*inflight),
	}
}

// RegisterValue registers an existing instance under its concrete type.
func (c *Container) RegisterValue(instance interface{}) {
	c.RegisterValueAs(reflect.TypeOf(instance), instance)
}

// RegisterValueAs registers an existing instance under an explicit type,
// typically an interface type the instance implements.
func (c *Container) RegisterValueAs(serviceType reflect.Type, instance interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.services[serviceType] = serviceDefinition{
		serviceType: serviceType,
		singleton:   true,
	}
	c.singletons[serviceType] = instance
}

// RegisterFactory registers a transient factory for a type. A fresh instance
// is created on every Get.
func (c *Container) RegisterFactory(serviceType reflect.Type, factory FactoryFunc) {
	c.register(serviceType, factory, false)
}

// RegisterSingleton registers a factory whose product is created once and
// cached for subsequent Gets.
func (c *Container) RegisterSingleton(serviceType reflect.Type, factory FactoryFunc) {
	c.register(serviceType, factory, true)
}

func (c *Container) register(serviceType reflect.Type, factory FactoryFunc, singleton bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.services[serviceType] = serviceDefinition{
		serviceType: serviceType,
		factory:     factory,
		singleton:   singleton,
	}
	// A re-registration invalidates any cached singleton.
	delete(c.singletons, serviceType)
}

// Has checks if a service is registered for the exact type.
func (c *Container) Has(serviceType reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.services[serviceType]
	return exists
}

// Get resolves a service instance. Exact type matches win; when serviceType
// is an interface with no exact registration, registered services are scanned
// for one whose type implements it.
func (c *Container) Get(serviceType reflect.Type) (interface{}, error) {
	return c.getWithResolver(serviceType, make(map[reflect.Type]bool))
}

// MustGet resolves a service and panics if it is not registered.
func (c *Container) MustGet(serviceType reflect.Type) interface{} {
	instance, err := c.Get(serviceType)
	if err != nil {
		panic(fmt.Sprintf("di: failed to get service %s: %v", serviceType, err))
	}
	return instance
}

func (c *Container) getWithResolver(serviceType reflect.Type, resolving map[reflect.Type]bool) (interface{}, error) {
	if serviceType == nil {
		return nil, fmt.Errorf("di: cannot resolve nil type")
	}
	if resolving[serviceType] {
		return nil, fmt.Errorf("di: circular dependency detected for %s", serviceType)
	}

	c.mu.RLock()
	definition, exists := c.services[serviceType]
	c.mu.RUnlock()

	if !exists {
		fallback, ok := c.findImplementation(serviceType)
		if !ok {
			return nil, fmt.Errorf("di: no service registered for type %s", serviceType)
		}
		definition = fallback
		serviceType = definition.serviceType
	}

	if definition.singleton {
		return c.getSingleton(serviceType, definition, resolving)
	}

	resolving[serviceType] = true
	instance, err := c.invokeFactory(definition, resolving)
	delete(resolving, serviceType)

	if err != nil {
		return nil, fmt.Errorf("di: failed to create service %s: %w", serviceType, err)
	}
	return instance, nil
}

// getSingleton coordinates singleton creation so concurrent resolvers of the
// same type share one instance. The factory runs without holding the lock,
// so a factory may resolve further services reentrantly.
func (c *Container) getSingleton(serviceType reflect.Type, definition serviceDefinition, resolving map[reflect.Type]bool) (interface{}, error) {
	c.mu.RLock()
	if instance, ok := c.singletons[serviceType]; ok {
		c.mu.RUnlock()
		return instance, nil
	}
	if flight, creating := c.creating[serviceType]; creating {
		c.mu.RUnlock()
		flight.wg.Wait()
		return flight.instance, flight.err
	}
	c.mu.RUnlock()

	c.mu.Lock()
	if instance, ok := c.singletons[serviceType]; ok {
		c.mu.Unlock()
		return instance, nil
	}
	if flight, creating := c.creating[serviceType]; creating {
		c.mu.Unlock()
		flight.wg.Wait()
		return flight.instance, flight.err
	}

	flight := &inflight{}
	flight.wg.Add(1)
	c.creating[serviceType] = flight
	resolving[serviceType] = true
	c.mu.Unlock()

	instance, err := c.invokeFactory(definition, resolving)
	delete(resolving, serviceType)

	c.mu.Lock()
	if err != nil {
		// A failed creation is not cached; the next Get retries. Waiters
		// already parked on this flight receive the failure.
		flight.err = fmt.Errorf("di: failed to create singleton %s: %w", serviceType, err)
		delete(c.creating, serviceType)
		c.mu.Unlock()
		flight.wg.Done()
		return nil, flight.err
	}
	flight.instance = instance
	c.singletons[serviceType] = instance
	delete(c.creating, serviceType)
	c.mu.Unlock()
	flight.wg.Done()

	return instance, nil
}

func (c *Container) invokeFactory(definition serviceDefinition, resolving map[reflect.Type]bool) (interface{}, error) {
	if definition.factory == nil {
		return nil, fmt.Errorf("factory is nil")
	}
	return definition.factory(&scopedResolver{container: c, resolving: resolving})
}

// findImplementation scans registrations for a type assignable to the
// requested interface. Registration order of map iteration is not guaranteed,
// so ambiguous matches should be avoided by registering the interface type
// explicitly.
func (c *Container) findImplementation(serviceType reflect.Type) (serviceDefinition, bool) {
	if serviceType.Kind() != reflect.Interface {
		return serviceDefinition{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for registered, definition := range c.services {
		if registered.Implements(serviceType) {
			return definition, true
		}
	}
	return serviceDefinition{}, false
}

// ListServices returns the registered service types.
func (c *Container) ListServices() []reflect.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]reflect.Type, 0, len(c.services))
	for t := range c.services {
		out = append(out, t)
	}
	return out
}

// scopedResolver threads the in-flight resolution set through nested factory
// calls without exposing it on the public Get path.
type scopedResolver struct {
	container *Container
	resolving map[reflect.Type]bool
}

func (r *scopedResolver) Get(serviceType reflect.Type) (interface{}, error) {
	return r.container.getWithResolver(serviceType, r.resolving)
}
