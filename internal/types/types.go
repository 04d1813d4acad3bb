// Package types provides common type definitions shared across the wiredom
// packages. This package contains the leaf contracts (container access,
// component lifecycle hooks) to avoid circular dependencies between packages.
package types

import (
	"context"
	"reflect"
)

// Container is the contract toward the backing service container. A container
// resolves an instance for a registered type, returning an error if the type
// was never registered. Everything the lookup pipeline consumes (the name
// registry, the middleware manager, the injectors) is fetched through this
// accessor.
type Container interface {
	// Get resolves an instance for serviceType. When serviceType is an
	// interface type, implementations may fall back to scanning registered
	// services for one that implements it.
	Get(serviceType reflect.Type) (interface{}, error)
}

// Initializer is the synchronous component setup hook. The sync injector
// invokes Init after construction and field injection.
type Initializer interface {
	Init() error
}

// ContextInitializer is the blocking component setup hook. A component type
// implementing it is classified as async at registration time and must be
// constructed through the async injector, which runs Init off the caller's
// goroutine and hands back an in-flight future.
type ContextInitializer interface {
	Init(ctx context.Context) error
}

// ComponentKind distinguishes the two component variants the registry
// accepts: constructible struct types and plain constructor functions.
type ComponentKind int

const (
	KindStruct ComponentKind = iota
	KindFunc
)

// String returns the string representation of the ComponentKind.
func (k ComponentKind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindFunc:
		return "func"
	default:
		return "unknown"
	}
}

var (
	contextInitializerType = reflect.TypeOf((*ContextInitializer)(nil)).Elem()
	contextType            = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// KindOf classifies a component type as a struct component or a function
// component.
func KindOf(t reflect.Type) ComponentKind {
	if t != nil && t.Kind() == reflect.Func {
		return KindFunc
	}
	return KindStruct
}

// IsAsync reports whether a component type requires async construction.
// The decision is structural and made once, at registration time: struct
// components are async when they (or their pointer type) implement
// ContextInitializer; function components are async when their first
// parameter is a context.Context.
func IsAsync(t reflect.Type) bool {
	if t == nil {
		return false
	}

	if t.Kind() == reflect.Func {
		return t.NumIn() > 0 && t.In(0) == contextType
	}

	if t.Implements(contextInitializerType) {
		return true
	}
	if t.Kind() != reflect.Ptr && reflect.PointerTo(t).Implements(contextInitializerType) {
		return true
	}

	return false
}

// TypeFor returns the reflect.Type for T. It is a convenience for container
// registration and lookup of interface types, where reflect.TypeOf on a nil
// interface value would lose the type information.
func TypeFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
