// Package middleware implements the priority-ordered middleware pipeline that
// runs around component resolution: the global Manager, the per-component
// middleware registry, and the contracts both execute against.
//
// A middleware transforms a props mapping for a (component, props, context)
// triple. Returning nil props with a nil error is the halt sentinel: the
// chain stops immediately and the overall result is halt. Errors are never
// caught by the executors; they propagate verbatim to the caller.
package middleware

import (
	"context"
	"fmt"
	"reflect"

	"github.com/wiredom/wiredom/internal/errors"
)

// Props is the mutable string-keyed mapping threaded through a middleware
// chain. Identity is not stable across middleware: each middleware may return
// a new mapping, and the executor tracks only the current reference.
type Props map[string]interface{}

// Context is the minimal read-accessor contract any dependency source must
// satisfy to be usable by middleware. The executors pass it through the whole
// chain untouched.
type Context interface {
	Value(key string) (interface{}, bool)
}

// MapContext adapts a plain map to the Context contract.
type MapContext map[string]interface{}

// Value implements Context.
func (m MapContext) Value(key string) (interface{}, bool) {
	v, ok := m[key]
	return v, ok
}

// ContainerKey is the Context key under which executors expose a backing
// container to middleware.
const ContainerKey = "container"

// ContainerContext exposes a service container to middleware under
// ContainerKey, so middleware can fetch further services.
type ContainerContext struct {
	Container interface{}
}

// Value implements Context.
func (c ContainerContext) Value(key string) (interface{}, bool) {
	if key == ContainerKey && c.Container != nil {
		return c.Container, true
	}
	return nil, false
}

// Middleware is the minimal contract common to both call variants: an
// integer priority. Lower priorities execute earlier; ties preserve
// registration order.
type Middleware interface {
	Priority() int
}

// SyncMiddleware is the synchronous call variant. Handle returns the
// (possibly new) props to continue the chain with, or nil props and nil
// error to halt it.
type SyncMiddleware interface {
	Middleware
	Handle(component interface{}, props Props, mctx Context) (Props, error)
}

// AsyncMiddleware is the blocking call variant. It receives the caller's
// context and may suspend; invoking it from the synchronous execution entry
// point is a fatal programmer error, not an implicit block.
type AsyncMiddleware interface {
	Middleware
	HandleAsync(ctx context.Context, component interface{}, props Props, mctx Context) (Props, error)
}

// entry is the typed handle stored at registration time. The sync/async
// decision is made once here, never re-inspected per invocation.
type entry struct {
	sync  SyncMiddleware
	async AsyncMiddleware
}

func (e entry) priority() int {
	if e.sync != nil {
		return e.sync.Priority()
	}
	return e.async.Priority()
}

func (e entry) name() string {
	if e.sync != nil {
		return reflect.TypeOf(e.sync).String()
	}
	return reflect.TypeOf(e.async).String()
}

// classify checks the structural contract once and returns the typed handle.
// If a value implements both variants, the sync variant wins.
func classify(m Middleware) (entry, error) {
	if m == nil {
		return entry{}, errors.NewContractViolation(errors.CodeInvalidMiddleware,
			"middleware is nil")
	}

	if sm, ok := m.(SyncMiddleware); ok {
		return entry{sync: sm}, nil
	}
	if am, ok := m.(AsyncMiddleware); ok {
		return entry{async: am}, nil
	}

	return entry{}, errors.NewContractViolation(errors.CodeInvalidMiddleware,
		fmt.Sprintf("middleware %T satisfies neither SyncMiddleware nor AsyncMiddleware", m))
}

// SyncFunc adapts a function to SyncMiddleware.
type SyncFunc struct {
	Order int
	Fn    func(component interface{}, props Props, mctx Context) (Props, error)
}

// Priority implements Middleware.
func (f SyncFunc) Priority() int { return f.Order }

// Handle implements SyncMiddleware.
func (f SyncFunc) Handle(component interface{}, props Props, mctx Context) (Props, error) {
	return f.Fn(component, props, mctx)
}

// AsyncFunc adapts a function to AsyncMiddleware.
type AsyncFunc struct {
	Order int
	Fn    func(ctx context.Context, component interface{}, props Props, mctx Context) (Props, error)
}

// Priority implements Middleware.
func (f AsyncFunc) Priority() int { return f.Order }

// HandleAsync implements AsyncMiddleware.
func (f AsyncFunc) HandleAsync(ctx context.Context, component interface{}, props Props, mctx Context) (Props, error) {
	return f.Fn(ctx, component, props, mctx)
}
