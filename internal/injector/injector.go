// Package injector provides the construction collaborators the lookup
// pipeline dispatches to: a synchronous injector returning instances and an
// asynchronous injector returning in-flight futures. The default
// implementations construct components reflectively, satisfying their
// declared dependencies from a service container.
package injector

import (
	"context"
	"fmt"
	"reflect"

	"github.com/wiredom/wiredom/internal/types"
)

// Injector constructs sync components.
type Injector interface {
	Construct(componentType reflect.Type) (interface{}, error)
}

// AsyncInjector constructs async components off the caller's goroutine. The
// returned Future is already in flight; the caller awaits it.
type AsyncInjector interface {
	ConstructAsync(ctx context.Context, componentType reflect.Type) *Future
}

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// ReflectiveInjector constructs components reflectively: struct components
// get `inject`-tagged fields populated from the container and their Init
// hook run; function components get their parameters resolved from the
// container and are invoked as constructors.
type ReflectiveInjector struct {
	container types.Container
}

var _ Injector = (*ReflectiveInjector)(nil)

// NewInjector creates a reflective sync injector backed by a container.
func NewInjector(container types.Container) *ReflectiveInjector {
	return &ReflectiveInjector{container: container}
}

// Construct builds an instance of componentType.
func (in *ReflectiveInjector) Construct(componentType reflect.Type) (interface{}, error) {
	if componentType == nil {
		return nil, fmt.Errorf("injector: component type is nil")
	}

	if componentType.Kind() == reflect.Func {
		return in.call(componentType, nil)
	}
	return in.build(componentType)
}

// build allocates a struct component, injects tagged fields, and runs the
// sync Init hook if present.
func (in *ReflectiveInjector) build(componentType reflect.Type) (interface{}, error) {
	base := componentType
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return nil, fmt.Errorf("injector: component type %s is not constructible", componentType)
	}

	value := reflect.New(base)
	if err := in.injectFields(value.Elem()); err != nil {
		return nil, err
	}

	instance := value.Interface()
	if init, ok := instance.(types.Initializer); ok {
		if err := init.Init(); err != nil {
			return nil, fmt.Errorf("injector: %s init failed: %w", componentType, err)
		}
	}

	return instance, nil
}

// injectFields populates exported fields tagged `inject:""` from the
// container.
func (in *ReflectiveInjector) injectFields(value reflect.Value) error {
	t := value.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if _, tagged := field.Tag.Lookup("inject"); !tagged {
			continue
		}
		if !field.IsExported() {
			return fmt.Errorf("injector: cannot inject unexported field %s.%s", t, field.Name)
		}

		dep, err := in.container.Get(field.Type)
		if err != nil {
			return fmt.Errorf("injector: dependency %s for field %s.%s: %w", field.Type, t, field.Name, err)
		}
		// Containers are not trusted to never hand back a nil instance
		// without an error; that must not panic the Set below.
		dv := reflect.ValueOf(dep)
		if !dv.IsValid() || !dv.Type().AssignableTo(field.Type) {
			return fmt.Errorf("injector: dependency %s for field %s.%s resolved to an unusable value (%T)", field.Type, t, field.Name, dep)
		}
		value.Field(i).Set(dv)
	}
	return nil
}

// call invokes a function component, resolving each parameter from the
// container. When ctx is non-nil and the first parameter is a
// context.Context, ctx fills it. The function may return (T) or (T, error).
func (in *ReflectiveInjector) call(funcType reflect.Type, ctx context.Context) (interface{}, error) {
	fn, err := in.container.Get(funcType)
	if err != nil {
		return nil, fmt.Errorf("injector: function component %s is not registered with the container: %w", funcType, err)
	}

	fnValue := reflect.ValueOf(fn)
	if fnValue.Kind() != reflect.Func {
		return nil, fmt.Errorf("injector: container returned %T for function component %s", fn, funcType)
	}
	args := make([]reflect.Value, funcType.NumIn())
	for i := 0; i < funcType.NumIn(); i++ {
		paramType := funcType.In(i)
		if i == 0 && paramType == contextType {
			if ctx == nil {
				return nil, fmt.Errorf("injector: function component %s requires a context; use the async injector", funcType)
			}
			args[i] = reflect.ValueOf(ctx)
			continue
		}

		dep, err := in.container.Get(paramType)
		if err != nil {
			return nil, fmt.Errorf("injector: dependency %s for function component %s: %w", paramType, funcType, err)
		}
		dv := reflect.ValueOf(dep)
		if !dv.IsValid() || !dv.Type().AssignableTo(paramType) {
			return nil, fmt.Errorf("injector: dependency %s for function component %s resolved to an unusable value (%T)", paramType, funcType, dep)
		}
		args[i] = dv
	}

	results := fnValue.Call(args)
	switch len(results) {
	case 1:
		return results[0].Interface(), nil
	case 2:
		if results[1].Type().Implements(errorType) || results[1].Type() == errorType {
			if !results[1].IsNil() {
				return nil, results[1].Interface().(error)
			}
			return results[0].Interface(), nil
		}
	}
	return nil, fmt.Errorf("injector: function component %s must return (T) or (T, error)", funcType)
}

// AsyncReflectiveInjector constructs async components on a separate
// goroutine, running the blocking ContextInitializer hook (or the
// context-taking constructor function) with the caller's context.
type AsyncReflectiveInjector struct {
	sync *ReflectiveInjector
}

var _ AsyncInjector = (*AsyncReflectiveInjector)(nil)

// NewAsyncInjector creates a reflective async injector backed by a
// container.
func NewAsyncInjector(container types.Container) *AsyncReflectiveInjector {
	return &AsyncReflectiveInjector{sync: NewInjector(container)}
}

// ConstructAsync starts construction and returns the in-flight future.
func (in *AsyncReflectiveInjector) ConstructAsync(ctx context.Context, componentType reflect.Type) *Future {
	future := newFuture()

	go func() {
		instance, err := in.construct(ctx, componentType)
		future.complete(instance, err)
	}()

	return future
}

func (in *AsyncReflectiveInjector) construct(ctx context.Context, componentType reflect.Type) (interface{}, error) {
	if componentType == nil {
		return nil, fmt.Errorf("injector: component type is nil")
	}

	if componentType.Kind() == reflect.Func {
		return in.sync.call(componentType, ctx)
	}

	base := componentType
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return nil, fmt.Errorf("injector: component type %s is not constructible", componentType)
	}

	value := reflect.New(base)
	if err := in.sync.injectFields(value.Elem()); err != nil {
		return nil, err
	}

	instance := value.Interface()
	if init, ok := instance.(types.ContextInitializer); ok {
		if err := init.Init(ctx); err != nil {
			return nil, fmt.Errorf("injector: %s init failed: %w", componentType, err)
		}
	} else if init, ok := instance.(types.Initializer); ok {
		if err := init.Init(); err != nil {
			return nil, fmt.Errorf("injector: %s init failed: %w", componentType, err)
		}
	}

	return instance, nil
}
