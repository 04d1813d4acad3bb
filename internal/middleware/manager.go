package middleware

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/wiredom/wiredom/internal/errors"
	"github.com/wiredom/wiredom/internal/logging"
	"github.com/wiredom/wiredom/internal/types"
)

// Manager holds the globally-registered middleware and executes them, in
// ascending priority order, against a (component, props, context) triple.
//
// Two collections are kept: direct instances, and (type, container) pairs
// whose instances are constructed fresh from the container on every chain
// execution, so middleware with per-request state never leaks across
// executions. The combined list is sorted at execution time, not at
// registration time; registrations made between executions are reflected in
// the next execution with no invalidation step.
//
// Mutation takes an exclusive lock. Execution snapshots both collections
// under the lock and releases it before running any user middleware, so a
// middleware may register further middleware reentrantly without deadlock.
type Manager struct {
	mu       sync.Mutex
	direct   []entry
	services []servicePair
	logger   logging.Logger
}

type servicePair struct {
	middlewareType reflect.Type
	container      types.Container
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l logging.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a middleware manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{logger: logging.NopLogger{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterMiddleware appends a middleware instance to the direct list. The
// structural contract is checked once here. No dedup is performed: the same
// instance registered twice executes twice.
func (m *Manager) RegisterMiddleware(mw Middleware) error {
	e, err := classify(mw)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.direct = append(m.direct, e)
	m.mu.Unlock()
	return nil
}

// RegisterMiddlewareService registers a middleware type for lazy, per-
// execution construction from the given container. The container must be a
// real service container; a nil container (including a typed nil) is a
// contract violation.
func (m *Manager) RegisterMiddlewareService(middlewareType reflect.Type, container types.Container) error {
	if middlewareType == nil {
		return errors.NewContractViolation(errors.CodeInvalidMiddleware,
			"middleware service type is nil")
	}
	if container == nil || isNilValue(container) {
		return errors.NewContractViolation(errors.CodeInvalidContainer,
			"middleware service container is nil; pass a service container, not a plain value")
	}

	m.mu.Lock()
	m.services = append(m.services, servicePair{middlewareType: middlewareType, container: container})
	m.mu.Unlock()
	return nil
}

// Count returns the number of registered middleware (direct and service).
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.direct) + len(m.services)
}

// Execute runs the chain synchronously. It returns the final props, or nil
// props and nil error when a middleware halted the chain. Reaching an async
// middleware on this path is a fatal mismatch error; middleware past the
// offender never run.
func (m *Manager) Execute(component interface{}, props Props, mctx Context) (Props, error) {
	chain, err := m.resolveChain()
	if err != nil {
		return nil, err
	}

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
			m.logger.Debug(context.Background(), "middleware halted chain", "middleware", e.name())
			return nil, nil
		}
		current = next
	}

	return current, nil
}

// ExecuteAsync runs the chain with async middleware awaited inline. Mixed
// chains execute in a single priority-ordered pass; async-ness does not
// create separate ordering tiers. Suspension occurs only at an async
// middleware call.
func (m *Manager) ExecuteAsync(ctx context.Context, component interface{}, props Props, mctx Context) (Props, error) {
	chain, err := m.resolveChain()
	if err != nil {
		return nil, err
	}

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
			m.logger.Debug(ctx, "middleware halted chain", "middleware", e.name())
			return nil, nil
		}
		current = next
	}

	return current, nil
}

// resolveChain snapshots the registrations, constructs service middleware
// fresh, and returns the combined list in ascending priority order. A
// registered service type that cannot be resolved is a runtime error, never
// silently skipped.
func (m *Manager) resolveChain() ([]entry, error) {
	m.mu.Lock()
	direct := make([]entry, len(m.direct))
	copy(direct, m.direct)
	services := make([]servicePair, len(m.services))
	copy(services, m.services)
	m.mu.Unlock()

	chain := direct
	for _, pair := range services {
		instance, err := pair.container.Get(pair.middlewareType)
		if err != nil {
			return nil, errors.NewServiceUnresolved(pair.middlewareType.String(), err)
		}

		mw, ok := instance.(Middleware)
		if !ok {
			return nil, errors.NewContractViolation(errors.CodeInvalidMiddleware,
				"resolved middleware service "+pair.middlewareType.String()+" does not satisfy the Middleware contract")
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

func isNilValue(v interface{}) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
