package di

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type database struct {
	DSN string
}

type cache struct {
	DB *database
}

type pinger interface {
	Ping() string
}

type redisPinger struct{}

func (redisPinger) Ping() string { return "pong" }

func TestContainer_RegisterValue(t *testing.T) {
	c := NewContainer()
	db := &database{DSN: "postgres://localhost"}
	c.RegisterValue(db)

	got, err := c.Get(reflect.TypeOf(db))
	require.NoError(t, err)
	assert.Same(t, db, got)
}

func TestContainer_RegisterValueAs(t *testing.T) {
	c := NewContainer()
	p := redisPinger{}
	c.RegisterValueAs(reflect.TypeOf((*pinger)(nil)).Elem(), p)

	got, err := c.Get(reflect.TypeOf((*pinger)(nil)).Elem())
	require.NoError(t, err)
	assert.Equal(t, "pong", got.(pinger).Ping())
}

func TestContainer_GetUnregistered(t *testing.T) {
	c := NewContainer()

	_, err := c.Get(reflect.TypeOf(&database{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no service registered")
}

func TestContainer_GetNilType(t *testing.T) {
	c := NewContainer()

	_, err := c.Get(nil)
	require.Error(t, err)
}

func TestContainer_FactoryIsTransient(t *testing.T) {
	c := NewContainer()
	var calls int32
	c.RegisterFactory(reflect.TypeOf(&database{}), func(Resolver) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return &database{}, nil
	})

	first, err := c.Get(reflect.TypeOf(&database{}))
	require.NoError(t, err)
	second, err := c.Get(reflect.TypeOf(&database{}))
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestContainer_SingletonCachesInstance(t *testing.T) {
	c := NewContainer()
	var calls int32
	c.RegisterSingleton(reflect.TypeOf(&database{}), func(Resolver) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return &database{}, nil
	})

	first, err := c.Get(reflect.TypeOf(&database{}))
	require.NoError(t, err)
	second, err := c.Get(reflect.TypeOf(&database{}))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestContainer_SingletonConcurrentCreation(t *testing.T) {
	c := NewContainer()
	var calls int32
	c.RegisterSingleton(reflect.TypeOf(&database{}), func(Resolver) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return &database{}, nil
	})

	const workers = 16
	results := make([]interface{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := c.Get(reflect.TypeOf(&database{}))
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i := 1; i < workers; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestContainer_SingletonFailureReachesConcurrentWaiters(t *testing.T) {
	c := NewContainer()
	started := make(chan struct{})
	c.RegisterSingleton(reflect.TypeOf(&database{}), func(Resolver) (interface{}, error) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		return nil, fmt.Errorf("boom")
	})

	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Get(reflect.TypeOf(&database{}))
		firstErr <- err
	}()

	// Issue a second Get while the first creation is in flight; it parks on
	// the same creation and must see the same failure, never (nil, nil).
	<-started
	got, err := c.Get(reflect.TypeOf(&database{}))
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "boom")

	require.Error(t, <-firstErr)
}

func TestContainer_FactoryResolvesDependencies(t *testing.T) {
	c := NewContainer()
	c.RegisterValue(&database{DSN: "sqlite://"})
	c.RegisterFactory(reflect.TypeOf(&cache{}), func(r Resolver) (interface{}, error) {
		dep, err := r.Get(reflect.TypeOf(&database{}))
		if err != nil {
			return nil, err
		}
		return &cache{DB: dep.(*database)}, nil
	})

	got, err := c.Get(reflect.TypeOf(&cache{}))
	require.NoError(t, err)
	assert.Equal(t, "sqlite://", got.(*cache).DB.DSN)
}

func TestContainer_CircularDependency(t *testing.T) {
	c := NewContainer()
	c.RegisterFactory(reflect.TypeOf(&database{}), func(r Resolver) (interface{}, error) {
		return r.Get(reflect.TypeOf(&cache{}))
	})
	c.RegisterFactory(reflect.TypeOf(&cache{}), func(r Resolver) (interface{}, error) {
		return r.Get(reflect.TypeOf(&database{}))
	})

	_, err := c.Get(reflect.TypeOf(&database{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func TestContainer_FactoryError(t *testing.T) {
	c := NewContainer()
	c.RegisterFactory(reflect.TypeOf(&database{}), func(Resolver) (interface{}, error) {
		return nil, fmt.Errorf("connection refused")
	})

	_, err := c.Get(reflect.TypeOf(&database{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestContainer_SingletonFactoryErrorRetries(t *testing.T) {
	c := NewContainer()
	var calls int32
	c.RegisterSingleton(reflect.TypeOf(&database{}), func(Resolver) (interface{}, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, fmt.Errorf("not ready")
		}
		return &database{}, nil
	})

	_, err := c.Get(reflect.TypeOf(&database{}))
	require.Error(t, err)

	// A failed creation is not cached; the next Get tries again.
	got, err := c.Get(reflect.TypeOf(&database{}))
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestContainer_InterfaceFallback(t *testing.T) {
	c := NewContainer()
	c.RegisterValue(redisPinger{})

	got, err := c.Get(reflect.TypeOf((*pinger)(nil)).Elem())
	require.NoError(t, err)
	assert.Equal(t, "pong", got.(pinger).Ping())
}

func TestContainer_ExactMatchBeatsFallback(t *testing.T) {
	c := NewContainer()
	c.RegisterValue(redisPinger{})
	c.RegisterValueAs(reflect.TypeOf((*pinger)(nil)).Elem(), redisPinger{})

	has := c.Has(reflect.TypeOf((*pinger)(nil)).Elem())
	assert.True(t, has)
}

func TestContainer_ReRegistrationReplacesSingleton(t *testing.T) {
	c := NewContainer()
	c.RegisterSingleton(reflect.TypeOf(&database{}), func(Resolver) (interface{}, error) {
		return &database{DSN: "old"}, nil
	})

	first, err := c.Get(reflect.TypeOf(&database{}))
	require.NoError(t, err)
	assert.Equal(t, "old", first.(*database).DSN)

	c.RegisterSingleton(reflect.TypeOf(&database{}), func(Resolver) (interface{}, error) {
		return &database{DSN: "new"}, nil
	})

	second, err := c.Get(reflect.TypeOf(&database{}))
	require.NoError(t, err)
	assert.Equal(t, "new", second.(*database).DSN)
}

func TestContainer_Has(t *testing.T) {
	c := NewContainer()
	assert.False(t, c.Has(reflect.TypeOf(&database{})))

	c.RegisterValue(&database{})
	assert.True(t, c.Has(reflect.TypeOf(&database{})))
}

func TestContainer_MustGetPanics(t *testing.T) {
	c := NewContainer()
	assert.Panics(t, func() {
		c.MustGet(reflect.TypeOf(&database{}))
	})
}

func TestContainer_ListServices(t *testing.T) {
	c := NewContainer()
	c.RegisterValue(&database{})
	c.RegisterValue(&cache{})

	services := c.ListServices()
	assert.Len(t, services, 2)
	assert.Contains(t, services, reflect.TypeOf(&database{}))
	assert.Contains(t, services, reflect.TypeOf(&cache{}))
}
