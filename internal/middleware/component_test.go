package middleware

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wireerrors "github.com/wiredom/wiredom/internal/errors"
)

type fakeComponent struct{}

type phaseRecorder struct {
	priority int
	label    string
	log      *[]string
}

func (p *phaseRecorder) Priority() int { return p.priority }

func (p *phaseRecorder) Handle(component interface{}, props Props, mctx Context) (Props, error) {
	*p.log = append(*p.log, p.label)
	props[p.label] = true
	return props, nil
}

type phaseHalter struct{}

func (phaseHalter) Priority() int { return 0 }

func (phaseHalter) Handle(component interface{}, props Props, mctx Context) (Props, error) {
	return nil, nil
}

func TestComponentMiddlewareRegistry_GetEmptyForUnknown(t *testing.T) {
	reg := NewComponentMiddlewareRegistry()

	phases := reg.Get(reflect.TypeOf(fakeComponent{}))
	assert.NotNil(t, phases)
	assert.Empty(t, phases)
}

func TestComponentMiddlewareRegistry_AttachOverwrites(t *testing.T) {
	reg := NewComponentMiddlewareRegistry()
	component := reflect.TypeOf(fakeComponent{})
	mwType := reflect.TypeOf(&phaseRecorder{})

	reg.Attach(component, map[string][]reflect.Type{
		PhasePreResolution: {mwType},
		PhaseRendering:     {mwType},
	})
	reg.Attach(component, map[string][]reflect.Type{
		PhasePreResolution: {mwType},
	})

	phases := reg.Get(component)
	assert.Len(t, phases, 1)
	assert.Len(t, phases[PhasePreResolution], 1)
	assert.NotContains(t, phases, PhaseRendering)
}

func TestComponentMiddlewareRegistry_ExecutePriorityOrderAndFreshState(t *testing.T) {
	reg := NewComponentMiddlewareRegistry()
	component := reflect.TypeOf(fakeComponent{})
	container := newServiceContainer()

	var log []string
	lowType := reflect.TypeOf(&phaseRecorder{})
	container.register(lowType, func() interface{} {
		return &phaseRecorder{priority: -5, label: "low", log: &log}
	})

	highType := reflect.TypeOf(&statefulService{})
	container.register(highType, func() interface{} { return &statefulService{} })

	reg.Attach(component, map[string][]reflect.Type{
		PhasePreResolution: {highType, lowType},
	})

	props, err := reg.Execute(component, Props{}, container, PhasePreResolution)
	require.NoError(t, err)
	assert.Equal(t, []string{"low"}, log)
	assert.Equal(t, 1, props["calls"])

	// Fresh instances on every call: the stateful service starts over.
	props, err = reg.Execute(component, Props{}, container, PhasePreResolution)
	require.NoError(t, err)
	assert.Equal(t, 1, props["calls"])
}

func TestComponentMiddlewareRegistry_UnknownPhaseRunsNothing(t *testing.T) {
	reg := NewComponentMiddlewareRegistry()
	component := reflect.TypeOf(fakeComponent{})

	props, err := reg.Execute(component, Props{"kept": true}, newServiceContainer(), "rendering")
	require.NoError(t, err)
	assert.Equal(t, Props{"kept": true}, props)
}

func TestComponentMiddlewareRegistry_HaltAndErrors(t *testing.T) {
	reg := NewComponentMiddlewareRegistry()
	component := reflect.TypeOf(fakeComponent{})
	container := newServiceContainer()

	haltType := reflect.TypeOf(phaseHalter{})
	container.register(haltType, func() interface{} { return phaseHalter{} })
	reg.Attach(component, map[string][]reflect.Type{PhasePreResolution: {haltType}})

	props, err := reg.Execute(component, Props{}, container, PhasePreResolution)
	require.NoError(t, err)
	assert.Nil(t, props)

	// Unresolvable middleware type is a runtime error, not a silent skip.
	missingType := reflect.TypeOf(&phaseRecorder{})
	reg.Attach(component, map[string][]reflect.Type{PhasePreResolution: {missingType}})
	_, err = reg.Execute(component, Props{}, container, PhasePreResolution)
	require.Error(t, err)
	var we *wireerrors.WireError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, wireerrors.CodeServiceUnresolved, we.Code)
}

func TestComponentMiddlewareRegistry_ExecuteAsync(t *testing.T) {
	reg := NewComponentMiddlewareRegistry()
	component := reflect.TypeOf(fakeComponent{})
	container := newServiceContainer()

	var log []string
	asyncType := reflect.TypeOf(&asyncRecorder{})
	container.register(asyncType, func() interface{} {
		return &asyncRecorder{priority: 0, label: "async", log: &log}
	})
	reg.Attach(component, map[string][]reflect.Type{PhasePreResolution: {asyncType}})

	// The sync entry point refuses async middleware.
	_, err := reg.Execute(component, Props{}, container, PhasePreResolution)
	require.Error(t, err)

	props, err := reg.ExecuteAsync(context.Background(), component, Props{}, container, PhasePreResolution)
	require.NoError(t, err)
	assert.Equal(t, []string{"async"}, log)
	assert.Equal(t, true, props["async"])
}

func TestComponentMiddlewareRegistry_ContextExposesContainer(t *testing.T) {
	reg := NewComponentMiddlewareRegistry()
	component := reflect.TypeOf(fakeComponent{})
	container := newServiceContainer()

	var seen interface{}
	probeType := reflect.TypeOf(SyncFunc{})
	container.register(probeType, func() interface{} {
		return SyncFunc{Order: 0, Fn: func(component interface{}, props Props, mctx Context) (Props, error) {
			seen, _ = mctx.Value(ContainerKey)
			return props, nil
		}}
	})
	reg.Attach(component, map[string][]reflect.Type{PhasePreResolution: {probeType}})

	_, err := reg.Execute(component, Props{}, container, PhasePreResolution)
	require.NoError(t, err)
	assert.Equal(t, container, seen)
}
