// Package renderer bridges resolved component instances to the templating
// engine. The engine itself is opaque to the resolution core: a component
// either is a templ.Component or exposes one via a View method, and the
// renderer only asks it to render.
package renderer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/wiredom/wiredom/internal/errors"
	"github.com/wiredom/wiredom/internal/injector"
	"github.com/wiredom/wiredom/internal/logging"
	"github.com/wiredom/wiredom/internal/lookup"
	"github.com/wiredom/wiredom/internal/middleware"
)

// Viewer is the contract for component instances that are not themselves
// templ components but produce one.
type Viewer interface {
	View() templ.Component
}

// ComponentRenderer resolves components by name and renders them to HTML.
type ComponentRenderer struct {
	lookup *lookup.ComponentLookup
	logger logging.Logger
}

// NewComponentRenderer creates a renderer over a component lookup.
func NewComponentRenderer(cl *lookup.ComponentLookup, logger logging.Logger) *ComponentRenderer {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &ComponentRenderer{lookup: cl, logger: logger}
}

// RenderByName looks up a component and renders it. Async components are
// awaited here: RenderByName is the end of the pipeline, so there is no
// caller left to hand the future to.
func (r *ComponentRenderer) RenderByName(ctx context.Context, name string, mctx middleware.Context) (string, error) {
	instance, err := r.lookup.Lookup(ctx, name, mctx)
	if err != nil {
		return "", err
	}

	if future, ok := instance.(*injector.Future); ok {
		instance, err = future.Await(ctx)
		if err != nil {
			return "", err
		}
	}

	var sb strings.Builder
	if err := r.RenderInstance(ctx, instance, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderInstance renders an already-constructed component instance to w.
func (r *ComponentRenderer) RenderInstance(ctx context.Context, instance interface{}, w io.Writer) error {
	component, err := componentOf(instance)
	if err != nil {
		return err
	}

	if err := component.Render(ctx, w); err != nil {
		return errors.NewRenderFailed(err)
	}
	return nil
}

func componentOf(instance interface{}) (templ.Component, error) {
	switch v := instance.(type) {
	case templ.Component:
		return v, nil
	case Viewer:
		return v.View(), nil
	default:
		return nil, fmt.Errorf("instance %T is neither a templ.Component nor a Viewer", instance)
	}
}
