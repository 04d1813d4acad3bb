// Package assets collects asset references from rendered component HTML.
// It walks the parsed node tree looking for src and href attributes; the
// resolution core never inspects node structure itself, so this collector
// is the only place that does.
package assets

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"
)

// Asset is a single asset reference found in rendered output.
type Asset struct {
	// Tag is the element the reference was found on (img, link, script...).
	Tag string
	// Attr is the attribute carrying the reference (src, href, srcset).
	Attr string
	// URL is the raw attribute value.
	URL string
}

// refAttrs maps element names to the attributes that carry asset references.
var refAttrs = map[string][]string{
	"img":    {"src", "srcset"},
	"script": {"src"},
	"link":   {"href"},
	"source": {"src", "srcset"},
	"video":  {"src", "poster"},
	"audio":  {"src"},
	"iframe": {"src"},
	"embed":  {"src"},
	"object": {"data"},
}

// Collector walks rendered HTML for asset references.
type Collector struct{}

// NewCollector creates an asset collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Collect parses HTML from r and returns every asset reference found, in
// document order.
func (c *Collector) Collect(r io.Reader) ([]Asset, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var found []Asset
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attrs, ok := refAttrs[n.Data]; ok {
				for _, want := range attrs {
					for _, a := range n.Attr {
						if a.Key == want && a.Val != "" {
							found = append(found, Asset{Tag: n.Data, Attr: a.Key, URL: a.Val})
						}
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return found, nil
}

// CollectComponent renders a component and collects its asset references.
func (c *Collector) CollectComponent(ctx context.Context, component templ.Component) ([]Asset, error) {
	var sb strings.Builder
	if err := component.Render(ctx, &sb); err != nil {
		return nil, err
	}
	return c.Collect(strings.NewReader(sb.String()))
}
