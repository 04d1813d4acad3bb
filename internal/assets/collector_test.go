package assets

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_FindsCommonReferences(t *testing.T) {
	input := `<div>
		<img src="/static/logo.png" alt="logo">
		<script src="/static/app.js"></script>
		<link rel="stylesheet" href="/static/site.css">
	</div>`

	c := NewCollector()
	got, err := c.Collect(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []Asset{
		{Tag: "img", Attr: "src", URL: "/static/logo.png"},
		{Tag: "script", Attr: "src", URL: "/static/app.js"},
		{Tag: "link", Attr: "href", URL: "/static/site.css"},
	}, got)
}

func TestCollect_SrcsetAndPoster(t *testing.T) {
	input := `<img src="a.png" srcset="a.png 1x, a@2x.png 2x"><video src="v.mp4" poster="p.jpg"></video>`

	c := NewCollector()
	got, err := c.Collect(strings.NewReader(input))
	require.NoError(t, err)

	urls := make([]string, len(got))
	for i, a := range got {
		urls[i] = a.URL
	}
	assert.Contains(t, urls, "a.png")
	assert.Contains(t, urls, "a.png 1x, a@2x.png 2x")
	assert.Contains(t, urls, "v.mp4")
	assert.Contains(t, urls, "p.jpg")
}

func TestCollect_IgnoresEmptyAndUnrelatedAttributes(t *testing.T) {
	input := `<img src=""><a href="/page">link</a><div data="x"></div>`

	c := NewCollector()
	got, err := c.Collect(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCollect_NestedDocumentOrder(t *testing.T) {
	input := `<section><article><img src="first.png"></article><img src="second.png"></section>`

	c := NewCollector()
	got, err := c.Collect(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first.png", got[0].URL)
	assert.Equal(t, "second.png", got[1].URL)
}

func TestCollectComponent(t *testing.T) {
	component := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<img src="/avatars/1.png">`)
		return err
	})

	c := NewCollector()
	got, err := c.CollectComponent(context.Background(), component)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Asset{Tag: "img", Attr: "src", URL: "/avatars/1.png"}, got[0])
}

func TestCollectComponent_RenderError(t *testing.T) {
	component := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return fmt.Errorf("render blew up")
	})

	c := NewCollector()
	_, err := c.CollectComponent(context.Background(), component)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render blew up")
}
