package store

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selection(t *testing.T, html, selector string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Find(selector).First()
}

func TestImageSource(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{name: "src", html: `<img src="/a.jpg">`, want: "/a.jpg"},
		{name: "lazy data-src over placeholder", html: `<img src="data:image/gif;base64,AAA" data-src="/b.jpg">`, want: "/b.jpg"},
		{name: "data-lazy-src", html: `<img data-lazy-src="/c.jpg">`, want: "/c.jpg"},
		{name: "first srcset candidate", html: `<img srcset="/d-1x.jpg 1x, /d-2x.jpg 2x">`, want: "/d-1x.jpg"},
		{name: "empty src falls through", html: `<img src=" " data-src="/e.jpg">`, want: "/e.jpg"},
		{name: "no image", html: `<div></div>`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, imageSource(selection(t, tt.html, "img")))
		})
	}
}

func TestLinkTarget(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		selector string
		want     string
	}{
		{name: "selector", html: `<div class="item"><a class="x" href="/one">1</a><a class="y" href="/two">2</a></div>`, selector: "a.y", want: "/two"},
		{name: "first anchor", html: `<div class="item"><a href="/one">1</a><a href="/two">2</a></div>`, want: "/one"},
		{name: "item is the anchor", html: `<a class="item" href="/self">x</a>`, want: "/self"},
		{name: "no link", html: `<div class="item">x</div>`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := selection(t, tt.html, ".item")
			assert.Equal(t, tt.want, linkTarget(item, tt.selector))
		})
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Almarai Fresh Milk 1L", cleanText("\n  Almarai   Fresh\tMilk\n 1L  "))
	assert.Equal(t, "", cleanText("   "))
}
