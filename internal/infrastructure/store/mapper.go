package store

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/grocerylens/backend/internal/domain"
)

// imageAttributes are tried in order; lazy-loading pages keep the real URL in data attributes
var imageAttributes = []string{"src", "data-src", "data-lazy-src", "srcset"}

// mapListing converts one result item into a RawListing.
// Returns false when the item has no name.
func mapListing(e *colly.HTMLElement, config Config) (domain.RawListing, bool) {
	name := cleanText(e.ChildText(config.NameSelector))
	if name == "" {
		return domain.RawListing{}, false
	}

	listing := domain.RawListing{
		SourceStore: config.Name,
		DisplayName: name,
	}
	if config.PriceSelector != "" {
		listing.PriceText = cleanText(e.DOM.Find(config.PriceSelector).First().Text())
	}
	if config.ImageSelector != "" {
		if src := imageSource(e.DOM.Find(config.ImageSelector).First()); src != "" {
			listing.ImageURL = e.Request.AbsoluteURL(src)
		}
	}
	if href := linkTarget(e.DOM, config.LinkSelector); href != "" {
		listing.ProductURL = e.Request.AbsoluteURL(href)
	}

	return listing, true
}

// imageSource returns the first usable image URL of an <img> selection
func imageSource(sel *goquery.Selection) string {
	for _, attr := range imageAttributes {
		value, ok := sel.Attr(attr)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if attr == "srcset" {
			value, _, _ = strings.Cut(value, " ")
		}
		if value != "" && !strings.HasPrefix(value, "data:") {
			return value
		}
	}
	return ""
}

// linkTarget returns the href of the item's link. Without a selector the item
// itself or its first anchor is used.
func linkTarget(item *goquery.Selection, selector string) string {
	if selector != "" {
		href, _ := item.Find(selector).First().Attr("href")
		return strings.TrimSpace(href)
	}
	if href, ok := item.Attr("href"); ok {
		return strings.TrimSpace(href)
	}
	href, _ := item.Find("a[href]").First().Attr("href")
	return strings.TrimSpace(href)
}

// cleanText collapses the whitespace of scraped text
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
