package publishers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"mangaalert/internal/config"
)

// PlanetManga reads the panini.it catalog search, which lists the newest
// product first.
type PlanetManga struct {
	manga   string
	url     string
	fetcher *Fetcher
}

func NewPlanetManga(entry config.WatchEntry, fetcher *Fetcher) Source {
	return &PlanetManga{manga: entry.Title, url: entry.URL, fetcher: fetcher}
}

func (p *PlanetManga) Publisher() string { return "Planet Manga" }
func (p *PlanetManga) Manga() string     { return p.manga }

func (p *PlanetManga) Fetch(ctx context.Context) (string, error) {
	return p.fetcher.Get(ctx, p.url, url.Values{"q": {strings.ToLower(p.manga)}})
}

func (p *PlanetManga) Parse(raw string) (*Candidate, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	item := find(doc, "div", "product-item-info")
	if item == nil {
		return nil, fmt.Errorf("%w: no product items for %q", ErrNotFound, p.manga)
	}

	c := &Candidate{
		Title:       text(find(item, "h3", "product-item-name")),
		ReleaseDate: text(find(item, "div", "product-item-attribute-release-date")),
		Publisher:   p.Publisher(),
	}
	if link := find(item, "a", "product-item-link"); link != nil {
		c.Link = attr(link, "href")
	}

	if c.Title == "" || c.Link == "" || c.ReleaseDate == "" {
		return nil, fmt.Errorf("%w: missing data for %q", ErrNotFound, p.manga)
	}
	return c, nil
}
