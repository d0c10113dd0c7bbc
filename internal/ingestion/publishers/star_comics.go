package publishers

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"mangaalert/internal/config"
)

const starComicsBaseURL = "https://www.starcomics.com"

// StarComics reads a series page on starcomics.com; the first card is the
// newest volume.
type StarComics struct {
	manga   string
	url     string
	fetcher *Fetcher
}

func NewStarComics(entry config.WatchEntry, fetcher *Fetcher) Source {
	return &StarComics{manga: entry.Title, url: entry.URL, fetcher: fetcher}
}

func (s *StarComics) Publisher() string { return "Star Comics" }
func (s *StarComics) Manga() string     { return s.manga }

func (s *StarComics) Fetch(ctx context.Context) (string, error) {
	return s.fetcher.Get(ctx, s.url, nil)
}

func (s *StarComics) Parse(raw string) (*Candidate, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	card := find(doc, "div", "fumetto-card")
	if card == nil {
		return nil, fmt.Errorf("%w: no cards for %q", ErrNotFound, s.manga)
	}

	c := &Candidate{
		Title:       text(find(card, "h4", "card-title")),
		ReleaseDate: text(find(find(card, "p", "card-text"), "span", "text-secondary")),
		Publisher:   s.Publisher(),
	}
	if link := find(card, "a", ""); link != nil {
		if href := attr(link, "href"); href != "" {
			c.Link = starComicsBaseURL + href
		}
	}

	if c.Title == "" || c.Link == "" || c.ReleaseDate == "" {
		return nil, fmt.Errorf("%w: missing data for %q", ErrNotFound, s.manga)
	}
	return c, nil
}
