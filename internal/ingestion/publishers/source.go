// Package publishers fetches publisher catalog pages and extracts the latest
// release listed for a manga. Each publisher layout is one Source variant,
// picked from a registry by the watchlist's publisher key.
package publishers

import (
	"context"
	"errors"
	"fmt"

	"mangaalert/internal/config"
)

// ErrNotFound means the page was fetched but shows no usable release. It is
// distinct from fetch errors.
var ErrNotFound = errors.New("no release found")

// Candidate is the raw, unnormalized release read from a page.
type Candidate struct {
	Title       string // display title, usually ends with the volume number
	Link        string
	ReleaseDate string // locale date text, e.g. "19/09/24"
	Publisher   string
}

// Source is one manga tracked on one publisher site.
type Source interface {
	Publisher() string
	Manga() string
	Fetch(ctx context.Context) (string, error)
	Parse(raw string) (*Candidate, error)
}

type constructor func(entry config.WatchEntry, fetcher *Fetcher) Source

var variants = map[string]constructor{
	"planet_manga": NewPlanetManga,
	"star_comics":  NewStarComics,
}

// New builds the source variant registered for entry.Publisher.
func New(entry config.WatchEntry, fetcher *Fetcher) (Source, error) {
	build, ok := variants[entry.Publisher]
	if !ok {
		return nil, fmt.Errorf("unsupported publisher %q", entry.Publisher)
	}
	return build(entry, fetcher), nil
}

// FromWatchlist builds one source per watchlist entry.
func FromWatchlist(wl *config.Watchlist, fetcher *Fetcher) ([]Source, error) {
	sources := make([]Source, 0, len(wl.Entries))
	for _, entry := range wl.Entries {
		src, err := New(entry, fetcher)
		if err != nil {
			return nil, fmt.Errorf("watchlist entry %s: %w", entry.Title, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
