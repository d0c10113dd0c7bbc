package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// WatchEntry is one manga tracked on one publisher website.
type WatchEntry struct {
	Title     string `toml:"title"`
	Publisher string `toml:"publisher"` // planet_manga | star_comics
	URL       string `toml:"url"`
}

// Watchlist is the set of scraped sources. Its titles double as the catalog of
// titles users may subscribe to.
type Watchlist struct {
	Entries []WatchEntry `toml:"manga"`
}

// DefaultWatchlist is used when no watchlist file exists.
func DefaultWatchlist() *Watchlist {
	return &Watchlist{Entries: []WatchEntry{
		{Title: "Jujutsu Kaisen", Publisher: "planet_manga", URL: "https://www.panini.it/shp_ita_it/catalogsearch/result/"},
		{Title: "Chainsaw Man", Publisher: "planet_manga", URL: "https://www.panini.it/shp_ita_it/catalogsearch/result/"},
		{Title: "Solo Leveling", Publisher: "star_comics", URL: "https://www.starcomics.com/titoli-fumetti/solo-leveling"},
	}}
}

// LoadWatchlist reads the TOML watchlist at path, falling back to the
// built-in list when the file does not exist.
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultWatchlist(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	return ParseWatchlist(data)
}

// ParseWatchlist decodes and validates TOML watchlist content.
func ParseWatchlist(data []byte) (*Watchlist, error) {
	var wl Watchlist
	if err := toml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("decode watchlist: %w", err)
	}
	if err := wl.Validate(); err != nil {
		return nil, err
	}
	return &wl, nil
}

// Validate checks every entry has the fields a scraper needs.
func (w *Watchlist) Validate() error {
	if len(w.Entries) == 0 {
		return errors.New("watchlist is empty")
	}
	for i, e := range w.Entries {
		if strings.TrimSpace(e.Title) == "" {
			return fmt.Errorf("watchlist entry %d: title is required", i)
		}
		if strings.TrimSpace(e.URL) == "" {
			return fmt.Errorf("watchlist entry %d (%s): url is required", i, e.Title)
		}
		if e.Publisher != "planet_manga" && e.Publisher != "star_comics" {
			return fmt.Errorf("watchlist entry %d (%s): unsupported publisher %q", i, e.Title, e.Publisher)
		}
	}
	return nil
}

// Titles returns the distinct titles in watchlist order.
func (w *Watchlist) Titles() []string {
	seen := make(map[string]bool, len(w.Entries))
	titles := make([]string, 0, len(w.Entries))
	for _, e := range w.Entries {
		if seen[e.Title] {
			continue
		}
		seen[e.Title] = true
		titles = append(titles, e.Title)
	}
	return titles
}
