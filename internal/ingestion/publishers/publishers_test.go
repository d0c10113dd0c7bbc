package publishers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangaalert/internal/config"
)

const planetMangaPage = `<html><body>
<ol class="products list">
  <li class="product-item">
    <div class="product-item-info">
      <a class="product-item-photo" href="https://www.panini.it/shp_ita_it/chainsaw-man-17.html"><img src="x.jpg"></a>
      <h3 class="product-item-name"><a class="product-item-link" href="https://www.panini.it/shp_ita_it/chainsaw-man-17.html">
        Chainsaw Man 17
      </a></h3>
      <div class="product-item-attribute-release-date">19/09/24</div>
    </div>
  </li>
  <li class="product-item">
    <div class="product-item-info">
      <h3 class="product-item-name"><a class="product-item-link" href="https://www.panini.it/shp_ita_it/chainsaw-man-16.html">Chainsaw Man 16</a></h3>
      <div class="product-item-attribute-release-date">11/07/24</div>
    </div>
  </li>
</ol>
</body></html>`

const starComicsPage = `<html><body>
<div class="row">
  <div class="fumetto-card card">
    <a href="/fumetto/solo-leveling-12"><img src="cover.jpg"></a>
    <div class="card-body">
      <h4 class="card-title">Solo Leveling 12</h4>
      <p class="card-text"><span class="text-secondary">03/10/2024</span></p>
    </div>
  </div>
  <div class="fumetto-card card">
    <a href="/fumetto/solo-leveling-11"><img src="cover.jpg"></a>
    <h4 class="card-title">Solo Leveling 11</h4>
    <p class="card-text"><span class="text-secondary">01/06/2024</span></p>
  </div>
</div>
</body></html>`

func planetEntry(url string) config.WatchEntry {
	return config.WatchEntry{Title: "Chainsaw Man", Publisher: "planet_manga", URL: url}
}

func TestPlanetMangaParse(t *testing.T) {
	src := NewPlanetManga(planetEntry(""), nil)

	c, err := src.Parse(planetMangaPage)
	require.NoError(t, err)
	assert.Equal(t, "Chainsaw Man 17", c.Title)
	assert.Equal(t, "https://www.panini.it/shp_ita_it/chainsaw-man-17.html", c.Link)
	assert.Equal(t, "19/09/24", c.ReleaseDate)
	assert.Equal(t, "Planet Manga", c.Publisher)
}

func TestPlanetMangaParseNoResults(t *testing.T) {
	src := NewPlanetManga(planetEntry(""), nil)

	_, err := src.Parse(`<html><body><p class="message notice">Nessun risultato</p></body></html>`)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlanetMangaParseMissingDate(t *testing.T) {
	src := NewPlanetManga(planetEntry(""), nil)

	page := `<div class="product-item-info">
		<h3 class="product-item-name"><a class="product-item-link" href="/x">Chainsaw Man 18</a></h3>
	</div>`
	_, err := src.Parse(page)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStarComicsParse(t *testing.T) {
	src := NewStarComics(config.WatchEntry{Title: "Solo Leveling", Publisher: "star_comics"}, nil)

	c, err := src.Parse(starComicsPage)
	require.NoError(t, err)
	assert.Equal(t, "Solo Leveling 12", c.Title)
	assert.Equal(t, "https://www.starcomics.com/fumetto/solo-leveling-12", c.Link)
	assert.Equal(t, "03/10/2024", c.ReleaseDate)
	assert.Equal(t, "Star Comics", c.Publisher)
}

func TestStarComicsParseMissingLink(t *testing.T) {
	src := NewStarComics(config.WatchEntry{Title: "Solo Leveling", Publisher: "star_comics"}, nil)

	page := `<div class="fumetto-card"><h4 class="card-title">Solo Leveling 12</h4>
		<p class="card-text"><span class="text-secondary">03/10/2024</span></p></div>`
	_, err := src.Parse(page)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewUnknownPublisher(t *testing.T) {
	_, err := New(config.WatchEntry{Title: "X", Publisher: "jpop"}, nil)
	assert.Error(t, err)
}

func TestFromWatchlist(t *testing.T) {
	sources, err := FromWatchlist(config.DefaultWatchlist(), NewFetcher(time.Second, 10))
	require.NoError(t, err)
	require.NotEmpty(t, sources)
	for _, s := range sources {
		assert.NotEmpty(t, s.Manga())
		assert.NotEmpty(t, s.Publisher())
	}
}

func TestPlanetMangaFetchSendsQuery(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, planetMangaPage)
	}))
	defer srv.Close()

	src := NewPlanetManga(planetEntry(srv.URL+"/search"), NewFetcher(time.Second, 100))
	raw, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "chainsaw man", gotQuery)
	assert.NotEmpty(t, gotUA)

	c, err := src.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Chainsaw Man 17", c.Title)
}

func TestFetcherRejectsNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, 100)
	_, err := f.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestFetcherHonorsContext(t *testing.T) {
	f := NewFetcher(time.Second, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Get(ctx, "http://127.0.0.1:1", nil)
	assert.Error(t, err)
}
