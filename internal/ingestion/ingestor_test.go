package ingestion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangaalert/internal/ingestion/publishers"
	"mangaalert/internal/models"
	"mangaalert/internal/repository"
)

// memReleases is an in-memory ReleaseRepository keyed like the real table.
type memReleases struct {
	mu      sync.Mutex
	rows    []models.Release
	failFor string
}

var _ repository.ReleaseRepository = (*memReleases)(nil)

func (m *memReleases) InsertIfAbsent(_ context.Context, r *models.Release) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor != "" && r.Title == m.failFor {
		return false, errors.New("connection reset")
	}
	for _, row := range m.rows {
		if row.Title == r.Title && row.VolumeNumber == r.VolumeNumber && row.ReleaseDate.Equal(r.ReleaseDate) {
			return false, nil
		}
	}
	r.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *r)
	return true, nil
}

func (m *memReleases) FindBetween(_ context.Context, from, to time.Time) ([]models.Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Release
	for _, row := range m.rows {
		if !row.ReleaseDate.Before(from) && !row.ReleaseDate.After(to) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memReleases) LatestForTitle(_ context.Context, title string) (*models.Release, error) {
	return nil, repository.ErrNotFound
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func chainsawCandidate() *publishers.Candidate {
	return &publishers.Candidate{
		Title:       "Chainsaw Man 17",
		Link:        "https://www.panini.it/shp_ita_it/chainsaw-man-17.html",
		ReleaseDate: "19/09/24",
		Publisher:   "Planet Manga",
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	repo := &memReleases{}
	ing := NewIngestor(repo, discardLogger())
	ctx := context.Background()

	created, err := ing.Ingest(ctx, "Chainsaw Man", chainsawCandidate())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = ing.Ingest(ctx, "Chainsaw Man", chainsawCandidate())
	require.NoError(t, err)
	assert.False(t, created)

	require.Len(t, repo.rows, 1)
	row := repo.rows[0]
	assert.Equal(t, "Chainsaw Man", row.Title)
	assert.Equal(t, "17", row.VolumeNumber)
	assert.Equal(t, time.Date(2024, 9, 19, 0, 0, 0, 0, time.UTC), row.ReleaseDate)
	assert.Equal(t, "Planet Manga", row.Publisher)
	assert.False(t, row.AlertSent)
}

func TestIngestRejectsBadDate(t *testing.T) {
	repo := &memReleases{}
	ing := NewIngestor(repo, discardLogger())

	c := chainsawCandidate()
	c.ReleaseDate = "Prossimamente"

	_, err := ing.Ingest(context.Background(), "Chainsaw Man", c)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Empty(t, repo.rows)
}

func TestIngestPropagatesStoreError(t *testing.T) {
	repo := &memReleases{failFor: "Chainsaw Man"}
	ing := NewIngestor(repo, discardLogger())

	_, err := ing.Ingest(context.Background(), "Chainsaw Man", chainsawCandidate())
	assert.ErrorContains(t, err, "connection reset")
}

// Titles without a trailing number all map to the Unknown volume, so two
// different specials released on the same day collapse into one row.
func TestIngestUnknownVolumeCollision(t *testing.T) {
	repo := &memReleases{}
	ing := NewIngestor(repo, discardLogger())
	ctx := context.Background()

	first := &publishers.Candidate{Title: "Chainsaw Man Artbook", ReleaseDate: "10/10/2024", Publisher: "Planet Manga", Link: "a"}
	second := &publishers.Candidate{Title: "Chainsaw Man Box", ReleaseDate: "10/10/2024", Publisher: "Planet Manga", Link: "b"}

	created, err := ing.Ingest(ctx, "Chainsaw Man", first)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = ing.Ingest(ctx, "Chainsaw Man", second)
	require.NoError(t, err)
	assert.False(t, created)

	require.Len(t, repo.rows, 1)
	assert.Equal(t, models.UnknownVolume, repo.rows[0].VolumeNumber)
	assert.Equal(t, "a", repo.rows[0].PageLink)
}
