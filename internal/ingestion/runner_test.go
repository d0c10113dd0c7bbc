package ingestion

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangaalert/internal/ingestion/publishers"
)

type stubSource struct {
	manga     string
	raw       string
	fetchErr  error
	candidate *publishers.Candidate
	parseErr  error
}

func (s *stubSource) Publisher() string { return "Stub" }
func (s *stubSource) Manga() string     { return s.manga }

func (s *stubSource) Fetch(context.Context) (string, error) {
	return s.raw, s.fetchErr
}

func (s *stubSource) Parse(string) (*publishers.Candidate, error) {
	return s.candidate, s.parseErr
}

func candidate(title, date string) *publishers.Candidate {
	return &publishers.Candidate{Title: title, ReleaseDate: date, Publisher: "Stub", Link: "https://example.com/" + title}
}

func TestRunnerIsolatesFailingSources(t *testing.T) {
	repo := &memReleases{failFor: "Broken Store"}
	sources := []publishers.Source{
		&stubSource{manga: "Chainsaw Man", candidate: candidate("Chainsaw Man 17", "19/09/24")},
		&stubSource{manga: "Offline", fetchErr: errors.New("dial tcp: timeout")},
		&stubSource{manga: "Jujutsu Kaisen", candidate: candidate("Jujutsu Kaisen 26", "12/11/2024")},
		&stubSource{manga: "Bad Date", candidate: candidate("Bad Date 1", "soon")},
		&stubSource{manga: "Empty Page", parseErr: fmt.Errorf("%w: no product items", publishers.ErrNotFound)},
		&stubSource{manga: "Broken Store", candidate: candidate("Broken Store 2", "01/01/2025")},
	}

	runner := NewRunner(sources, NewIngestor(repo, discardLogger()), 3, discardLogger())
	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunSummary{Sources: 6, Found: 2, Created: 2, Failed: 3}, summary)
	assert.Len(t, repo.rows, 2)
}

func TestRunnerSecondPassCreatesNothing(t *testing.T) {
	repo := &memReleases{}
	sources := []publishers.Source{
		&stubSource{manga: "Chainsaw Man", candidate: candidate("Chainsaw Man 17", "19/09/24")},
		&stubSource{manga: "Solo Leveling", candidate: candidate("Solo Leveling 12", "03/10/2024")},
	}
	runner := NewRunner(sources, NewIngestor(repo, discardLogger()), 2, discardLogger())

	first, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Found)
	assert.Equal(t, 0, second.Created)
	assert.Len(t, repo.rows, 2)
}

func TestRunnerReportsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner([]publishers.Source{&stubSource{manga: "X", candidate: candidate("X 1", "01/01/2025")}}, NewIngestor(&memReleases{}, discardLogger()), 1, discardLogger())
	_, err := runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
