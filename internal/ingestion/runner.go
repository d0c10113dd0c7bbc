package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"mangaalert/internal/ingestion/publishers"
)

// RunSummary counts the outcome of one scrape pass.
type RunSummary struct {
	Sources int `json:"sources"`
	Found   int `json:"found"`   // sources whose page showed a release
	Created int `json:"created"` // releases that were new to the store
	Failed  int `json:"failed"`  // fetch, parse or store errors
}

// Runner scrapes every source once and feeds the results to the Ingestor.
type Runner struct {
	sources  []publishers.Source
	ingestor *Ingestor
	workers  int
	logger   *slog.Logger
}

func NewRunner(sources []publishers.Source, ingestor *Ingestor, workers int, logger *slog.Logger) *Runner {
	return &Runner{sources: sources, ingestor: ingestor, workers: workers, logger: logger}
}

// Run processes all sources. A failing source is logged and counted; it never
// stops the others. The returned error is only set when ctx ends the pass early.
func (r *Runner) Run(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{Sources: len(r.sources)}
	var mu sync.Mutex

	pool := NewWorkerPool(ctx, r.workers, r.logger)
	pool.Start()

	for _, src := range r.sources {
		submitted := pool.Submit(func(ctx context.Context) error {
			created, err := r.scrape(ctx, src)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, publishers.ErrNotFound):
				r.logger.Warn("release_not_found", "manga", src.Manga(), "publisher", src.Publisher(), "error", err)
			case err != nil:
				summary.Failed++
				r.logger.Error("source_failed", "manga", src.Manga(), "publisher", src.Publisher(), "error", err)
			default:
				summary.Found++
				if created {
					summary.Created++
				}
			}
			return err
		})
		if !submitted {
			break
		}
	}
	pool.Wait()

	r.logger.Info("scrape_pass_completed",
		"sources", summary.Sources,
		"found", summary.Found,
		"created", summary.Created,
		"failed", summary.Failed,
	)

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("scrape pass interrupted: %w", err)
	}
	return summary, nil
}

func (r *Runner) scrape(ctx context.Context, src publishers.Source) (bool, error) {
	raw, err := src.Fetch(ctx)
	if err != nil {
		return false, fmt.Errorf("fetch: %w", err)
	}
	candidate, err := src.Parse(raw)
	if err != nil {
		return false, err
	}
	return r.ingestor.Ingest(ctx, src.Manga(), candidate)
}
