package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"mangaalert/internal/ingestion/publishers"
	"mangaalert/internal/models"
	"mangaalert/internal/repository"
)

// Ingestor turns a scraped candidate into a durable release row.
type Ingestor struct {
	releases repository.ReleaseRepository
	logger   *slog.Logger
}

func NewIngestor(releases repository.ReleaseRepository, logger *slog.Logger) *Ingestor {
	return &Ingestor{releases: releases, logger: logger}
}

// Ingest normalizes the candidate and stores it under mangaTitle. Re-ingesting
// the same page state is a no-op; created reports whether a new row was written.
func (i *Ingestor) Ingest(ctx context.Context, mangaTitle string, c *publishers.Candidate) (bool, error) {
	releaseDate, err := ParseReleaseDate(c.ReleaseDate)
	if err != nil {
		return false, err
	}

	release := &models.Release{
		Title:        mangaTitle,
		VolumeNumber: ExtractVolumeNumber(c.Title),
		ReleaseDate:  releaseDate,
		Publisher:    c.Publisher,
		PageLink:     c.Link,
	}
	if release.VolumeNumber == models.UnknownVolume {
		// distinct un-numbered volumes on the same date collapse into one row
		i.logger.Warn("volume_number_unknown", "manga", mangaTitle, "title", c.Title)
	}

	created, err := i.releases.InsertIfAbsent(ctx, release)
	if err != nil {
		return false, fmt.Errorf("ingest %s: %w", mangaTitle, err)
	}

	if created {
		i.logger.Info("release_recorded",
			"manga", mangaTitle,
			"volume", release.VolumeNumber,
			"release_date", release.ReleaseDate.Format("2006-01-02"),
			"publisher", release.Publisher,
		)
	} else {
		i.logger.Debug("release_already_known", "manga", mangaTitle, "volume", release.VolumeNumber)
	}
	return created, nil
}
