package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mangaalert/internal/models"
)

type ReleaseRepository interface {
	// InsertIfAbsent stores the release unless one with the same
	// (title, volume_number, release_date) exists. created reports whether a row was written.
	InsertIfAbsent(ctx context.Context, release *models.Release) (created bool, err error)
	// FindBetween returns releases dated in [from, to], both inclusive, ordered by date.
	FindBetween(ctx context.Context, from, to time.Time) ([]models.Release, error)
	LatestForTitle(ctx context.Context, title string) (*models.Release, error)
}

type releaseRepository struct {
	db *gorm.DB
}

func NewReleaseRepository(db *gorm.DB) ReleaseRepository {
	return &releaseRepository{db: db}
}

func (r *releaseRepository) InsertIfAbsent(ctx context.Context, release *models.Release) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "manga_title"}, {Name: "volume_number"}, {Name: "release_date"}},
			DoNothing: true,
		}).
		Create(release)
	if result.Error != nil {
		return false, fmt.Errorf("insert release: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *releaseRepository) FindBetween(ctx context.Context, from, to time.Time) ([]models.Release, error) {
	var releases []models.Release
	if err := r.db.WithContext(ctx).
		Where("release_date BETWEEN ? AND ?", from, to).
		Order("release_date ASC, id ASC").
		Find(&releases).Error; err != nil {
		return nil, fmt.Errorf("find releases between %s and %s: %w", from.Format(time.DateOnly), to.Format(time.DateOnly), err)
	}
	return releases, nil
}

func (r *releaseRepository) LatestForTitle(ctx context.Context, title string) (*models.Release, error) {
	var release models.Release
	err := r.db.WithContext(ctx).
		Where("manga_title = ?", title).
		Order("release_date DESC").
		First(&release).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest release for %s: %w", title, err)
	}
	return &release, nil
}
