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

// AlertLedger records which (release, alert type, recipient) reminders went out.
type AlertLedger interface {
	IsSent(ctx context.Context, releaseID int64, alertType models.AlertType, email string) (bool, error)
	// MarkSent is an insert-or-set-true upsert.
	MarkSent(ctx context.Context, releaseID int64, alertType models.AlertType, email string) error
	ForRelease(ctx context.Context, releaseID int64) ([]models.AlertRecord, error)
}

type alertLedger struct {
	db *gorm.DB
}

func NewAlertLedger(db *gorm.DB) AlertLedger {
	return &alertLedger{db: db}
}

func (l *alertLedger) IsSent(ctx context.Context, releaseID int64, alertType models.AlertType, email string) (bool, error) {
	var record models.AlertRecord
	err := l.db.WithContext(ctx).
		Select("alert_sent").
		Where("release_id = ? AND alert_type = ? AND email_address = ?", releaseID, alertType, email).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check alert ledger: %w", err)
	}
	return record.AlertSent, nil
}

func (l *alertLedger) MarkSent(ctx context.Context, releaseID int64, alertType models.AlertType, email string) error {
	record := models.AlertRecord{
		ReleaseID:    releaseID,
		AlertType:    alertType,
		EmailAddress: email,
		AlertSent:    true,
		UpdatedAt:    time.Now(),
	}
	if err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "release_id"}, {Name: "alert_type"}, {Name: "email_address"}},
			DoUpdates: clause.AssignmentColumns([]string{"alert_sent", "updated_at"}),
		}).
		Create(&record).Error; err != nil {
		return fmt.Errorf("mark alert sent: %w", err)
	}
	return nil
}

func (l *alertLedger) ForRelease(ctx context.Context, releaseID int64) ([]models.AlertRecord, error) {
	var records []models.AlertRecord
	if err := l.db.WithContext(ctx).
		Where("release_id = ?", releaseID).
		Order("alert_type ASC, email_address ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("ledger for release %d: %w", releaseID, err)
	}
	return records, nil
}
