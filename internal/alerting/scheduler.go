package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mangaalert/internal/email"
	"mangaalert/internal/models"
)

// ReleaseFinder is the part of the release store the scheduler reads.
type ReleaseFinder interface {
	FindBetween(ctx context.Context, from, to time.Time) ([]models.Release, error)
}

type SubscriberFinder interface {
	SubscribersForTitle(ctx context.Context, title string) ([]models.Subscriber, error)
}

type Ledger interface {
	IsSent(ctx context.Context, releaseID int64, alertType models.AlertType, email string) (bool, error)
	MarkSent(ctx context.Context, releaseID int64, alertType models.AlertType, email string) error
}

type Options struct {
	Horizons []Horizon // DefaultHorizons when empty
	Policy   LedgerErrorPolicy
	// IsolateHorizons keeps going with the next horizon after a store failure
	// instead of ending the cycle.
	IsolateHorizons    bool
	Location           *time.Location
	UnsubscribeBaseURL string
	Now                func() time.Time
}

// CycleReport counts what one alert cycle did, across all horizons.
type CycleReport struct {
	Sent           int `json:"sent"`
	AlreadySent    int `json:"already_sent"`
	Suppressed     int `json:"suppressed"`    // ledger lookup failed under AssumeSent
	DeliveryFailed int `json:"delivery_failed"`
	LedgerFailed   int `json:"ledger_failed"` // sent, but the ledger write failed
	HorizonsFailed int `json:"horizons_failed"`
}

type Scheduler struct {
	releases    ReleaseFinder
	subscribers SubscriberFinder
	ledger      Ledger
	sender      email.Sender
	composer    *Composer
	opts        Options
	logger      *slog.Logger
}

func NewScheduler(releases ReleaseFinder, subscribers SubscriberFinder, ledger Ledger, sender email.Sender, opts Options, logger *slog.Logger) *Scheduler {
	if len(opts.Horizons) == 0 {
		opts.Horizons = DefaultHorizons()
	}
	if opts.Policy == "" {
		opts.Policy = AssumeSent
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		releases:    releases,
		subscribers: subscribers,
		ledger:      ledger,
		sender:      sender,
		composer:    NewComposer(opts.UnsubscribeBaseURL),
		opts:        opts,
		logger:      logger,
	}
}

// RunAlertCycle sends every due reminder not yet recorded in the ledger.
// Per-recipient failures are logged and counted. A store failure ends the
// cycle with an error, unless horizons are isolated, in which case the
// remaining horizons still run and the failures are returned together.
func (s *Scheduler) RunAlertCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport
	today := civilDate(s.opts.Now(), s.opts.Location)

	s.logger.Info("alert_cycle_started", "today", today.Format(time.DateOnly), "policy", string(s.opts.Policy))

	var errs []error
	for _, h := range s.opts.Horizons {
		if err := s.runHorizon(ctx, h, today, &report); err != nil {
			err = fmt.Errorf("horizon %s: %w", h.Type, err)
			report.HorizonsFailed++
			if !s.opts.IsolateHorizons || ctx.Err() != nil {
				s.logger.Error("alert_cycle_aborted", "alert_type", h.Type, "error", err)
				return report, err
			}
			s.logger.Error("alert_horizon_failed", "alert_type", h.Type, "error", err)
			errs = append(errs, err)
		}
	}

	s.logger.Info("alert_cycle_completed",
		"sent", report.Sent,
		"already_sent", report.AlreadySent,
		"suppressed", report.Suppressed,
		"delivery_failed", report.DeliveryFailed,
		"ledger_failed", report.LedgerFailed,
		"horizons_failed", report.HorizonsFailed,
	)

	if len(errs) > 0 {
		return report, fmt.Errorf("%w: %w", ErrHorizonsFailed, errors.Join(errs...))
	}
	return report, nil
}

func (s *Scheduler) runHorizon(ctx context.Context, h Horizon, today time.Time, report *CycleReport) error {
	releases, err := s.releases.FindBetween(ctx, today, today.AddDate(0, 0, h.Days))
	if err != nil {
		return err
	}
	s.logger.Debug("alert_horizon_releases", "alert_type", h.Type, "releases", len(releases))

	for _, release := range releases {
		if err := ctx.Err(); err != nil {
			return err
		}

		subscribers, err := s.subscribers.SubscribersForTitle(ctx, release.Title)
		if err != nil {
			return err
		}

		daysAhead := daysBetween(today, release.ReleaseDate)
		for _, sub := range subscribers {
			s.notify(ctx, h, release, sub, daysAhead, report)
		}
	}
	return nil
}

// notify handles one (release, horizon, subscriber) triple. It never fails the
// horizon.
func (s *Scheduler) notify(ctx context.Context, h Horizon, release models.Release, sub models.Subscriber, daysAhead int, report *CycleReport) {
	log := s.logger.With("alert_type", h.Type, "release_id", release.ID, "email", sub.EmailAddress)

	sent, err := s.ledger.IsSent(ctx, release.ID, h.Type, sub.EmailAddress)
	if err != nil {
		lookupErr := &LookupError{ReleaseID: release.ID, AlertType: h.Type, Email: sub.EmailAddress, Err: err}
		if s.opts.Policy == AssumeSent {
			report.Suppressed++
			log.Warn("alert_suppressed", "error", lookupErr)
			return
		}
		log.Warn("alert_ledger_lookup_failed", "error", lookupErr)
	} else if sent {
		report.AlreadySent++
		return
	}

	msg, err := s.composer.Compose(release, sub, daysAhead)
	if err != nil {
		report.DeliveryFailed++
		log.Error("alert_compose_failed", "error", err)
		return
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		report.DeliveryFailed++
		log.Error("alert_delivery_failed", "error", err)
		return
	}

	if err := s.ledger.MarkSent(ctx, release.ID, h.Type, sub.EmailAddress); err != nil {
		// the email went out; the next cycle may send it again
		report.LedgerFailed++
		log.Error("alert_ledger_write_failed", "error", err)
		return
	}

	report.Sent++
	log.Info("alert_sent", "manga", release.Title, "volume", release.VolumeNumber, "days_ahead", daysAhead)
}
