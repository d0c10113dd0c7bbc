// Package alerting decides which subscriber gets which release reminder and
// sends it at most once per (release, alert type, recipient).
package alerting

import (
	"errors"
	"fmt"
	"time"

	"mangaalert/internal/models"
)

// Horizon is a reminder class: a release dated within Days of today is due
// for an alert of Type.
type Horizon struct {
	Type models.AlertType
	Days int
}

// DefaultHorizons is the fixed processing order of one alert cycle.
func DefaultHorizons() []Horizon {
	return []Horizon{
		{Type: models.AlertOneMonth, Days: 30},
		{Type: models.AlertOneWeek, Days: 7},
		{Type: models.AlertOneDay, Days: 1},
	}
}

// LedgerErrorPolicy decides what a failed ledger check means.
type LedgerErrorPolicy string

const (
	// AssumeSent skips the recipient for this cycle.
	AssumeSent LedgerErrorPolicy = "assume_sent"
	// AssumeUnsent sends the alert anyway.
	AssumeUnsent LedgerErrorPolicy = "assume_unsent"
)

func ParseLedgerErrorPolicy(s string) (LedgerErrorPolicy, error) {
	switch p := LedgerErrorPolicy(s); p {
	case AssumeSent, AssumeUnsent:
		return p, nil
	}
	return "", fmt.Errorf("unknown ledger error policy %q", s)
}

// LookupError is a failed ledger check for one recipient. It is logged, never
// returned from a cycle.
type LookupError struct {
	ReleaseID int64
	AlertType models.AlertType
	Email     string
	Err       error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("ledger lookup for release %d, %s, %s: %v", e.ReleaseID, e.AlertType, e.Email, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// ErrHorizonsFailed wraps the joined horizon errors of an isolated cycle.
var ErrHorizonsFailed = errors.New("alert horizons failed")

// civilDate truncates t to its calendar date in loc, expressed as UTC midnight
// so it compares directly with stored release dates.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
