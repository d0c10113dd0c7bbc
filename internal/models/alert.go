package models

import (
	"fmt"
	"time"
)

// AlertType tags which reminder horizon a ledger row or email belongs to.
type AlertType string

const (
	AlertOneMonth AlertType = "1_month"
	AlertOneWeek  AlertType = "1_week"
	AlertOneDay   AlertType = "1_day"
)

// ParseAlertType accepts the persisted form of an alert type.
func ParseAlertType(s string) (AlertType, error) {
	switch AlertType(s) {
	case AlertOneMonth, AlertOneWeek, AlertOneDay:
		return AlertType(s), nil
	}
	return "", fmt.Errorf("unknown alert type %q", s)
}

// AlertRecord is the dedup authority: a row with AlertSent=true for
// (release_id, alert_type, email_address) means the reminder must not be sent again.
type AlertRecord struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReleaseID    int64     `gorm:"column:release_id;not null;uniqueIndex:ux_alert_identity,priority:1" json:"release_id"`
	AlertType    AlertType `gorm:"type:varchar(16);not null;uniqueIndex:ux_alert_identity,priority:2" json:"alert_type"`
	EmailAddress string    `gorm:"not null;uniqueIndex:ux_alert_identity,priority:3" json:"email_address"`
	AlertSent    bool      `gorm:"not null;default:false" json:"alert_sent"`
	UpdatedAt    time.Time `json:"updated_at"`

	Release *Release `gorm:"foreignKey:ReleaseID" json:"release,omitempty"`
}

func (AlertRecord) TableName() string {
	return "alerts_sent"
}
