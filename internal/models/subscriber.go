package models

import "time"

type Subscriber struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EmailAddress     string    `gorm:"not null;uniqueIndex" json:"email_address"`
	UnsubscribeToken string    `gorm:"not null;uniqueIndex" json:"-"`
	CreatedAt        time.Time `json:"created_at"`

	Subscriptions []Subscription `gorm:"foreignKey:SubscriberID;constraint:OnDelete:CASCADE" json:"subscriptions,omitempty"`
}

func (Subscriber) TableName() string {
	return "subscribers"
}

// Subscription links a subscriber to a manga title (not to a release).
type Subscription struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SubscriberID int64     `gorm:"not null;uniqueIndex:ux_subscriber_title,priority:1" json:"subscriber_id"`
	EmailAddress string    `gorm:"not null" json:"email_address"`
	MangaTitle   string    `gorm:"not null;uniqueIndex:ux_subscriber_title,priority:2;index" json:"manga_title"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Subscription) TableName() string {
	return "subscribers_subscriptions"
}
