package models

import "time"

// UnknownVolume is stored when no volume number can be read from a title.
const UnknownVolume = "Unknown"

// Release is one published manga volume with a real-world date.
// (manga_title, volume_number, release_date) identifies a row.
type Release struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title        string    `gorm:"column:manga_title;not null;uniqueIndex:ux_release_identity,priority:1" json:"title"`
	VolumeNumber string    `gorm:"not null;uniqueIndex:ux_release_identity,priority:2" json:"volume_number"`
	ReleaseDate  time.Time `gorm:"type:date;not null;uniqueIndex:ux_release_identity,priority:3;index" json:"release_date"`
	Publisher    string    `gorm:"not null" json:"publisher"`
	PageLink     string    `json:"page_link"`
	AlertSent    bool      `gorm:"default:false" json:"alert_sent"` // legacy, superseded by alerts_sent
	CreatedAt    time.Time `json:"created_at"`
}

func (Release) TableName() string {
	return "manga_releases"
}
