package api

import (
	"time"

	"mangaalert/internal/models"
)

type SubscribeRequest struct {
	Email         string   `json:"email" binding:"required"`
	Subscriptions []string `json:"subscriptions" binding:"required,min=1"`
}

type SubscribeResponse struct {
	Message       string   `json:"message"`
	Subscriptions []string `json:"subscriptions"`
}

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

type UpcomingRelease struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	VolumeNumber string `json:"volume_number"`
	ReleaseDate  string `json:"release_date"` // YYYY-MM-DD
	Publisher    string `json:"publisher"`
	PageLink     string `json:"page_link"`
	DaysAhead    int    `json:"days_ahead"`
}

func toUpcoming(r models.Release, today time.Time) UpcomingRelease {
	return UpcomingRelease{
		ID:           r.ID,
		Title:        r.Title,
		VolumeNumber: r.VolumeNumber,
		ReleaseDate:  r.ReleaseDate.Format(time.DateOnly),
		Publisher:    r.Publisher,
		PageLink:     r.PageLink,
		DaysAhead:    int(r.ReleaseDate.Sub(today).Hours() / 24),
	}
}
