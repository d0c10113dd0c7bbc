// Package api serves the public subscription endpoints and the operator
// endpoints that trigger jobs on demand.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mangaalert/internal/alerting"
	"mangaalert/internal/auth"
	"mangaalert/internal/ingestion"
	"mangaalert/internal/models"
	"mangaalert/internal/runlock"
	"mangaalert/internal/subscription"
)

type AlertRunner interface {
	RunAlertCycle(ctx context.Context) (alerting.CycleReport, error)
}

type ScrapeRunner interface {
	Run(ctx context.Context) (ingestion.RunSummary, error)
}

type ReleaseFinder interface {
	FindBetween(ctx context.Context, from, to time.Time) ([]models.Release, error)
}

const maxUpcomingDays = 365

type Handler struct {
	subscriptions subscription.Service
	admin         *auth.AdminAuth
	alerts        AlertRunner
	scraper       ScrapeRunner
	releases      ReleaseFinder
	locker        runlock.Locker
	location      *time.Location
	now           func() time.Time
	logger        *slog.Logger
}

type HandlerDeps struct {
	Subscriptions subscription.Service
	Admin         *auth.AdminAuth
	Alerts        AlertRunner
	Scraper       ScrapeRunner
	Releases      ReleaseFinder
	Locker        runlock.Locker
	Location      *time.Location
	Logger        *slog.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	locker := deps.Locker
	if locker == nil {
		locker = runlock.Noop{}
	}
	return &Handler{
		subscriptions: deps.Subscriptions,
		admin:         deps.Admin,
		alerts:        deps.Alerts,
		scraper:       deps.Scraper,
		releases:      deps.Releases,
		locker:        locker,
		location:      loc,
		now:           time.Now,
		logger:        deps.Logger,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Titles lists the manga that can be subscribed to.
// GET /titles
func (h *Handler) Titles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"titles": h.subscriptions.Titles()})
}

// Subscribe registers an email for one or more titles.
// POST /subscribe
func (h *Handler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and subscriptions are required"})
		return
	}

	res, err := h.subscriptions.Subscribe(c.Request.Context(), req.Email, req.Subscriptions)
	switch {
	case errors.Is(err, subscription.ErrInvalidEmail),
		errors.Is(err, subscription.ErrNoTitles):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, subscription.ErrUnknownTitle):
		c.JSON(http.StatusBadRequest, gin.H{"error": "you provided a manga that is not yet supported", "supported": h.subscriptions.Titles()})
		return
	case errors.Is(err, subscription.ErrSubscriberLimit):
		c.JSON(http.StatusForbidden, gin.H{"error": "subscriber limit reached, no more subscriptions are allowed at this time"})
		return
	case err != nil:
		h.logger.Error("subscribe_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an error occurred during subscription"})
		return
	}

	c.JSON(http.StatusOK, SubscribeResponse{Message: "subscription successful", Subscriptions: res.Titles})
}

// Unsubscribe removes a subscriber and all of its titles.
// DELETE /unsubscribe/:token
func (h *Handler) Unsubscribe(c *gin.Context) {
	err := h.subscriptions.Unsubscribe(c.Request.Context(), c.Param("token"))
	if errors.Is(err, subscription.ErrTokenNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("unsubscribe_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an error occurred during unsubscription"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unsubscribed"})
}

// Login exchanges the admin password for an access token.
// POST /admin/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, ttl, err := h.admin.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAdminDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{AccessToken: token, TokenType: "Bearer", ExpiresIn: int(ttl.Seconds())})
}

// RunAlerts runs one alert cycle now.
// POST /admin/alerts/run
func (h *Handler) RunAlerts(c *gin.Context) {
	h.runLocked(c, "notifier", func(ctx context.Context) (any, error) {
		return h.alerts.RunAlertCycle(ctx)
	})
}

// RunScrape runs one scrape pass now.
// POST /admin/scrape/run
func (h *Handler) RunScrape(c *gin.Context) {
	h.runLocked(c, "scraper", func(ctx context.Context) (any, error) {
		return h.scraper.Run(ctx)
	})
}

func (h *Handler) runLocked(c *gin.Context, job string, run func(ctx context.Context) (any, error)) {
	ctx := c.Request.Context()

	release, err := h.locker.Acquire(ctx, job)
	if errors.Is(err, runlock.ErrLocked) {
		c.JSON(http.StatusConflict, gin.H{"error": job + " is already running"})
		return
	}
	if err != nil {
		h.logger.Error("run_lock_failed", "job", job, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not acquire run lock"})
		return
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			h.logger.Warn("run_lock_release_failed", "job", job, "error", err)
		}
	}()

	result, err := run(ctx)
	if err != nil {
		h.logger.Error("admin_job_failed", "job", job, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// UpcomingReleases lists releases dated within the next N days (default 30).
// GET /admin/releases/upcoming?days=N
func (h *Handler) UpcomingReleases(c *gin.Context) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxUpcomingDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 0 and 365"})
			return
		}
		days = n
	}

	y, m, d := h.now().In(h.location).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	releases, err := h.releases.FindBetween(c.Request.Context(), today, today.AddDate(0, 0, days))
	if err != nil {
		h.logger.Error("upcoming_releases_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load releases"})
		return
	}

	out := make([]UpcomingRelease, 0, len(releases))
	for _, r := range releases {
		out = append(out, toUpcoming(r, today))
	}
	c.JSON(http.StatusOK, gin.H{"from": today.Format(time.DateOnly), "days": days, "releases": out})
}
