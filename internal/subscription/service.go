// Package subscription manages who wants alerts for which manga titles.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"mangaalert/internal/models"
	"mangaalert/internal/repository"
)

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrNoTitles        = errors.New("at least one manga title is required")
	ErrUnknownTitle    = errors.New("manga is not supported")
	ErrSubscriberLimit = errors.New("subscriber limit reached")
	ErrTokenNotFound   = errors.New("unsubscribe token not found")
)

// Result describes a completed subscribe call.
type Result struct {
	Subscriber *models.Subscriber
	Titles     []string // catalog spelling
	Created    bool     // a new subscriber row was written
}

type Service interface {
	Subscribe(ctx context.Context, email string, titles []string) (*Result, error)
	Unsubscribe(ctx context.Context, token string) error
	Titles() []string
}

type service struct {
	repo           repository.SubscriptionRepository
	catalog        map[string]string // lowercased -> catalog spelling
	titles         []string
	maxSubscribers int
	logger         *slog.Logger
}

// NewService accepts subscriptions for the given catalog. maxSubscribers caps
// new subscribers; zero means no cap.
func NewService(repo repository.SubscriptionRepository, catalog []string, maxSubscribers int, logger *slog.Logger) Service {
	byKey := make(map[string]string, len(catalog))
	for _, title := range catalog {
		byKey[strings.ToLower(title)] = title
	}
	return &service{
		repo:           repo,
		catalog:        byKey,
		titles:         append([]string(nil), catalog...),
		maxSubscribers: maxSubscribers,
		logger:         logger,
	}
}

func (s *service) Titles() []string {
	return append([]string(nil), s.titles...)
}

func (s *service) Subscribe(ctx context.Context, email string, titles []string) (*Result, error) {
	address, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	canonical, err := s.resolveTitles(titles)
	if err != nil {
		return nil, err
	}

	subscriber, err := s.repo.FindByEmail(ctx, address)
	created := false
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if err := s.checkLimit(ctx); err != nil {
			return nil, err
		}
		subscriber = &models.Subscriber{EmailAddress: address, UnsubscribeToken: uuid.NewString()}
		if created, err = s.repo.CreateSubscriber(ctx, subscriber); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if err := s.repo.AddSubscriptions(ctx, subscriber, canonical); err != nil {
		return nil, err
	}

	s.logger.Info("subscription_saved", "subscriber_id", subscriber.ID, "new_subscriber", created, "titles", canonical)
	return &Result{Subscriber: subscriber, Titles: canonical, Created: created}, nil
}

// checkLimit refuses new subscribers once the cap is reached, and also when
// the count cannot be read.
func (s *service) checkLimit(ctx context.Context) error {
	if s.maxSubscribers == 0 {
		return nil
	}
	count, err := s.repo.CountSubscribers(ctx)
	if err != nil {
		s.logger.Error("subscriber_count_failed", "error", err)
		return ErrSubscriberLimit
	}
	if count >= int64(s.maxSubscribers) {
		return ErrSubscriberLimit
	}
	return nil
}

func (s *service) Unsubscribe(ctx context.Context, token string) error {
	if _, err := uuid.Parse(token); err != nil {
		return ErrTokenNotFound
	}
	subscriber, err := s.repo.DeleteByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTokenNotFound
	}
	if err != nil {
		return err
	}
	s.logger.Info("subscriber_removed", "subscriber_id", subscriber.ID)
	return nil
}

func (s *service) resolveTitles(titles []string) ([]string, error) {
	seen := make(map[string]bool, len(titles))
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		title, ok := s.catalog[strings.ToLower(strings.TrimSpace(t))]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTitle, t)
		}
		if seen[title] {
			continue
		}
		seen[title] = true
		out = append(out, title)
	}
	if len(out) == 0 {
		return nil, ErrNoTitles
	}
	return out, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
