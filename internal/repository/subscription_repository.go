package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mangaalert/internal/models"
)

type SubscriptionRepository interface {
	// SubscribersForTitle joins on manga title, so subscribers receive alerts
	// for every volume of the series.
	SubscribersForTitle(ctx context.Context, title string) ([]models.Subscriber, error)
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	// CreateSubscriber inserts the subscriber unless the email exists; the
	// stored row (new or existing) is loaded back into subscriber.
	CreateSubscriber(ctx context.Context, subscriber *models.Subscriber) (created bool, err error)
	AddSubscriptions(ctx context.Context, subscriber *models.Subscriber, titles []string) error
	CountSubscribers(ctx context.Context) (int64, error)
	DeleteByToken(ctx context.Context, token string) (*models.Subscriber, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) SubscribersForTitle(ctx context.Context, title string) ([]models.Subscriber, error) {
	var subscribers []models.Subscriber
	if err := r.db.WithContext(ctx).
		Model(&models.Subscriber{}).
		Joins("JOIN subscribers_subscriptions ss ON ss.subscriber_id = subscribers.id").
		Where("ss.manga_title = ?", title).
		Order("subscribers.id ASC").
		Find(&subscribers).Error; err != nil {
		return nil, fmt.Errorf("subscribers for %s: %w", title, err)
	}
	return subscribers, nil
}

func (r *subscriptionRepository) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	var subscriber models.Subscriber
	err := r.db.WithContext(ctx).Where("email_address = ?", email).First(&subscriber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find subscriber: %w", err)
	}
	return &subscriber, nil
}

func (r *subscriptionRepository) CreateSubscriber(ctx context.Context, subscriber *models.Subscriber) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email_address"}}, DoNothing: true}).
		Create(subscriber)
	if result.Error != nil {
		return false, fmt.Errorf("create subscriber: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	existing, err := r.FindByEmail(ctx, subscriber.EmailAddress)
	if err != nil {
		return false, err
	}
	*subscriber = *existing
	return false, nil
}

func (r *subscriptionRepository) AddSubscriptions(ctx context.Context, subscriber *models.Subscriber, titles []string) error {
	if len(titles) == 0 {
		return nil
	}
	rows := make([]models.Subscription, 0, len(titles))
	for _, title := range titles {
		rows = append(rows, models.Subscription{
			SubscriberID: subscriber.ID,
			EmailAddress: subscriber.EmailAddress,
			MangaTitle:   title,
		})
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subscriber_id"}, {Name: "manga_title"}},
			DoNothing: true,
		}).
		Create(&rows).Error; err != nil {
		return fmt.Errorf("add subscriptions: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) CountSubscribers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Subscriber{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return count, nil
}

func (r *subscriptionRepository) DeleteByToken(ctx context.Context, token string) (*models.Subscriber, error) {
	var subscriber models.Subscriber
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("unsubscribe_token = ?", token).First(&subscriber).Error; err != nil {
			return err
		}
		if err := tx.Where("subscriber_id = ?", subscriber.ID).Delete(&models.Subscription{}).Error; err != nil {
			return err
		}
		return tx.Delete(&subscriber).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete subscriber: %w", err)
	}
	return &subscriber, nil
}
