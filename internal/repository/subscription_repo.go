package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/unibus-go-api/internal/models"
)

// SubscriptionRepository reads subscription rows owned by the payment
// service, used to annotate scan results with payment standing.
type SubscriptionRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Subscription, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository constructs the subscription repository.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) FindByEmail(ctx context.Context, email string) (*models.Subscription, error) {
	var subscription models.Subscription
	err := r.db.WithContext(ctx).First(&subscription, "student_email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}
