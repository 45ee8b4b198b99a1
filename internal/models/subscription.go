package models

import "time"

// Subscription status values derived from payment state. Status is computed,
// never stored.
const (
	SubscriptionStatusActive  = "active"
	SubscriptionStatusExpired = "expired"
	SubscriptionStatusUnpaid  = "unpaid"
)

// Subscription mirrors the payment service's subscription row for a student.
type Subscription struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	StudentEmail     string     `gorm:"size:255;uniqueIndex;not null" json:"student_email"`
	TotalPaid        float64    `gorm:"not null;default:0" json:"total_paid"`
	ConfirmationDate *time.Time `json:"confirmation_date,omitempty"`
	RenewalDate      *time.Time `json:"renewal_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Status derives the subscription state at the given instant: unpaid until the
// paid total reaches the threshold, expired once the renewal date has passed.
func (s Subscription) Status(now time.Time, minimumPaid float64) string {
	if s.TotalPaid < minimumPaid {
		return SubscriptionStatusUnpaid
	}
	if s.RenewalDate != nil && s.RenewalDate.Before(now) {
		return SubscriptionStatusExpired
	}
	return SubscriptionStatusActive
}
