package models

import "time"

// Subscription status constants used across profile and subscription models.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusPaused   = "paused"
)

// PlanFree is the fallback plan a profile drops to on cancellation.
const PlanFree = "free"

// UserProfile mirrors the billing-relevant state of an application user. It
// is created on the first webhook event referencing an unknown user id and
// updated on every subsequent relevant event; it is never deleted here.
type UserProfile struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_user_profiles_user_id" json:"user_id"`
	Email              string    `gorm:"type:varchar(200);default:''" json:"email"`
	FullName           string    `gorm:"type:varchar(200);default:''" json:"full_name"`
	SubscriptionStatus string    `gorm:"type:varchar(32);not null;default:'free';index" json:"subscription_status"`
	SubscriptionPlan   string    `gorm:"type:varchar(50);not null;default:'free';index" json:"subscription_plan"`
	PaddleCustomerID   string    `gorm:"type:varchar(191);default:'';index" json:"paddle_customer_id"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
