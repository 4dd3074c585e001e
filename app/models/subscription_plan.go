package models

import "time"

// SubscriptionPlan is read-only reference data mapping Paddle product/price
// identifiers to internal plans. Rows are seeded via migrations and never
// mutated by the webhook path.
type SubscriptionPlan struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PaddleProductID string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_subscription_plans_product" json:"paddle_product_id"`
	Name            string    `gorm:"type:varchar(100);not null" json:"name"`
	PriceCents      int       `gorm:"not null;default:0" json:"price_cents"`
	IntervalType    string    `gorm:"type:varchar(16);not null;default:'month'" json:"interval_type"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
