package paddle

import (
	"time"

	"github.com/fluxbyte/paddlesync/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the store operations used by the sync service.
type Repository interface {
	GetProfileByUserID(userID string) (*models.UserProfile, error)
	UpdateProfile(userID string, updates map[string]interface{}) error
	CreateProfile(profile *models.UserProfile) error
	FindPlanByProductRef(productRef string) (*models.SubscriptionPlan, error)
	UpsertSubscription(sub *models.UserSubscription) error
	UpdateSubscriptionByPaddleID(paddleSubscriptionID string, updates map[string]interface{}) (int64, error)
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetProfileByUserID(userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := r.db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile applies updates to the profile row for userID. The affected
// count is deliberately not reported: the MySQL driver counts changed rows,
// not matched rows, so callers must decide insert-vs-update from a prior
// lookup instead.
func (r *gormRepository) UpdateProfile(userID string, updates map[string]interface{}) error {
	return r.db.Model(&models.UserProfile{}).Where("user_id = ?", userID).Updates(updates).Error
}

func (r *gormRepository) CreateProfile(profile *models.UserProfile) error {
	return r.db.Create(profile).Error
}

func (r *gormRepository) FindPlanByProductRef(productRef string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.Where("paddle_product_id = ?", productRef).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) UpsertSubscription(sub *models.UserSubscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "paddle_subscription_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"plan_id",
			"status",
			"current_period_start",
			"current_period_end",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("paddle_subscription_id = ?", sub.PaddleSubscriptionID).First(sub).Error
}

// UpdateSubscriptionByPaddleID is update-only: cancellation must not create
// a row for a subscription we never saw.
func (r *gormRepository) UpdateSubscriptionByPaddleID(paddleSubscriptionID string, updates map[string]interface{}) (int64, error) {
	tx := r.db.Model(&models.UserSubscription{}).
		Where("paddle_subscription_id = ?", paddleSubscriptionID).
		Updates(updates)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("event_id = ?", event.EventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
