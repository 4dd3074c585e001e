package paddle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fluxbyte/paddlesync/app/models"
	"github.com/fluxbyte/paddlesync/internal/pkg/weblog"
	"gorm.io/gorm"
)

// Outcome reports how an event was handled. Processed=false with a nil error
// means the event was acknowledged but intentionally not applied (for
// example a subscription referencing an unmapped product).
type Outcome struct {
	Processed bool
	Message   string
}

// Service synchronizes profile and subscription rows from validated webhook
// events. All store calls run sequentially within one request; idempotence
// comes from the store-side upsert keys, not from coordination here.
type Service struct {
	repo Repository
	log  weblog.Logger
}

// NewService creates a sync service from an injected repository and logger.
func NewService(repo Repository, log weblog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// NewServiceFromDB creates a sync service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, log weblog.Logger) *Service {
	return NewService(NewRepository(db), log)
}

// ProcessEvent dispatches a validated event by type. Unknown event types are
// acknowledged without touching the store.
func (s *Service) ProcessEvent(ctx context.Context, ev *WebhookEvent) (*Outcome, error) {
	_ = ctx
	switch ev.EventType {
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return s.syncSubscription(ev)
	case EventTransactionCompleted:
		return s.syncTransaction(ev)
	case EventSubscriptionCanceled:
		return s.syncCancellation(ev)
	default:
		s.log.Infof("event %s (%s) acknowledged without processing", ev.EventID, ev.EventType)
		return &Outcome{Processed: true, Message: fmt.Sprintf("event type %s acknowledged without processing", ev.EventType)}, nil
	}
}

// syncSubscription handles subscription.created and subscription.updated. A
// product that maps to no plan is a hard stop: nothing is written and the
// failure surfaces in the outcome.
func (s *Service) syncSubscription(ev *WebhookEvent) (*Outcome, error) {
	data := ev.Data
	userID := data.CustomData.UserID

	profile, err := s.lookupProfile(userID)
	if err != nil {
		return nil, err
	}

	productRef := data.ProductRef()
	if productRef == "" {
		s.log.Errorf("event %s: product id missing", ev.EventID)
		return &Outcome{Processed: false, Message: "product id missing"}, nil
	}

	plan, err := s.repo.FindPlanByProductRef(productRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Errorf("event %s: no plan mapped to product %s", ev.EventID, productRef)
			return &Outcome{Processed: false, Message: "plan not found"}, nil
		}
		return nil, fmt.Errorf("plan lookup failed: %w", err)
	}

	status := strings.TrimSpace(data.Status)
	if status == "" {
		status = models.SubscriptionStatusActive
	}
	planName := strings.ToLower(plan.Name)

	if err := s.upsertProfile(data, status, planName, profile != nil); err != nil {
		return nil, err
	}

	sub := &models.UserSubscription{
		UserID:               userID,
		PlanID:               plan.ID,
		PaddleSubscriptionID: ev.SubscriptionID(),
		Status:               status,
	}
	if bp := data.CurrentBillingPeriod; bp != nil {
		sub.CurrentPeriodStart = bp.StartsAt
		sub.CurrentPeriodEnd = bp.EndsAt
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return nil, fmt.Errorf("subscription upsert failed: %w", err)
	}

	s.log.Infof("event %s: subscription %s synced (plan=%s status=%s)", ev.EventID, sub.PaddleSubscriptionID, planName, status)
	return &Outcome{
		Processed: true,
		Message:   fmt.Sprintf("subscription synced: plan %s, status %s", planName, status),
	}, nil
}

// syncTransaction handles transaction.completed. Only one-time purchases are
// relevant: transactions tied to a subscription are covered by subscription
// events. An unmapped line item is acknowledged, not failed.
func (s *Service) syncTransaction(ev *WebhookEvent) (*Outcome, error) {
	data := ev.Data

	profile, err := s.lookupProfile(data.CustomData.UserID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(data.SubscriptionID) != "" {
		return &Outcome{Processed: true, Message: "transaction belongs to a subscription, no action"}, nil
	}
	if len(data.Items) == 0 {
		return &Outcome{Processed: true, Message: "transaction has no line items, no action"}, nil
	}

	productRef := data.ProductRef()
	plan, err := s.repo.FindPlanByProductRef(productRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warnf("event %s: one-time purchase with unmapped product %s, acknowledged", ev.EventID, productRef)
			return &Outcome{Processed: true, Message: "no plan matched for one-time purchase, acknowledged"}, nil
		}
		return nil, fmt.Errorf("plan lookup failed: %w", err)
	}

	planName := strings.ToLower(plan.Name)
	if err := s.upsertProfile(data, models.SubscriptionStatusActive, planName, profile != nil); err != nil {
		return nil, err
	}

	s.log.Infof("event %s: one-time purchase applied (plan=%s)", ev.EventID, planName)
	return &Outcome{
		Processed: true,
		Message:   fmt.Sprintf("one-time purchase applied: plan %s", planName),
	}, nil
}

// syncCancellation handles subscription.canceled. The profile drops to the
// free plan; the subscription row is updated in place and never created
// here.
func (s *Service) syncCancellation(ev *WebhookEvent) (*Outcome, error) {
	data := ev.Data

	profile, err := s.lookupProfile(data.CustomData.UserID)
	if err != nil {
		return nil, err
	}

	status := strings.TrimSpace(data.Status)
	if status == "" {
		status = models.SubscriptionStatusCanceled
	}

	if err := s.upsertProfile(data, status, models.PlanFree, profile != nil); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if bp := data.CurrentBillingPeriod; bp != nil && bp.EndsAt != nil {
		updates["current_period_end"] = bp.EndsAt
	}
	rows, err := s.repo.UpdateSubscriptionByPaddleID(ev.SubscriptionID(), updates)
	if err != nil {
		return nil, fmt.Errorf("subscription update failed: %w", err)
	}
	if rows == 0 {
		s.log.Warnf("event %s: cancellation for unknown subscription %s", ev.EventID, ev.SubscriptionID())
	}

	s.log.Infof("event %s: subscription %s canceled (status=%s)", ev.EventID, ev.SubscriptionID(), status)
	return &Outcome{
		Processed: true,
		Message:   fmt.Sprintf("subscription canceled: status %s", status),
	}, nil
}

// lookupProfile is the shared user validation step. Absence is a valid
// continuation state (the profile is created downstream); anything else from
// the store aborts the handler.
func (s *Service) lookupProfile(userID string) (*models.UserProfile, error) {
	profile, err := s.repo.GetProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("profile lookup failed: %w", err)
	}
	return profile, nil
}

// upsertProfile writes the profile row for the event's user. The insert
// decision comes from the earlier profile lookup, not from the update's
// affected-row count: MySQL reports changed rows rather than matched rows,
// so a replay whose assignments are all no-ops would look like a missing
// row and collide with the unique user_id index on insert. Identity fields
// from custom_data only overwrite when the event actually carries them.
func (s *Service) upsertProfile(data *EventData, status, planName string, exists bool) error {
	cd := data.CustomData

	if !exists {
		profile := &models.UserProfile{
			UserID:             cd.UserID,
			Email:              strings.TrimSpace(cd.Email),
			FullName:           strings.TrimSpace(cd.FullName),
			SubscriptionStatus: status,
			SubscriptionPlan:   planName,
			PaddleCustomerID:   strings.TrimSpace(data.CustomerID),
		}
		if err := s.repo.CreateProfile(profile); err != nil {
			return fmt.Errorf("profile insert failed: %w", err)
		}
		return nil
	}

	updates := map[string]interface{}{
		"subscription_status": status,
		"subscription_plan":   planName,
		"updated_at":          time.Now(),
	}
	if email := strings.TrimSpace(cd.Email); email != "" {
		updates["email"] = email
	}
	if name := strings.TrimSpace(cd.FullName); name != "" {
		updates["full_name"] = name
	}
	if custID := strings.TrimSpace(data.CustomerID); custID != "" {
		updates["paddle_customer_id"] = custID
	}
	if err := s.repo.UpdateProfile(cd.UserID, updates); err != nil {
		return fmt.Errorf("profile update failed: %w", err)
	}
	return nil
}

// RecordEvent persists the raw payload for auditing. Replayed deliveries
// collapse onto the existing row.
func (s *Service) RecordEvent(ctx context.Context, ev *WebhookEvent, rawBody []byte, signatureValid bool) (*models.WebhookEvent, error) {
	_ = ctx
	event := &models.WebhookEvent{
		EventID:        ev.EventID,
		EventType:      ev.EventType,
		PayloadJSON:    string(rawBody),
		SignatureValid: signatureValid,
	}
	_, stored, err := s.repo.CreateWebhookEventIfNotExists(event)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// MarkEventProcessed stores the processing result on the audit row.
func (s *Service) MarkEventProcessed(ctx context.Context, auditID uint, processingErr error) error {
	_ = ctx
	if auditID == 0 {
		return errors.New("audit row id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(auditID, errMsg)
}
