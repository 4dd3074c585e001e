package paddle

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Event type values this service reacts to. Anything else is acknowledged
// without processing.
const (
	EventSubscriptionCreated  = "subscription.created"
	EventSubscriptionUpdated  = "subscription.updated"
	EventSubscriptionCanceled = "subscription.canceled"
	EventTransactionCompleted = "transaction.completed"
)

// WebhookEvent is the decoded Paddle notification. The payload is parsed
// exactly once at the HTTP boundary; everything downstream works on these
// types.
type WebhookEvent struct {
	EventType  string     `json:"event_type" validate:"required"`
	EventID    string     `json:"event_id" validate:"required"`
	OccurredAt *time.Time `json:"occurred_at"`
	Data       *EventData `json:"data" validate:"required"`
}

// EventData carries the event-specific body. Subscription and transaction
// events share most fields; transaction events additionally carry currency
// and totals.
type EventData struct {
	ID                   string          `json:"id"`
	CustomerID           string          `json:"customer_id"`
	Status               string          `json:"status"`
	ProductID            string          `json:"product_id"`
	SubscriptionID       string          `json:"subscription_id"`
	CurrencyCode         string          `json:"currency_code"`
	Items                []Item          `json:"items"`
	CurrentBillingPeriod *BillingPeriod  `json:"current_billing_period"`
	CustomData           *CustomData     `json:"custom_data" validate:"required"`
	Details              *PaymentDetails `json:"details"`
}

// Item is one line item of a subscription or transaction.
type Item struct {
	ProductID string `json:"product_id"`
	PriceID   string `json:"price_id"`
	Quantity  int    `json:"quantity"`
}

// BillingPeriod bounds the currently billed interval.
type BillingPeriod struct {
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

// CustomData is provider-opaque metadata echoed back on events. The userId
// inside it is the only link from a Paddle event to a local user.
type CustomData struct {
	UserID   string `json:"userId" validate:"required"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// PaymentDetails holds transaction totals.
type PaymentDetails struct {
	Totals Totals `json:"totals"`
}

type Totals struct {
	Total string `json:"total"`
}

// SubscriptionID returns the external subscription identifier for
// subscription events, where it arrives as data.id.
func (e *WebhookEvent) SubscriptionID() string {
	if e.Data == nil {
		return ""
	}
	return strings.TrimSpace(e.Data.ID)
}

// ProductRef resolves the external product identifier for plan lookup:
// items[0].product_id, then items[0].price_id, then the top-level
// product_id. First non-empty wins; empty means no line item matched.
func (d *EventData) ProductRef() string {
	if len(d.Items) > 0 {
		if ref := strings.TrimSpace(d.Items[0].ProductID); ref != "" {
			return ref
		}
		if ref := strings.TrimSpace(d.Items[0].PriceID); ref != "" {
			return ref
		}
	}
	return strings.TrimSpace(d.ProductID)
}

var eventValidate = newEventValidator()

func newEventValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report violations under their JSON names so error messages match the
	// wire format ("data.custom_data.userId", not "Data.CustomData.UserID").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseEvent decodes a raw webhook body into a WebhookEvent.
func ParseEvent(rawBody []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// ValidateEvent checks structural completeness and returns every violated
// rule, not just the first. Unknown event types are deliberately accepted;
// they are routed to a no-op acknowledgment downstream.
func ValidateEvent(ev *WebhookEvent) []string {
	err := eventValidate.Struct(ev)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace starts with the root struct type; drop it.
		path := fe.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		msgs = append(msgs, "missing required field: "+path)
	}
	return msgs
}
