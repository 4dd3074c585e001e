package paddle

import (
	"strings"
	"testing"
)

func TestParseEvent_Full(t *testing.T) {
	raw := []byte(`{
		"event_type": "subscription.created",
		"event_id": "evt_123",
		"occurred_at": "2025-06-01T10:00:00Z",
		"data": {
			"id": "sub_456",
			"customer_id": "ctm_789",
			"status": "active",
			"items": [
				{"product_id": "pro_abc", "price_id": "pri_def", "quantity": 1}
			],
			"current_billing_period": {
				"starts_at": "2025-06-01T10:00:00Z",
				"ends_at": "2025-07-01T10:00:00Z"
			},
			"custom_data": {"userId": "user-1", "email": "a@b.c", "full_name": "Ada B"}
		}
	}`)

	ev, err := ParseEvent(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if ev.EventType != EventSubscriptionCreated || ev.EventID != "evt_123" {
		t.Fatalf("unexpected envelope: %+v", ev)
	}
	if ev.SubscriptionID() != "sub_456" {
		t.Fatalf("unexpected subscription id %q", ev.SubscriptionID())
	}
	if ev.Data.CustomData.UserID != "user-1" {
		t.Fatalf("unexpected userId %q", ev.Data.CustomData.UserID)
	}
	if ev.Data.CurrentBillingPeriod == nil || ev.Data.CurrentBillingPeriod.EndsAt == nil {
		t.Fatalf("expected billing period bounds to be parsed")
	}
	if violations := ValidateEvent(ev); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestParseEvent_MalformedJSON(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"event_type":`)); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}

func TestValidateEvent_AccumulatesAllViolations(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"data": {"custom_data": {"email": "a@b.c"}}}`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	violations := ValidateEvent(ev)
	if len(violations) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(violations), violations)
	}
	joined := strings.Join(violations, "\n")
	for _, want := range []string{"event_type", "event_id", "data.custom_data.userId"} {
		if !strings.Contains(joined, "missing required field: "+want) {
			t.Fatalf("expected violation for %q, got %v", want, violations)
		}
	}
}

func TestValidateEvent_MissingData(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event_type": "x", "event_id": "y"}`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	violations := ValidateEvent(ev)
	if len(violations) != 1 || !strings.Contains(violations[0], "data") {
		t.Fatalf("expected a single violation for data, got %v", violations)
	}
}

func TestValidateEvent_UnknownTypeAccepted(t *testing.T) {
	ev, err := ParseEvent([]byte(`{
		"event_type": "address.created",
		"event_id": "evt_9",
		"data": {"custom_data": {"userId": "user-1"}}
	}`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if violations := ValidateEvent(ev); len(violations) != 0 {
		t.Fatalf("unknown event types must validate, got %v", violations)
	}
}

func TestProductRef_FallbackOrder(t *testing.T) {
	tests := []struct {
		name string
		data EventData
		want string
	}{
		{
			name: "item product id wins",
			data: EventData{ProductID: "pro_top", Items: []Item{{ProductID: "pro_item", PriceID: "pri_item"}}},
			want: "pro_item",
		},
		{
			name: "price id when item product empty",
			data: EventData{ProductID: "pro_top", Items: []Item{{PriceID: "pri_item"}}},
			want: "pri_item",
		},
		{
			name: "top level fallback",
			data: EventData{ProductID: "pro_top", Items: []Item{{}}},
			want: "pro_top",
		},
		{
			name: "no items uses top level",
			data: EventData{ProductID: "pro_top"},
			want: "pro_top",
		},
		{
			name: "nothing",
			data: EventData{},
			want: "",
		},
	}

	for _, tt := range tests {
		if got := tt.data.ProductRef(); got != tt.want {
			t.Fatalf("%s: ProductRef() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
