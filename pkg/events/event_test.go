package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := "app-123"
	tenantID := "tenant-456"

	before := time.Now().UTC()
	event := NewBaseEvent("appraisal.application.created", aggregateID, "Application", tenantID)
	after := time.Now().UTC()

	if event.EventID() == "" {
		t.Error("expected non-empty event ID")
	}

	if event.EventType() != "appraisal.application.created" {
		t.Errorf("expected event type %q, got %q", "appraisal.application.created", event.EventType())
	}

	if event.AggregateID() != aggregateID {
		t.Errorf("expected aggregate ID %v, got %v", aggregateID, event.AggregateID())
	}

	if event.AggregateType() != "Application" {
		t.Errorf("expected aggregate type %q, got %q", "Application", event.AggregateType())
	}

	if event.TenantID() != tenantID {
		t.Errorf("expected tenant ID %q, got %q", tenantID, event.TenantID())
	}

	if event.OccurredAt().Before(before) || event.OccurredAt().After(after) {
		t.Errorf("expected occurredAt between %v and %v, got %v", before, after, event.OccurredAt())
	}
}

func TestNewBaseEvent_UniqueIDs(t *testing.T) {
	a := NewBaseEvent("x", "agg", "Application", "")
	b := NewBaseEvent("x", "agg", "Application", "")

	if a.EventID() == b.EventID() {
		t.Errorf("expected distinct event IDs, both were %q", a.EventID())
	}
}

func TestBaseEventImplementsDomainEvent(t *testing.T) {
	var _ DomainEvent = BaseEvent{}
}

func TestEmbeddedEventSerialisesEnvelope(t *testing.T) {
	type statusChanged struct {
		BaseEvent
		From string `json:"from"`
		To   string `json:"to"`
	}

	evt := statusChanged{
		BaseEvent: NewBaseEvent("appraisal.application.status_changed", "app-1", "Application", "tenant-1"),
		From:      "SUBMITTED",
		To:        "UNDER_ANALYSIS",
	}

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"event_id", "event_type", "aggregate_id", "aggregate_type", "tenant_id", "occurred_at", "from", "to"} {
		if _, ok := parsed[key]; !ok {
			t.Errorf("expected key %q in serialised event, got %v", key, parsed)
		}
	}
	if parsed["to"] != "UNDER_ANALYSIS" {
		t.Errorf("expected to=UNDER_ANALYSIS, got %v", parsed["to"])
	}
}
