package events

import (
	"encoding/json"
	"testing"
)

type decisionEvent struct {
	BaseEvent
	Stage string `json:"stage"`
}

func TestNewOutboxEntry(t *testing.T) {
	evt := decisionEvent{
		BaseEvent: NewBaseEvent("appraisal.application.decision_recorded", "app-1", "LoanApplication", "tenant-1"),
		Stage:     "COMMITTEE",
	}

	entry, err := NewOutboxEntry(evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.ID != evt.EventID() {
		t.Errorf("expected entry ID %q, got %q", evt.EventID(), entry.ID)
	}
	if entry.TenantID != "tenant-1" {
		t.Errorf("expected tenant %q, got %q", "tenant-1", entry.TenantID)
	}
	if entry.PublishedAt != nil {
		t.Error("expected a new entry to be unpublished")
	}
	if !entry.CreatedAt.Equal(evt.OccurredAt()) {
		t.Errorf("expected created at %v, got %v", evt.OccurredAt(), entry.CreatedAt)
	}
}

func TestOutboxEntry_Event(t *testing.T) {
	evt := decisionEvent{
		BaseEvent: NewBaseEvent("appraisal.application.approved", "app-2", "LoanApplication", "tenant-2"),
		Stage:     "COMMITTEE",
	}
	entry, err := NewOutboxEntry(evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored := entry.Event()
	if restored.EventType() != evt.EventType() || restored.AggregateID() != "app-2" || restored.TenantID() != "tenant-2" {
		t.Errorf("envelope not restored: %s %s %s", restored.EventType(), restored.AggregateID(), restored.TenantID())
	}

	data, err := json.Marshal(restored)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded decisionEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Stage != "COMMITTEE" || decoded.EventID() != evt.EventID() {
		t.Errorf("payload not preserved: %s", data)
	}
}
