package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// OutboxEntry represents a domain event stored in the outbox table.
type OutboxEntry struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	TenantID      string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// NewOutboxEntry creates an OutboxEntry from a DomainEvent.
// The payload is produced by JSON-marshalling the event itself.
func NewOutboxEntry(event DomainEvent) (OutboxEntry, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return OutboxEntry{}, fmt.Errorf("marshal event %s: %w", event.EventType(), err)
	}
	return OutboxEntry{
		ID:            event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		EventType:     event.EventType(),
		TenantID:      event.TenantID(),
		Payload:       payload,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// Event returns the entry as a DomainEvent whose JSON form is the stored
// payload, so publishers send the same bytes the aggregate produced.
func (e OutboxEntry) Event() DomainEvent {
	return storedEvent{entry: e}
}

type storedEvent struct {
	entry OutboxEntry
}

func (s storedEvent) EventID() string       { return s.entry.ID }
func (s storedEvent) EventType() string     { return s.entry.EventType }
func (s storedEvent) AggregateID() string   { return s.entry.AggregateID }
func (s storedEvent) AggregateType() string { return s.entry.AggregateType }
func (s storedEvent) TenantID() string      { return s.entry.TenantID }
func (s storedEvent) OccurredAt() time.Time { return s.entry.CreatedAt }

func (s storedEvent) MarshalJSON() ([]byte, error) {
	if len(s.entry.Payload) == 0 {
		return []byte("null"), nil
	}
	return s.entry.Payload, nil
}
