package kafka

import (
	"context"
	"testing"
)

func TestNewProducer(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092", "localhost:9093"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.brokers) != 2 {
		t.Fatalf("expected 2 brokers, got %d", len(p.brokers))
	}
	if p.transport != nil {
		t.Error("expected default transport when TLS and SASL are disabled")
	}
	if len(p.writers) != 0 {
		t.Errorf("expected empty writers map, got %d entries", len(p.writers))
	}
}

func TestNewProducer_SASLMechanisms(t *testing.T) {
	tests := []struct {
		name      string
		mechanism string
		wantErr   bool
	}{
		{name: "plain", mechanism: "PLAIN"},
		{name: "empty defaults to plain", mechanism: ""},
		{name: "scram sha256", mechanism: "SCRAM-SHA-256"},
		{name: "scram sha512", mechanism: "SCRAM-SHA-512"},
		{name: "unsupported", mechanism: "GSSAPI", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProducer(Config{
				Brokers:       []string{"kafka:9093"},
				TLS:           true,
				SASLEnabled:   true,
				SASLMechanism: tt.mechanism,
				SASLUsername:  "appraisal",
				SASLPassword:  "secret",
			})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unsupported mechanism")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.transport == nil || p.transport.SASL == nil || p.transport.TLS == nil {
				t.Errorf("expected TLS and SASL transport, got %+v", p.transport)
			}
		})
	}
}

func TestGetOrCreateWriter(t *testing.T) {
	p, _ := NewProducer(Config{Brokers: []string{"localhost:9092"}})

	w1 := p.getOrCreateWriter("appraisal-events")
	w2 := p.getOrCreateWriter("appraisal-events")
	if w1 != w2 {
		t.Error("expected same writer instance for same topic")
	}

	w3 := p.getOrCreateWriter("appraisal-audit")
	if w1 == w3 {
		t.Error("expected different writer instance for different topic")
	}
	if len(p.writers) != 2 {
		t.Errorf("expected 2 writers, got %d", len(p.writers))
	}
}

func TestPublishWithoutMessagesIsNoop(t *testing.T) {
	p, _ := NewProducer(Config{Brokers: []string{"localhost:9092"}})

	if err := p.Publish(context.Background(), "appraisal-events"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.writers) != 0 {
		t.Error("expected no writer to be created for an empty publish")
	}
}

func TestProducerClose(t *testing.T) {
	p, _ := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	_ = p.getOrCreateWriter("topic-a")
	_ = p.getOrCreateWriter("topic-b")

	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error on close: %v", err)
	}
	if len(p.writers) != 0 {
		t.Errorf("expected 0 writers after close, got %d", len(p.writers))
	}
}
