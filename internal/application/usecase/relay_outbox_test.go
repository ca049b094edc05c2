package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/appraisal/internal/application/usecase"
	"github.com/bibbank/appraisal/internal/domain/event"
)

func TestOutboxRelay_Execute(t *testing.T) {
	t.Run("publishes pending events once", func(t *testing.T) {
		w := newWorkflow()
		w.publisher.publishFunc = func(context.Context, ...event.DomainEvent) error { return errBrokerDown }
		_, err := w.create.Execute(context.Background(), validCreateRequest())
		require.NoError(t, err)
		pub := &mockEventPublisher{}
		relay := usecase.NewOutboxRelay(w.repo, pub, discardLogger())

		n, err := relay.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{event.TypeApplicationCreated}, pub.types())

		n, err = relay.Execute(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Len(t, pub.publishedEvents, 1)
	})

	t.Run("leaves entries pending when the broker fails", func(t *testing.T) {
		w := newWorkflow()
		w.publisher.publishFunc = func(context.Context, ...event.DomainEvent) error { return errBrokerDown }
		_, err := w.create.Execute(context.Background(), validCreateRequest())
		require.NoError(t, err)

		n, err := w.relay.Execute(context.Background())

		assert.ErrorIs(t, err, errBrokerDown)
		assert.Zero(t, n)
		assert.Equal(t, 1, w.repo.pending())
	})

	t.Run("published payload is the stored event", func(t *testing.T) {
		w := newWorkflow()
		created, err := w.create.Execute(context.Background(), validCreateRequest())
		require.NoError(t, err)

		require.Len(t, w.publisher.publishedEvents, 1)
		evt := w.publisher.publishedEvents[0]
		assert.Equal(t, created.ID, evt.AggregateID())
		assert.Equal(t, created.TenantID, evt.TenantID())
		assert.Equal(t, w.repo.outbox[0].ID, evt.EventID())
	})
}
