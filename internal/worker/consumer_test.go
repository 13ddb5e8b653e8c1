package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcknowledger struct {
	acks  int
	nacks int

	lastRequeue bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acks++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacks++
	a.lastRequeue = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.nacks++
	a.lastRequeue = requeue
	return nil
}

func testDispatchWorker() *Worker {
	return &Worker{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		jobsChan: make(chan jobDelivery, 1),
	}
}

func TestDispatchRejectsMalformedMessage(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "invalid json", body: []byte("{not json")},
		{name: "missing job id", body: []byte(`{"ownerId": 1}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testDispatchWorker()
			acker := &fakeAcknowledger{}

			deliveries := make(chan amqp.Delivery, 1)
			deliveries <- amqp.Delivery{Acknowledger: acker, Body: tt.body}
			close(deliveries)

			resubscribe := w.dispatch(context.Background(), deliveries)
			assert.True(t, resubscribe, "closed delivery channel asks for a resubscribe")

			assert.Equal(t, 1, acker.nacks)
			assert.False(t, acker.lastRequeue, "malformed messages must not requeue")
			assert.Empty(t, w.jobsChan)
		})
	}
}

func TestDispatchForwardsValidMessage(t *testing.T) {
	w := testDispatchWorker()
	acker := &fakeAcknowledger{}

	body, err := json.Marshal(testMessage())
	require.NoError(t, err)

	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{Acknowledger: acker, Body: body, DeliveryTag: 3}
	close(deliveries)

	resubscribe := w.dispatch(context.Background(), deliveries)
	assert.True(t, resubscribe)

	select {
	case jd := <-w.jobsChan:
		assert.Equal(t, testMessage().JobID, jd.msg.JobID)
		assert.Equal(t, uint64(3), jd.delivery.DeliveryTag)
	default:
		t.Fatal("expected message on jobsChan")
	}

	assert.Zero(t, acker.acks, "dispatching must not settle the delivery")
	assert.Zero(t, acker.nacks)
}

func TestDispatchStopsOnContextCancel(t *testing.T) {
	w := testDispatchWorker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	deliveries := make(chan amqp.Delivery)
	done := make(chan bool, 1)
	go func() {
		done <- w.dispatch(ctx, deliveries)
	}()

	select {
	case resubscribe := <-done:
		assert.False(t, resubscribe, "cancellation stops the consumer for good")
	case <-time.After(time.Second):
		t.Fatal("dispatch did not return after context cancellation")
	}
}
