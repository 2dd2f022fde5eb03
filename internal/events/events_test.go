package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishNotifiesSubscribers(t *testing.T) {
	bus := NewEventBus()

	var got []*Event
	bus.Subscribe(EventBookingCreated, func(e *Event) error {
		got = append(got, e)
		return nil
	})
	bus.Subscribe(EventBookingClosed, func(e *Event) error {
		t.Fatal("wrong event type delivered")
		return nil
	})

	bus.Publish(&Event{Type: EventBookingCreated})
	require.Len(t, got, 1)
	assert.Equal(t, EventBookingCreated, got[0].Type)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestPublishJSON(t *testing.T) {
	bus := NewEventBus()

	var payloads [][]byte
	bus.Subscribe(EventResponseRecorded, func(e *Event) error {
		payloads = append(payloads, e.Payload)
		return nil
	})

	err := bus.PublishJSON(EventResponseRecorded, ResponseEventPayload{
		BookingID: 7,
		Decision:  "Accept",
	})
	require.NoError(t, err)
	require.Len(t, payloads, 1)

	var decoded ResponseEventPayload
	require.NoError(t, json.Unmarshal(payloads[0], &decoded))
	assert.Equal(t, int64(7), decoded.BookingID)
	assert.Equal(t, "Accept", decoded.Decision)
}

func TestPublishJSON_UnmarshalablePayload(t *testing.T) {
	bus := NewEventBus()
	err := bus.PublishJSON(EventBookingCreated, make(chan int))
	assert.Error(t, err)
}

func TestPublishJSON_NilBus(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventBookingCreated, nil))
}

func TestHandlerErrorsDoNotStopDelivery(t *testing.T) {
	bus := NewEventBus()

	delivered := 0
	bus.Subscribe(EventBookingClosed, func(e *Event) error {
		return errors.New("handler failed")
	})
	bus.Subscribe(EventBookingClosed, func(e *Event) error {
		delivered++
		return nil
	})

	bus.Publish(&Event{Type: EventBookingClosed})
	assert.Equal(t, 1, delivered)
}
