package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kasir-pos/internal/events"
)

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitFansOut(t *testing.T) {
	first := &captureNotifier{}
	second := &captureNotifier{}
	fixed := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	bus := events.Bus{
		Notifiers: []events.Notifier{first, second},
		Now:       func() time.Time { return fixed },
	}

	event, err := bus.Emit(context.Background(), events.TopicCartUpdated, "POS-001", map[string]any{"items": 2})
	require.NoError(t, err)
	require.Equal(t, events.TopicCartUpdated, event.Topic)
	require.Equal(t, "POS-001", event.OrderNumber)
	require.Equal(t, fixed, event.OccurredAt)
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	require.Equal(t, event.ID, first.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, float64(2), decoded["items"])
}

func TestEmitRequiresTopicAndOrderNumber(t *testing.T) {
	bus := events.Bus{}
	_, err := bus.Emit(context.Background(), "", "POS-001", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicCartCleared, " ", nil)
	require.Error(t, err)
}

func TestEmitNotifierFailureDoesNotStopFanOut(t *testing.T) {
	failing := &captureNotifier{err: errors.New("sink down")}
	healthy := &captureNotifier{}
	bus := events.Bus{Notifiers: []events.Notifier{failing, healthy}}

	_, err := bus.Emit(context.Background(), events.TopicSaleSubmitted, "POS-002", nil)
	require.Error(t, err)
	require.Len(t, failing.events, 1)
	require.Len(t, healthy.events, 1)
}

func TestEmitRejectsInvalidJSONPayload(t *testing.T) {
	bus := events.Bus{}
	_, err := bus.Emit(context.Background(), events.TopicCartUpdated, "POS-003", []byte("{not json"))
	require.Error(t, err)
}
