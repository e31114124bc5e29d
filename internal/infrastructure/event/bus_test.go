package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/consignment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
		Data:            "test data",
	}
}

type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	err, p := h.err, h.panicWith
	h.mu.Unlock()
	if p != nil {
		panic(p)
	}
	return err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to subscribed handlers in order", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := newTestHandler("ConsignmentSettled")
		bus.Subscribe(handler)

		first := newTestEvent("ConsignmentSettled")
		second := newTestEvent("ConsignmentSettled")
		require.NoError(t, bus.Publish(ctx, first, second))

		handled := handler.getHandled()
		require.Len(t, handled, 2)
		assert.Equal(t, first, handled[0])
		assert.Equal(t, second, handled[1])
	})

	t.Run("explicit types override the handler's own", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := newTestHandler("ConsignmentSettled")
		bus.Subscribe(handler, "ConsignmentClosed")

		require.NoError(t, bus.Publish(ctx, newTestEvent("ConsignmentSettled"), newTestEvent("ConsignmentClosed")))

		handled := handler.getHandled()
		require.Len(t, handled, 1)
		assert.Equal(t, "ConsignmentClosed", handled[0].EventType())
	})

	t.Run("wildcard handlers receive everything", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		wildcard := newTestHandler()
		bus.Subscribe(wildcard)

		require.NoError(t, bus.Publish(ctx, newTestEvent("A"), newTestEvent("B")))
		assert.Len(t, wildcard.getHandled(), 2)
	})

	t.Run("failing handlers do not stop the others", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		failing := newTestHandler("ConsignmentClosed")
		failing.err = errors.New("archive unavailable")
		panicking := newTestHandler("ConsignmentClosed")
		panicking.panicWith = "boom"
		healthy := newTestHandler("ConsignmentClosed")
		bus.Subscribe(failing)
		bus.Subscribe(panicking)
		bus.Subscribe(healthy)

		require.NoError(t, bus.Publish(ctx, newTestEvent("ConsignmentClosed")))

		assert.Len(t, failing.getHandled(), 1)
		assert.Len(t, panicking.getHandled(), 1)
		assert.Len(t, healthy.getHandled(), 1)
		assert.Equal(t, int64(2), bus.Failures())
	})

	t.Run("unmatched events are dropped", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := newTestHandler("Other")
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(ctx, newTestEvent("ConsignmentCreated")))
		assert.Empty(t, handler.getHandled())
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(nil)

	handler := newTestHandler("A", "B")
	bus.Subscribe(handler)
	require.NoError(t, bus.Publish(ctx, newTestEvent("A")))

	bus.Unsubscribe(handler)
	require.NoError(t, bus.Publish(ctx, newTestEvent("A"), newTestEvent("B")))

	assert.Len(t, handler.getHandled(), 1)
	assert.Zero(t, bus.registry.Count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(newTestHandler("A"))

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.running.Load())
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.running.Load())
}

func TestHandlerRegistry_Count(t *testing.T) {
	r := NewHandlerRegistry()
	h1 := newTestHandler()
	h2 := newTestHandler()
	r.Register(h1, "A", "B")
	r.Register(h2)

	assert.Equal(t, 2, r.Count())
	assert.Len(t, r.GetHandlers("A"), 2)
	assert.Len(t, r.GetHandlers("C"), 1)
}
