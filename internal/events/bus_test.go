package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keel/internal/coordinate"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	first := bus.Subscribe(4)
	second := bus.Subscribe(4)

	payload := ModulePayload{Coordinate: coordinate.MustParse("g:a:1.0.0"), To: "Resolved"}
	bus.Dispatch(KindModuleResolved, payload)

	for _, ch := range []<-chan Event{first, second} {
		select {
		case ev := <-ch:
			assert.Equal(t, KindModuleResolved, ev.Kind)
			assert.Equal(t, payload, ev.Payload)
			assert.False(t, ev.Timestamp.IsZero())
		default:
			t.Fatal("expected an event")
		}
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(1)

	bus.Dispatch(KindProcessSubmitted, nil)
	bus.Dispatch(KindProcessCompleted, nil)

	require.Len(t, ch, 1)
	ev := <-ch
	assert.Equal(t, KindProcessSubmitted, ev.Kind)
}

func TestBusUnsubscribeAndClose(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(0)
	other := bus.Subscribe(0)

	bus.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)

	bus.Close()
	_, open = <-other
	assert.False(t, open)

	// Dispatch and Subscribe after Close are harmless.
	bus.Dispatch(KindModuleStarted, nil)
	late := bus.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
	bus.Close()
}

func TestSinkFunc(t *testing.T) {
	var got []Kind
	var sink Sink = SinkFunc(func(kind Kind, _ any) { got = append(got, kind) })
	sink.Dispatch(KindModuleStopped, nil)
	Discard.Dispatch(KindModuleStopped, nil)
	assert.Equal(t, []Kind{KindModuleStopped}, got)
}
