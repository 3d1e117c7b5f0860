package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	first, cancelFirst := bus.Subscribe(1)
	defer cancelFirst()
	second, cancelSecond := bus.Subscribe(1)
	defer cancelSecond()

	bus.Publish(Change{Entity: "event", ID: "e-1", Action: ActionCreated})

	for _, ch := range []<-chan Change{first, second} {
		select {
		case change := <-ch:
			assert.Equal(t, "e-1", change.ID)
			assert.False(t, change.At.IsZero())
		default:
			t.Fatal("expected a delivered change")
		}
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	// Second publish overflows the buffer and is dropped, not queued.
	bus.Publish(Change{Entity: "event", ID: "e-1", Action: ActionCreated})
	bus.Publish(Change{Entity: "event", ID: "e-2", Action: ActionUpdated})

	change := <-ch
	assert.Equal(t, "e-1", change.ID)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra change %v", extra)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)

	cancel()
	_, open := <-ch
	require.False(t, open)

	// Cancelling twice must not panic, publishing after must not either.
	cancel()
	bus.Publish(Change{Entity: "event", ID: "e-1", Action: ActionDeleted})
}
