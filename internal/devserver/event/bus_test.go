package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToEverySubscriber(t *testing.T) {
	bus := NewBus()
	first, unsubscribeFirst := bus.Subscribe()
	second, unsubscribeSecond := bus.Subscribe()
	defer unsubscribeSecond()

	bus.Publish(Event{Type: TypeTicketConsumed, Payload: int64(4)})

	got := <-first
	assert.Equal(t, TypeTicketConsumed, got.Type)
	assert.NotEmpty(t, got.ID)
	assert.NotEmpty(t, got.Timestamp)
	assert.Equal(t, got.ID, (<-second).ID)

	unsubscribeFirst()
	_, open := <-first
	assert.False(t, open)

	bus.Publish(Event{Type: TypeOfferDeleted})
	require.Equal(t, TypeOfferDeleted, (<-second).Type)
}

func TestBusCountsDropsForSlowSubscribers(t *testing.T) {
	bus := NewBus()
	_, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		bus.Publish(Event{Type: TypeOTPIssued})
	}

	assert.Equal(t, int64(5), bus.Dropped())
}

func TestBusCloseEndsSubscriptions(t *testing.T) {
	bus := NewBus()
	feed, unsubscribe := bus.Subscribe()

	bus.Close()
	_, open := <-feed
	assert.False(t, open)
	unsubscribe()

	late, _ := bus.Subscribe()
	_, open = <-late
	assert.False(t, open)

	bus.Publish(Event{Type: TypeOfferCreated})
	bus.Close()
}
