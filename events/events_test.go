package events

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"lotto/models"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		defer wg.Done()
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			eventReceived <- balanceEvent
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	testEvent := BalanceChangeEvent{
		Address:         alice,
		OldBalance:      big.NewInt(1000),
		NewBalance:      big.NewInt(1500),
		TransactionType: models.TransactionTypePayout,
		ChangeAmount:    big.NewInt(500),
	}

	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, transactionalBus.Pending())

	wg.Wait()

	select {
	case receivedEvent := <-eventReceived:
		assert.Equal(t, testEvent.Address, receivedEvent.Address)
		assert.Equal(t, "1000", receivedEvent.OldBalance.String())
		assert.Equal(t, "1500", receivedEvent.NewBalance.String())
		assert.Equal(t, testEvent.TransactionType, receivedEvent.TransactionType)
		assert.Equal(t, "500", receivedEvent.ChangeAmount.String())
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestMultipleEventTypesDelivery tests that each handler only sees its own event type
func TestMultipleEventTypesDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	entries := make(chan EntryAdmittedEvent, 2)
	winners := make(chan WinnerPickedEvent, 1)
	var wg sync.WaitGroup
	wg.Add(3)

	mainBus.Subscribe(EventTypeEntryAdmitted, func(ctx context.Context, event Event) {
		defer wg.Done()
		entries <- event.(EntryAdmittedEvent)
	})
	mainBus.Subscribe(EventTypeWinnerPicked, func(ctx context.Context, event Event) {
		defer wg.Done()
		winners <- event.(WinnerPickedEvent)
	})

	transactionalBus.Publish(EntryAdmittedEvent{Round: 1, Position: 0, Address: alice, Stake: big.NewInt(10)})
	transactionalBus.Publish(EntryAdmittedEvent{Round: 1, Position: 1, Address: bob, Stake: big.NewInt(10)})
	transactionalBus.Publish(WinnerPickedEvent{Round: 1, Winner: bob, Payout: big.NewInt(20), EntrantSize: 2})

	assert.NoError(t, transactionalBus.Flush(context.Background()))
	wg.Wait()

	assert.Len(t, entries, 2)
	select {
	case winner := <-winners:
		assert.Equal(t, bob, winner.Winner)
		assert.Equal(t, "20", winner.Payout.String())
	case <-time.After(2 * time.Second):
		t.Fatal("Winner event was not received within timeout")
	}
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(BalanceChangeEvent{
		Address:         alice,
		OldBalance:      big.NewInt(1000),
		NewBalance:      big.NewInt(900),
		TransactionType: models.TransactionTypeStake,
		ChangeAmount:    big.NewInt(-100),
	})

	transactionalBus.Discard()
	assert.NoError(t, transactionalBus.Flush(context.Background()))

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

// TestBusRecoversFromPanickingHandler tests that one bad handler does not stop others
func TestBusRecoversFromPanickingHandler(t *testing.T) {
	bus := NewBus()

	delivered := make(chan struct{}, 1)
	bus.Subscribe(EventTypeWinnerPicked, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeWinnerPicked, func(ctx context.Context, event Event) {
		delivered <- struct{}{}
	})

	bus.Publish(WinnerPickedEvent{Round: 3, Winner: alice, Payout: big.NewInt(1)})

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("Healthy handler was not called")
	}
}

func TestSubscribeAll(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	seen := make(map[EventType]bool)
	var wg sync.WaitGroup
	wg.Add(len(AllEventTypes))

	bus.SubscribeAll(func(ctx context.Context, event Event) {
		defer wg.Done()
		mu.Lock()
		seen[event.Type()] = true
		mu.Unlock()
	})

	bus.Publish(BalanceChangeEvent{Address: alice})
	bus.Publish(EntryAdmittedEvent{Address: alice})
	bus.Publish(WinnerPickedEvent{Winner: alice})
	wg.Wait()

	for _, eventType := range AllEventTypes {
		assert.True(t, seen[eventType], "missing %s", eventType)
	}
}
