package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotto/events"
)

type sentMessage struct {
	subject string
	data    []byte
}

type recordingClient struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
	got  chan struct{}
}

func newRecordingClient() *recordingClient {
	return &recordingClient{got: make(chan struct{}, 16)}
}

func (c *recordingClient) Publish(_ context.Context, subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sentMessage{subject: subject, data: data})
	c.got <- struct{}{}
	return nil
}

func (c *recordingClient) messages() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentMessage(nil), c.sent...)
}

func TestNATSPublisher_Subjects(t *testing.T) {
	p := NewNATSPublisher(newRecordingClient(), "lotto")

	assert.Equal(t, "lotto.winner_picked", p.Subject(events.EventTypeWinnerPicked))
	assert.ElementsMatch(t, []string{
		"lotto.balance_change",
		"lotto.entry_admitted",
		"lotto.winner_picked",
	}, p.Subjects())
}

func TestNATSPublisher_PublishEnvelope(t *testing.T) {
	client := newRecordingClient()
	p := NewNATSPublisher(client, "lotto")
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	winner := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	err := p.Publish(context.Background(), events.WinnerPickedEvent{
		Round:       7,
		Winner:      winner,
		Payout:      big.NewInt(40000000000000000),
		EntrantSize: 2,
	})
	require.NoError(t, err)

	sent := client.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "lotto.winner_picked", sent[0].subject)

	var env Envelope
	require.NoError(t, json.Unmarshal(sent[0].data, &env))
	assert.Equal(t, "winner_picked", env.EventType)
	assert.Equal(t, "lotto", env.SourceService)
	assert.Equal(t, fixed, env.Timestamp)
	_, err = uuid.Parse(env.EventID)
	assert.NoError(t, err)

	var payload events.WinnerPickedEvent
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, winner, payload.Winner)
	assert.Equal(t, int64(7), payload.Round)
	assert.Equal(t, "40000000000000000", payload.Payout.String())
}

func TestNATSPublisher_PublishError(t *testing.T) {
	client := newRecordingClient()
	client.err = errors.New("no responders")
	p := NewNATSPublisher(client, "lotto")

	err := p.Publish(context.Background(), events.EntryAdmittedEvent{Round: 1})

	assert.ErrorIs(t, err, client.err)
}

func TestNATSPublisher_AttachForwardsBusEvents(t *testing.T) {
	client := newRecordingClient()
	bus := events.NewBus()
	NewNATSPublisher(client, "lotto").Attach(bus)

	bus.Emit(context.Background(), events.EntryAdmittedEvent{Round: 1, Position: 0, PoolSize: 1})

	select {
	case <-client.got:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not forwarded")
	}
	sent := client.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "lotto.entry_admitted", sent[0].subject)
}
