package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetwork_PollBuildsSnapshotAndCarriesFirstSeen(t *testing.T) {
	ledger := newFakeLedger()
	ledger.endpoints = []string{"https://a.example", "https://b.example"}
	ledger.infos["https://a.example"] = entity.ServerInfo{PublicKey: "n9KeyA", ValidatedLedgerIndex: 100, ServerState: "full"}
	ledger.infoErr["https://b.example"] = errors.New("connection refused")

	svc := NewNetworkService(ledger, nil, "mainnet", time.Minute, logger.NewNop())
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return t0 }

	first := svc.Poll(context.Background())
	require.Len(t, first.Nodes, 2)
	assert.True(t, first.Nodes[0].Reachable)
	assert.Equal(t, t0, first.Nodes[0].FirstSeen)
	assert.False(t, first.Nodes[1].Reachable)
	assert.Equal(t, "connection refused", first.Nodes[1].Error)
	assert.Equal(t, uint32(100), first.LedgerIndex)

	// b recovers and a moves on to a later ledger
	delete(ledger.infoErr, "https://b.example")
	ledger.infos["https://b.example"] = entity.ServerInfo{PublicKey: "n9KeyB", ValidatedLedgerIndex: 101}
	ledger.infos["https://a.example"] = entity.ServerInfo{PublicKey: "n9KeyA", ValidatedLedgerIndex: 102}
	t1 := t0.Add(time.Minute)
	svc.now = func() time.Time { return t1 }

	second := svc.Poll(context.Background())
	assert.Equal(t, t0, second.Nodes[0].FirstSeen, "first seen carried forward by public key")
	assert.Equal(t, t1, second.Nodes[1].FirstSeen)
	assert.Equal(t, uint32(102), second.LedgerIndex)
	assert.Equal(t, t1, svc.Snapshot().TakenAt)
}

func TestNetwork_LedgerEventsRaiseIndex(t *testing.T) {
	ledger := newFakeLedger()
	ledger.endpoints = []string{"https://a.example"}
	ledger.infos["https://a.example"] = entity.ServerInfo{PublicKey: "n9KeyA", ValidatedLedgerIndex: 100}
	svc := NewNetworkService(ledger, nil, "mainnet", time.Minute, logger.NewNop())
	svc.Poll(context.Background())

	svc.observeLedger(entity.LedgerEvent{LedgerIndex: 105})
	svc.observeLedger(entity.LedgerEvent{LedgerIndex: 103})
	assert.Equal(t, uint32(105), svc.Snapshot().LedgerIndex)

	// a poll never moves the index backwards past the stream
	assert.Equal(t, uint32(105), svc.Poll(context.Background()).LedgerIndex)
}

type chanStream struct {
	events  chan entity.LedgerEvent
	started bool
	stopped chan struct{}
}

func (s *chanStream) Start(context.Context)             { s.started = true }
func (s *chanStream) Stop()                             { close(s.stopped) }
func (s *chanStream) Events() <-chan entity.LedgerEvent { return s.events }

func TestNetwork_StartConsumesStreamAndStops(t *testing.T) {
	ledger := newFakeLedger()
	stream := &chanStream{events: make(chan entity.LedgerEvent, 1), stopped: make(chan struct{})}
	svc := NewNetworkService(ledger, stream, "testnet", time.Hour, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	stream.events <- entity.LedgerEvent{LedgerIndex: 77}

	assert.Eventually(t, func() bool { return svc.Snapshot().LedgerIndex == 77 }, time.Second, 5*time.Millisecond)
	cancel()
	svc.Wait()

	assert.True(t, stream.started)
	select {
	case <-stream.stopped:
	default:
		t.Fatal("stream not stopped")
	}
}
