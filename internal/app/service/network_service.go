package service

import (
	"context"
	"sync"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// NetworkService polls server_info on every endpoint and follows the ledger
// stream for the latest validated ledger index.
type NetworkService struct {
	client   port.LedgerClient
	stream   port.LedgerStream
	network  string
	interval time.Duration
	logger   port.Logger
	now      func() time.Time

	mu          sync.RWMutex
	snapshot    entity.NetworkSnapshot
	firstSeen   map[string]time.Time
	streamIndex uint32

	wg sync.WaitGroup
}

// NewNetworkService creates the monitor. stream may be nil.
func NewNetworkService(client port.LedgerClient, stream port.LedgerStream, network string, interval time.Duration, logger port.Logger) *NetworkService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &NetworkService{
		client:    client,
		stream:    stream,
		network:   network,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		snapshot:  entity.NetworkSnapshot{Network: network, Nodes: []entity.NodeStatus{}},
		firstSeen: make(map[string]time.Time),
	}
}

// Start runs the poller and, if configured, the ledger stream until ctx is done.
func (s *NetworkService) Start(ctx context.Context) {
	if s.stream != nil {
		s.stream.Start(ctx)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.consume(ctx)
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.logger.Info("Network monitor started", "network", s.network, "interval", s.interval)
		s.Poll(ctx)
		for {
			select {
			case <-ctx.Done():
				if s.stream != nil {
					s.stream.Stop()
				}
				s.logger.Info("Network monitor stopped")
				return
			case <-ticker.C:
				s.Poll(ctx)
			}
		}
	}()
}

// Wait blocks until the poller and stream consumer exit.
func (s *NetworkService) Wait() {
	s.wg.Wait()
}

func (s *NetworkService) consume(ctx context.Context) {
	events := s.stream.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.observeLedger(ev)
		}
	}
}

func (s *NetworkService) observeLedger(ev entity.LedgerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.LedgerIndex <= s.streamIndex {
		return
	}
	s.streamIndex = ev.LedgerIndex
	if ev.LedgerIndex > s.snapshot.LedgerIndex {
		s.snapshot.LedgerIndex = ev.LedgerIndex
	}
}

// Poll queries every endpoint concurrently and replaces the snapshot.
func (s *NetworkService) Poll(ctx context.Context) entity.NetworkSnapshot {
	endpoints := s.client.Endpoints()
	nodes := make([]entity.NodeStatus, len(endpoints))

	var g errgroup.Group
	for i, endpoint := range endpoints {
		g.Go(func() error {
			info, err := s.client.ServerInfoAt(ctx, endpoint)
			if err != nil {
				nodes[i] = entity.NodeStatus{ServerInfo: entity.ServerInfo{Endpoint: endpoint}, Error: err.Error()}
				return nil
			}
			nodes[i] = entity.NodeStatus{ServerInfo: info, Reachable: true}
			return nil
		})
	}
	_ = g.Wait()

	now := s.now().UTC()
	reachable := 0

	s.mu.Lock()
	var ledgerIndex uint32
	for i := range nodes {
		node := &nodes[i]
		if !node.Reachable {
			continue
		}
		reachable++
		key := node.PublicKey
		if key == "" {
			key = node.Endpoint
		}
		first, ok := s.firstSeen[key]
		if !ok {
			first = now
			s.firstSeen[key] = first
		}
		node.FirstSeen = first
		ledgerIndex = max(ledgerIndex, node.ValidatedLedgerIndex)
	}
	ledgerIndex = max(ledgerIndex, s.streamIndex)
	s.snapshot = entity.NetworkSnapshot{
		Network:     s.network,
		TakenAt:     now,
		LedgerIndex: ledgerIndex,
		Nodes:       nodes,
	}
	snap := cloneNetworkSnapshot(s.snapshot)
	s.mu.Unlock()

	outcome := "ok"
	if reachable == 0 && len(endpoints) > 0 {
		outcome = "error"
	}
	metrics.PollTotal.WithLabelValues("network", outcome).Inc()
	if ledgerIndex > 0 {
		metrics.LedgerIndex.Set(float64(ledgerIndex))
	}
	s.logger.Debug("Network snapshot taken", "reachable", reachable, "of", len(endpoints), "ledgerIndex", ledgerIndex)
	return snap
}

// Snapshot returns the latest network snapshot.
func (s *NetworkService) Snapshot() entity.NetworkSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNetworkSnapshot(s.snapshot)
}

func cloneNetworkSnapshot(in entity.NetworkSnapshot) entity.NetworkSnapshot {
	out := in
	out.Nodes = append([]entity.NodeStatus{}, in.Nodes...)
	return out
}
