package stream

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/pkg/metrics"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const rippleEpochOffset = 946684800

// LedgerStream subscribes to the "ledger" stream of an XRPL WebSocket
// endpoint and publishes every closed ledger. It reconnects with backoff.
type LedgerStream struct {
	url    string
	logger port.Logger
	events chan entity.LedgerEvent

	mu     sync.RWMutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	wg     sync.WaitGroup

	ReadTimeout  time.Duration
	PingInterval time.Duration
	// Backoff computes the delay before reconnect attempt n.
	Backoff func(retry int) time.Duration
}

// NewLedgerStream creates a stream for the given wss:// URL.
func NewLedgerStream(url string, logger port.Logger) *LedgerStream {
	return &LedgerStream{
		url:          url,
		logger:       logger,
		events:       make(chan entity.LedgerEvent, 16),
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
		Backoff:      CalculateBackoff,
	}
}

// Events delivers closed ledgers. Events are dropped when the reader lags.
func (s *LedgerStream) Events() <-chan entity.LedgerEvent {
	return s.events
}

func (s *LedgerStream) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.runLoop(ctx)
}

func (s *LedgerStream) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.close()
	s.wg.Wait()
}

func (s *LedgerStream) runLoop(ctx context.Context) {
	defer s.wg.Done()
	retry := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.connect(ctx); err != nil {
			delay := s.Backoff(retry)
			s.logger.Warn("Ledger stream connection failed", "url", s.url, "error", err, "retry", retry, "delay", delay)
			retry++

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retry = 0
		s.process(ctx)
	}
}

func (s *LedgerStream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := make(http.Header)
	header.Set("User-Agent", "xrpl-control-room")

	conn, _, err := dialer.DialContext(ctx, s.url, header)
	if err != nil {
		return err
	}

	subscribe, _ := json.Marshal(map[string]any{
		"id":      "ledger-stream",
		"command": "subscribe",
		"streams": []string{"ledger"},
	})
	if err := conn.WriteMessage(websocket.TextMessage, subscribe); err != nil {
		_ = conn.Close()
		return fmt.Errorf("subscribe failed: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	if s.PingInterval > 0 {
		go s.pingLoop(ctx, conn)
	}
	s.logger.Info("Ledger stream connected", "url", s.url)
	return nil
}

func (s *LedgerStream) process(ctx context.Context) {
	for {
		s.mu.RLock()
		c := s.conn
		s.mu.RUnlock()
		if c == nil {
			return
		}

		_ = c.SetReadDeadline(time.Now().Add(s.ReadTimeout))
		_, msg, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("Ledger stream read error", "url", s.url, "error", err)
			}
			s.close()
			return
		}
		if ev, ok := parseLedgerMessage(msg); ok {
			s.publish(ev)
		}
	}
}

func (s *LedgerStream) publish(ev entity.LedgerEvent) {
	metrics.LedgerIndex.Set(float64(ev.LedgerIndex))
	select {
	case s.events <- ev:
	default:
		s.logger.Debug("Ledger event dropped, consumer is behind", "ledgerIndex", ev.LedgerIndex)
	}
}

func (s *LedgerStream) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			current := s.conn
			s.mu.RUnlock()
			if current != conn {
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				s.logger.Warn("Ledger stream ping failed", "url", s.url, "error", err)
				s.close()
				return
			}
		}
	}
}

func (s *LedgerStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// parseLedgerMessage accepts both the subscribe response, which carries the
// current ledger in "result", and ledgerClosed stream messages.
func parseLedgerMessage(msg []byte) (entity.LedgerEvent, bool) {
	var m map[string]any
	if err := json.Unmarshal(msg, &m); err != nil {
		return entity.LedgerEvent{}, false
	}
	switch cast.ToString(m["type"]) {
	case "ledgerClosed":
	case "response":
		result, ok := m["result"].(map[string]any)
		if !ok {
			return entity.LedgerEvent{}, false
		}
		m = result
	default:
		return entity.LedgerEvent{}, false
	}

	index := cast.ToUint32(m["ledger_index"])
	if index == 0 {
		return entity.LedgerEvent{}, false
	}
	ev := entity.LedgerEvent{
		LedgerIndex: index,
		LedgerHash:  cast.ToString(m["ledger_hash"]),
		TxnCount:    cast.ToInt(m["txn_count"]),
	}
	if closed := cast.ToInt64(m["ledger_time"]); closed > 0 {
		ev.ClosedAt = time.Unix(closed+rippleEpochOffset, 0).UTC()
	}
	return ev, true
}
