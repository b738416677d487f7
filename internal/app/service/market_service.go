package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/infrastructure/configloader"
	"xrpl_control_room/internal/pkg/metrics"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const (
	quoteCacheKey     = "market:quote"
	sentimentCacheKey = "market:sentiment"
	maxAlertEvents    = 100
)

// MarketServiceOptions configures the market poller.
type MarketServiceOptions struct {
	CoinID       string
	VsCurrency   string
	PollInterval time.Duration
	CacheTTL     time.Duration
}

// MarketServiceOptionsFromConfig maps the market config section.
func MarketServiceOptionsFromConfig(cfg configloader.MarketConfig) MarketServiceOptions {
	return MarketServiceOptions{
		CoinID:       cfg.CoinGecko.CoinID,
		VsCurrency:   cfg.CoinGecko.VsCurrency,
		PollInterval: time.Duration(cfg.PollIntervalSec) * time.Second,
		CacheTTL:     time.Duration(cfg.CacheTTLMinutes) * time.Minute,
	}
}

// MarketService polls the price and sentiment feeds and evaluates price
// alerts against every new quote. A failed poll is logged and retried on the
// next tick.
type MarketService struct {
	prices    port.PriceFeed
	sentiment port.SentimentFeed
	opts      MarketServiceOptions
	cache     *gocache.Cache
	logger    port.Logger
	now       func() time.Time

	mu     sync.RWMutex
	alerts []entity.AlertRule
	events []entity.AlertEvent

	changes notifier
	wg      sync.WaitGroup
}

// NewMarketService creates the poller. sentiment may be nil when the feed is disabled.
func NewMarketService(prices port.PriceFeed, sentiment port.SentimentFeed, opts MarketServiceOptions, logger port.Logger) *MarketService {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.CoinID == "" {
		opts.CoinID = "ripple"
	}
	if opts.VsCurrency == "" {
		opts.VsCurrency = "usd"
	}
	return &MarketService{
		prices:    prices,
		sentiment: sentiment,
		opts:      opts,
		cache:     gocache.New(opts.CacheTTL, 2*opts.CacheTTL),
		logger:    logger,
		now:       time.Now,
		alerts:    []entity.AlertRule{},
	}
}

// Start polls once immediately and then on every interval until ctx is done.
func (s *MarketService) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.PollInterval)
		defer ticker.Stop()
		s.logger.Info("Market poller started", "interval", s.opts.PollInterval, "coin", s.opts.CoinID)
		s.Poll(ctx)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Market poller stopped")
				return
			case <-ticker.C:
				s.Poll(ctx)
			}
		}
	}()
}

// Wait blocks until the poller exits.
func (s *MarketService) Wait() {
	s.wg.Wait()
}

// Subscribe notifies on alert rule changes.
func (s *MarketService) Subscribe() (<-chan string, func()) {
	return s.changes.subscribe()
}

// Poll fetches the quote and sentiment once.
func (s *MarketService) Poll(ctx context.Context) {
	quote, err := s.prices.GetQuote(ctx, s.opts.CoinID, s.opts.VsCurrency)
	if err != nil {
		metrics.PollTotal.WithLabelValues("market_quote", "error").Inc()
		s.logger.Warn("Price poll failed, retrying next tick", "error", err)
	} else {
		metrics.PollTotal.WithLabelValues("market_quote", "ok").Inc()
		s.cache.SetDefault(quoteCacheKey, quote)
		s.evaluate(quote)
	}

	if s.sentiment == nil {
		return
	}
	sentiment, err := s.sentiment.GetSentiment(ctx)
	if err != nil {
		metrics.PollTotal.WithLabelValues("market_sentiment", "error").Inc()
		s.logger.Warn("Sentiment poll failed, retrying next tick", "error", err)
		return
	}
	metrics.PollTotal.WithLabelValues("market_sentiment", "ok").Inc()
	s.cache.SetDefault(sentimentCacheKey, sentiment)
}

// Snapshot returns the cached quote and sentiment. Entries older than the
// cache TTL are reported as missing.
func (s *MarketService) Snapshot() entity.MarketSnapshot {
	var snap entity.MarketSnapshot
	if v, ok := s.cache.Get(quoteCacheKey); ok {
		q := v.(entity.MarketQuote)
		snap.Quote = &q
	}
	if v, ok := s.cache.Get(sentimentCacheKey); ok {
		sent := v.(entity.Sentiment)
		snap.Sentiment = &sent
	}
	return snap
}

// evaluate fires every armed rule whose condition holds and re-arms rules
// whose condition no longer holds, so a rule fires once per crossing.
func (s *MarketService) evaluate(quote entity.MarketQuote) {
	s.mu.Lock()
	var fired []entity.AlertEvent
	changed := false
	for i := range s.alerts {
		rule := &s.alerts[i]
		if !rule.Enabled {
			continue
		}
		matches := rule.Matches(quote.Price)
		switch {
		case matches && rule.Armed:
			at := s.now().UTC()
			rule.Armed = false
			rule.LastTriggered = &at
			fired = append(fired, entity.AlertEvent{
				RuleID:    rule.ID,
				Direction: rule.Direction,
				Threshold: rule.Threshold,
				Price:     quote.Price,
				At:        at,
			})
			changed = true
		case !matches && !rule.Armed:
			rule.Armed = true
			changed = true
		}
	}
	s.events = append(s.events, fired...)
	if over := len(s.events) - maxAlertEvents; over > 0 {
		s.events = append([]entity.AlertEvent(nil), s.events[over:]...)
	}
	s.mu.Unlock()

	for _, ev := range fired {
		s.logger.Info("Price alert triggered",
			"rule", ev.RuleID, "direction", ev.Direction, "threshold", ev.Threshold.String(), "price", ev.Price.String())
	}
	if changed {
		s.changes.publish("")
	}
}

// Alerts returns a copy of the alert rules.
func (s *MarketService) Alerts() []entity.AlertRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAlerts(s.alerts)
}

// Events returns the most recent alert firings, oldest first.
func (s *MarketService) Events() []entity.AlertEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.AlertEvent{}, s.events...)
}

// AddAlert validates and stores a new enabled, armed rule.
func (s *MarketService) AddAlert(rule entity.AlertRule) (entity.AlertRule, error) {
	rule.Direction = entity.AlertDirection(strings.ToLower(string(rule.Direction)))
	if rule.Direction != entity.AlertAbove && rule.Direction != entity.AlertBelow {
		return entity.AlertRule{}, fmt.Errorf("%w: direction must be above or below", entity.ErrInvalidAlert)
	}
	if !rule.Threshold.IsPositive() {
		return entity.AlertRule{}, fmt.Errorf("%w: threshold must be positive", entity.ErrInvalidAlert)
	}
	rule.ID = uuid.NewString()
	rule.CreatedAt = s.now().UTC()
	rule.Enabled = true
	rule.Armed = true
	rule.LastTriggered = nil

	s.mu.Lock()
	s.alerts = append(s.alerts, rule)
	s.mu.Unlock()

	s.logger.Info("Price alert added", "id", rule.ID, "direction", rule.Direction, "threshold", rule.Threshold.String())
	s.changes.publish(rule.ID)
	return rule, nil
}

// RemoveAlert deletes a rule by ID.
func (s *MarketService) RemoveAlert(id string) error {
	s.mu.Lock()
	idx := -1
	for i, r := range s.alerts {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", entity.ErrAlertNotFound, id)
	}
	s.alerts = append(s.alerts[:idx], s.alerts[idx+1:]...)
	s.mu.Unlock()

	s.changes.publish(id)
	return nil
}

// Restore replaces the alert rules with persisted ones.
func (s *MarketService) Restore(alerts []entity.AlertRule) {
	s.mu.Lock()
	s.alerts = cloneAlerts(alerts)
	s.mu.Unlock()
	s.logger.Info("Price alerts restored", "count", len(alerts))
}

func cloneAlerts(in []entity.AlertRule) []entity.AlertRule {
	out := make([]entity.AlertRule, len(in))
	copy(out, in)
	for i := range out {
		if in[i].LastTriggered != nil {
			t := *in[i].LastTriggered
			out[i].LastTriggered = &t
		}
	}
	return out
}
