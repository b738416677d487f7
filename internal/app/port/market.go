package port

import (
	"context"

	"xrpl_control_room/internal/domain/entity"
)

// PriceFeed returns the current quote of a coin.
type PriceFeed interface {
	GetQuote(ctx context.Context, coinID, vsCurrency string) (entity.MarketQuote, error)
}

// SentimentFeed returns the latest sentiment reading.
type SentimentFeed interface {
	GetSentiment(ctx context.Context) (entity.Sentiment, error)
}

// MarketService exposes the polled market data and price alerts.
type MarketService interface {
	Snapshot() entity.MarketSnapshot
	Alerts() []entity.AlertRule
	AddAlert(rule entity.AlertRule) (entity.AlertRule, error)
	RemoveAlert(id string) error
	Events() []entity.AlertEvent
}

// NetworkService exposes the latest network snapshot.
type NetworkService interface {
	Snapshot() entity.NetworkSnapshot
}
