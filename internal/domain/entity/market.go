package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketQuote is the latest price of the native asset.
type MarketQuote struct {
	CoinID    string          `json:"coinId"`
	Currency  string          `json:"currency"`
	Price     decimal.Decimal `json:"price"`
	Change24h float64         `json:"change24h"`
	MarketCap float64         `json:"marketCap"`
	Volume24h float64         `json:"volume24h"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Sentiment is the latest market sentiment reading.
type Sentiment struct {
	Score     float64   `json:"score"`
	Mean      float64   `json:"mean"`
	Count     int       `json:"count"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// MarketSnapshot combines the latest quote and sentiment. Either may be nil
// until the first successful poll.
type MarketSnapshot struct {
	Quote     *MarketQuote `json:"quote"`
	Sentiment *Sentiment   `json:"sentiment"`
}

// AlertDirection selects when a price alert fires.
type AlertDirection string

const (
	AlertAbove AlertDirection = "above"
	AlertBelow AlertDirection = "below"
)

// AlertRule is a persisted price alert.
type AlertRule struct {
	ID            string          `json:"id"`
	Direction     AlertDirection  `json:"direction"`
	Threshold     decimal.Decimal `json:"threshold"`
	Enabled       bool            `json:"enabled"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastTriggered *time.Time      `json:"lastTriggered,omitempty"`
	Armed         bool            `json:"armed"`
}

// Matches reports whether price satisfies the rule's condition.
func (r AlertRule) Matches(price decimal.Decimal) bool {
	switch r.Direction {
	case AlertAbove:
		return price.GreaterThanOrEqual(r.Threshold)
	case AlertBelow:
		return price.LessThanOrEqual(r.Threshold)
	}
	return false
}

// AlertEvent is emitted when a rule fires.
type AlertEvent struct {
	RuleID    string          `json:"ruleId"`
	Direction AlertDirection  `json:"direction"`
	Threshold decimal.Decimal `json:"threshold"`
	Price     decimal.Decimal `json:"price"`
	At        time.Time       `json:"at"`
}
