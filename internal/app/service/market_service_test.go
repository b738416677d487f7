package service

import (
	"context"
	"errors"
	"testing"

	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMarket(feed *fakePriceFeed) *MarketService {
	return NewMarketService(feed, fakeSentimentFeed{}, MarketServiceOptions{}, logger.NewNop())
}

func TestMarket_AlertFiresOncePerCrossing(t *testing.T) {
	feed := &fakePriceFeed{prices: []string{"0.90", "1.10", "1.20", "0.80", "1.30"}}
	svc := newTestMarket(feed)
	rule, err := svc.AddAlert(entity.AlertRule{Direction: entity.AlertAbove, Threshold: decimal.RequireFromString("1")})
	require.NoError(t, err)
	assert.True(t, rule.Armed)
	assert.True(t, rule.Enabled)

	for range feed.prices {
		svc.Poll(context.Background())
	}

	events := svc.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "1.1", events[0].Price.String())
	assert.Equal(t, "1.3", events[1].Price.String())
	assert.Equal(t, rule.ID, events[0].RuleID)

	alerts := svc.Alerts()
	require.Len(t, alerts, 1)
	assert.NotNil(t, alerts[0].LastTriggered)
	assert.False(t, alerts[0].Armed)
}

func TestMarket_BelowAlertAndDisabledRule(t *testing.T) {
	feed := &fakePriceFeed{prices: []string{"0.40"}}
	svc := newTestMarket(feed)
	_, err := svc.AddAlert(entity.AlertRule{Direction: "BELOW", Threshold: decimal.RequireFromString("0.5")})
	require.NoError(t, err)
	svc.Restore(append(svc.Alerts(), entity.AlertRule{ID: "off", Direction: entity.AlertBelow, Threshold: decimal.NewFromInt(1), Armed: true}))

	svc.Poll(context.Background())

	events := svc.Events()
	require.Len(t, events, 1)
	assert.Equal(t, entity.AlertBelow, events[0].Direction)
}

func TestMarket_FailedPollKeepsLastQuote(t *testing.T) {
	feed := &fakePriceFeed{prices: []string{"0.55", "0"}, errs: []error{nil, errors.New("rate limited")}}
	svc := newTestMarket(feed)

	svc.Poll(context.Background())
	svc.Poll(context.Background())

	snap := svc.Snapshot()
	require.NotNil(t, snap.Quote)
	assert.Equal(t, "0.55", snap.Quote.Price.String())
	require.NotNil(t, snap.Sentiment)
	assert.Equal(t, 12, snap.Sentiment.Count)
}

func TestMarket_SnapshotEmptyBeforeFirstPoll(t *testing.T) {
	svc := newTestMarket(&fakePriceFeed{prices: []string{"1"}})

	snap := svc.Snapshot()

	assert.Nil(t, snap.Quote)
	assert.Nil(t, snap.Sentiment)
}

func TestMarket_AddAlertValidation(t *testing.T) {
	svc := newTestMarket(&fakePriceFeed{prices: []string{"1"}})

	_, err := svc.AddAlert(entity.AlertRule{Direction: "sideways", Threshold: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, entity.ErrInvalidAlert)

	_, err = svc.AddAlert(entity.AlertRule{Direction: entity.AlertAbove, Threshold: decimal.Zero})
	assert.ErrorIs(t, err, entity.ErrInvalidAlert)

	assert.Empty(t, svc.Alerts())
}

func TestMarket_RemoveAlert(t *testing.T) {
	svc := newTestMarket(&fakePriceFeed{prices: []string{"1"}})
	rule, err := svc.AddAlert(entity.AlertRule{Direction: entity.AlertAbove, Threshold: decimal.NewFromInt(2)})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveAlert(rule.ID))
	assert.Empty(t, svc.Alerts())
	assert.ErrorIs(t, svc.RemoveAlert(rule.ID), entity.ErrAlertNotFound)
}
