package httpclient

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/infrastructure/configloader"

	"github.com/spf13/cast"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// SentiCryptClient reads the public SentiCrypt sentiment feed.
type SentiCryptClient struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSentiCryptClient creates a new SentiCrypt client.
func NewSentiCryptClient(cfg configloader.SentiCryptConfig, logger *zap.Logger) *SentiCryptClient {
	return &SentiCryptClient{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		logger:  logger.Named("SentiCryptClient"),
	}
}

// GetSentiment implements port.SentimentFeed. It returns the most recent entry.
func (c *SentiCryptClient) GetSentiment(ctx context.Context) (entity.Sentiment, error) {
	requestURL := c.baseURL + "/all.json"

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := doWithContext(ctx, c.client, req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute request to SentiCrypt", zap.String("url", requestURL), zap.Error(err))
		return entity.Sentiment{}, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("SentiCrypt API request failed", zap.String("url", requestURL), zap.Int("statusCode", resp.StatusCode()))
		return entity.Sentiment{}, fmt.Errorf("SentiCrypt API request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	var entries []sentiCryptEntry
	if err := json.Unmarshal(resp.Body(), &entries); err != nil {
		return entity.Sentiment{}, fmt.Errorf("failed to unmarshal SentiCrypt response: %w", err)
	}
	if len(entries) == 0 {
		return entity.Sentiment{}, fmt.Errorf("SentiCrypt returned no entries")
	}

	latest := entries[0]
	latestAt := entryTime(latest)
	for _, e := range entries[1:] {
		if at := entryTime(e); at.After(latestAt) {
			latest, latestAt = e, at
		}
	}

	price := cast.ToFloat64(latest.Price)
	if price == 0 {
		price = cast.ToFloat64(latest.BTCPrice)
	}
	return entity.Sentiment{
		Score:     cast.ToFloat64(latest.Last),
		Mean:      cast.ToFloat64(latest.Mean),
		Count:     cast.ToInt(latest.Count),
		Price:     price,
		Timestamp: latestAt,
	}, nil
}

// entryTime prefers the unix timestamp and falls back to the date string.
func entryTime(e sentiCryptEntry) time.Time {
	if ts := cast.ToFloat64(e.Timestamp); ts > 0 {
		sec, frac := math.Modf(ts)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	if t, err := cast.ToTimeE(e.Date); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
