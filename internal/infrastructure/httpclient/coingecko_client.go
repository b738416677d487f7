package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/infrastructure/configloader"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CoinGeckoClient fetches spot prices from the CoinGecko API.
type CoinGeckoClient struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCoinGeckoClient creates a new CoinGecko client.
func NewCoinGeckoClient(cfg configloader.CoinGeckoConfig, logger *zap.Logger) *CoinGeckoClient {
	return &CoinGeckoClient{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		logger:  logger.Named("CoinGeckoClient"),
	}
}

// GetQuote implements port.PriceFeed.
func (c *CoinGeckoClient) GetQuote(ctx context.Context, coinID, vsCurrency string) (entity.MarketQuote, error) {
	prices, err := c.SimplePrice(ctx, []string{coinID}, vsCurrency)
	if err != nil {
		return entity.MarketQuote{}, err
	}
	quote, ok := prices[coinID]
	if !ok {
		return entity.MarketQuote{}, fmt.Errorf("CoinGecko response has no price for %s", coinID)
	}
	return quote, nil
}

// SimplePrice queries /simple/price for several coins at once.
func (c *CoinGeckoClient) SimplePrice(ctx context.Context, coinIDs []string, vsCurrency string) (map[string]entity.MarketQuote, error) {
	if len(coinIDs) == 0 {
		return nil, fmt.Errorf("coinIDs cannot be empty")
	}
	vsCurrency = strings.ToLower(vsCurrency)

	query := url.Values{}
	query.Set("ids", strings.Join(coinIDs, ","))
	query.Set("vs_currencies", vsCurrency)
	query.Set("include_24hr_change", "true")
	query.Set("include_market_cap", "true")
	query.Set("include_24hr_vol", "true")
	requestURL := c.baseURL + "/simple/price?" + query.Encode()

	c.logger.Debug("Requesting prices from CoinGecko", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := doWithContext(ctx, c.client, req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute request to CoinGecko", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("CoinGecko API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody),
		)
		return nil, fmt.Errorf("CoinGecko API request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	var decoded coinGeckoPriceResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		c.logger.Error("Failed to unmarshal CoinGecko response", zap.ByteString("responseBody", rawBody), zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal CoinGecko response: %w", err)
	}

	now := time.Now().UTC()
	quotes := make(map[string]entity.MarketQuote, len(decoded))
	for id, entry := range decoded {
		price, ok := entry[vsCurrency]
		if !ok {
			c.logger.Warn("CoinGecko entry has no price in requested currency", zap.String("coin", id), zap.String("vs", vsCurrency))
			continue
		}
		quotes[id] = entity.MarketQuote{
			CoinID:    id,
			Currency:  vsCurrency,
			Price:     decimal.NewFromFloat(price),
			Change24h: entry[vsCurrency+"_24h_change"],
			MarketCap: entry[vsCurrency+"_market_cap"],
			Volume24h: entry[vsCurrency+"_24h_vol"],
			FetchedAt: now,
		}
	}
	return quotes, nil
}

// doWithContext uses the context deadline when it is earlier than timeout.
func doWithContext(ctx context.Context, client *fasthttp.Client, req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	return client.DoDeadline(req, resp, deadline)
}
