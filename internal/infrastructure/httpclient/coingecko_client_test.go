package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"xrpl_control_room/internal/infrastructure/configloader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCoinGeckoClient_GetQuote(t *testing.T) {
	type seenRequest struct{ key, query, path string }
	seen := make(chan seenRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- seenRequest{key: r.Header.Get("x-cg-demo-api-key"), query: r.URL.RawQuery, path: r.URL.Path}
		_, _ = w.Write([]byte(`{"ripple":{"usd":0.5234,"usd_24h_change":-1.5,"usd_market_cap":29000000000,"usd_24h_vol":1200000000}}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(configloader.CoinGeckoConfig{BaseURL: srv.URL + "/", APIKey: "demo-key", RequestTimeoutMillis: 2000}, zap.NewNop())
	quote, err := c.GetQuote(context.Background(), "ripple", "USD")
	require.NoError(t, err)

	got := <-seen
	assert.Equal(t, "/simple/price", got.path)
	assert.Equal(t, "demo-key", got.key)
	assert.Contains(t, got.query, "ids=ripple")
	assert.Contains(t, got.query, "include_24hr_change=true")
	assert.Equal(t, "0.5234", quote.Price.String())
	assert.Equal(t, "usd", quote.Currency)
	assert.InDelta(t, -1.5, quote.Change24h, 1e-9)
	assert.False(t, quote.FetchedAt.IsZero())
}

func TestCoinGeckoClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") == "limited" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(configloader.CoinGeckoConfig{BaseURL: srv.URL, RequestTimeoutMillis: 2000}, zap.NewNop())

	_, err := c.GetQuote(context.Background(), "limited", "usd")
	assert.Error(t, err)

	_, err = c.GetQuote(context.Background(), "ripple", "usd")
	assert.Error(t, err)

	_, err = c.SimplePrice(context.Background(), nil, "usd")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.GetQuote(ctx, "ripple", "usd")
	assert.ErrorIs(t, err, context.Canceled)
}
