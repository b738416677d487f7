package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/infrastructure/configloader"
	"xrpl_control_room/internal/pkg/metrics"

	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultAttemptTimeout = 15 * time.Second
	defaultMaxPages       = 10
	pageLimit             = 400
)

// Options configures an XRPLClient.
type Options struct {
	AttemptTimeout      time.Duration
	RateLimit           int // requests per second, 0 disables limiting
	BurstLimit          int
	MaxIdleConnsPerHost int
	MaxPages            int
	// Rotation overrides the default sticky rotation over the endpoints.
	Rotation RotationPolicy
}

// OptionsFromConfig maps the rpcClient config section.
func OptionsFromConfig(cfg configloader.RpcClientConfig) Options {
	return Options{
		AttemptTimeout:      time.Duration(cfg.AttemptTimeoutMs) * time.Millisecond,
		RateLimit:           cfg.RateLimit,
		BurstLimit:          cfg.BurstLimit,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxPages:            cfg.MaxPages,
	}
}

// XRPLClient implements port.LedgerClient over XRPL JSON-RPC.
type XRPLClient struct {
	client         *fasthttp.Client
	rotation       RotationPolicy
	attemptTimeout time.Duration
	limiter        *rate.Limiter
	maxPages       int
	logger         port.Logger
}

// NewXRPLClient creates a client over the given endpoints, tried in order.
func NewXRPLClient(endpoints []string, opts Options, logger port.Logger) (*XRPLClient, error) {
	if len(endpoints) == 0 && opts.Rotation == nil {
		return nil, fmt.Errorf("at least one JSON-RPC endpoint is required")
	}
	rotation := opts.Rotation
	if rotation == nil {
		rotation = NewStickyRotation(endpoints)
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultMaxPages
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.BurstLimit
		if burst <= 0 {
			burst = opts.RateLimit
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &XRPLClient{
		client: &fasthttp.Client{
			Name:                "xrpl-control-room",
			MaxConnsPerHost:     max(opts.MaxIdleConnsPerHost, 1) * 4,
			MaxIdleConnDuration: 90 * time.Second,
		},
		rotation:       rotation,
		attemptTimeout: opts.AttemptTimeout,
		limiter:        limiter,
		maxPages:       opts.MaxPages,
		logger:         logger,
	}, nil
}

// Endpoints returns the configured endpoints in rotation order.
func (c *XRPLClient) Endpoints() []string {
	return c.rotation.Endpoints()
}

// AccountInfo queries account_info on the validated ledger.
func (c *XRPLClient) AccountInfo(ctx context.Context, address string) (entity.AccountInfo, error) {
	res, err := c.call(ctx, "account_info", map[string]any{
		"account":      address,
		"ledger_index": "validated",
		"strict":       true,
	})
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.IsNotFound() {
			return entity.AccountInfo{Address: address, Exists: false}, nil
		}
		return entity.AccountInfo{}, err
	}
	return parseAccountInfo(address, res)
}

// AccountLines queries account_lines, following the marker across pages.
func (c *XRPLClient) AccountLines(ctx context.Context, address string) ([]entity.TrustLine, error) {
	lines := make([]entity.TrustLine, 0)
	err := c.paginate(ctx, "account_lines", address, func(res rpcResult) {
		lines = append(lines, parseTrustLines(res)...)
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// AccountNFTs queries account_nfts, following the marker across pages.
func (c *XRPLClient) AccountNFTs(ctx context.Context, address string) ([]entity.NFTAsset, error) {
	nfts := make([]entity.NFTAsset, 0)
	err := c.paginate(ctx, "account_nfts", address, func(res rpcResult) {
		nfts = append(nfts, parseNFTs(address, res)...)
	})
	if err != nil {
		return nil, err
	}
	return nfts, nil
}

// AccountTx returns the most recent transactions of an address.
func (c *XRPLClient) AccountTx(ctx context.Context, address string, limit int) ([]entity.AccountTx, error) {
	if limit <= 0 {
		limit = 20
	}
	res, err := c.call(ctx, "account_tx", map[string]any{
		"account":          address,
		"ledger_index_min": -1,
		"ledger_index_max": -1,
		"limit":            limit,
		"forward":          false,
	})
	if err != nil {
		return nil, err
	}
	return parseAccountTx(res), nil
}

// AccountOverview runs lines, NFTs and transactions concurrently. Each part
// succeeds or fails on its own.
func (c *XRPLClient) AccountOverview(ctx context.Context, address string, txLimit int) entity.AccountOverview {
	overview := entity.AccountOverview{
		Address:      address,
		Lines:        []entity.TrustLine{},
		NFTs:         []entity.NFTAsset{},
		Transactions: []entity.AccountTx{},
	}
	var mu sync.Mutex
	record := func(part entity.OverviewPart, err error) {
		mu.Lock()
		defer mu.Unlock()
		if overview.Errors == nil {
			overview.Errors = make(map[entity.OverviewPart]error)
		}
		overview.Errors[part] = err
	}

	var g errgroup.Group
	g.Go(func() error {
		lines, err := c.AccountLines(ctx, address)
		if err != nil {
			record(entity.OverviewLines, err)
			return nil
		}
		overview.Lines = lines
		return nil
	})
	g.Go(func() error {
		nfts, err := c.AccountNFTs(ctx, address)
		if err != nil {
			record(entity.OverviewNFTs, err)
			return nil
		}
		overview.NFTs = nfts
		return nil
	})
	g.Go(func() error {
		txs, err := c.AccountTx(ctx, address, txLimit)
		if err != nil {
			record(entity.OverviewTransactions, err)
			return nil
		}
		overview.Transactions = txs
		return nil
	})
	_ = g.Wait()
	return overview
}

// ServerInfo queries server_info through the rotation.
func (c *XRPLClient) ServerInfo(ctx context.Context) (entity.ServerInfo, error) {
	res, endpoint, err := c.callWithEndpoint(ctx, "server_info", map[string]any{})
	if err != nil {
		return entity.ServerInfo{}, err
	}
	return parseServerInfo(endpoint, res)
}

// ServerInfoAt queries server_info on one endpoint without failover.
func (c *XRPLClient) ServerInfoAt(ctx context.Context, endpoint string) (entity.ServerInfo, error) {
	body, err := encodeRequest("server_info", map[string]any{})
	if err != nil {
		return entity.ServerInfo{}, err
	}
	res, err := c.attempt(ctx, endpoint, "server_info", body)
	if err != nil {
		return entity.ServerInfo{}, err
	}
	return parseServerInfo(endpoint, res)
}

func (c *XRPLClient) paginate(ctx context.Context, method, address string, page func(rpcResult)) error {
	var marker any
	for i := 0; i < c.maxPages; i++ {
		params := map[string]any{
			"account":      address,
			"ledger_index": "validated",
			"limit":        pageLimit,
		}
		if marker != nil {
			params["marker"] = marker
		}
		res, err := c.call(ctx, method, params)
		if err != nil {
			return err
		}
		page(res)
		marker = res.marker()
		if marker == nil {
			return nil
		}
	}
	c.logger.Warn("Page limit reached, result truncated", "method", method, "address", address, "maxPages", c.maxPages)
	return nil
}

type rpcRequest struct {
	Method string           `json:"method"`
	Params []map[string]any `json:"params"`
}

func encodeRequest(method string, params map[string]any) ([]byte, error) {
	body, err := json.Marshal(rpcRequest{Method: method, Params: []map[string]any{params}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", method, err)
	}
	return body, nil
}

// call runs one request with failover. Total attempts equal the number of
// endpoints; the rotation position persists for later calls.
func (c *XRPLClient) call(ctx context.Context, method string, params map[string]any) (rpcResult, error) {
	res, _, err := c.callWithEndpoint(ctx, method, params)
	return res, err
}

func (c *XRPLClient) callWithEndpoint(ctx context.Context, method string, params map[string]any) (rpcResult, string, error) {
	body, err := encodeRequest(method, params)
	if err != nil {
		return nil, "", err
	}

	attempts := len(c.rotation.Endpoints())
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		endpoint := c.rotation.Current()
		res, err := c.attempt(ctx, endpoint, method, body)
		if err == nil {
			return res, endpoint, nil
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}

		decision := Classify(err)
		if !decision.IsFailover() {
			return nil, "", err
		}
		lastErr = err
		c.rotation.Advance(endpoint)
		metrics.LedgerFailoversTotal.WithLabelValues(endpoint).Inc()
		c.logger.Warn("Ledger request failed, rotating endpoint",
			"method", method,
			"endpoint", endpoint,
			"attempt", attempt,
			"of", attempts,
			"reason", decision.Reason,
			"error", err)
	}
	return nil, "", fmt.Errorf("%w: %s after %d attempts: %w", entity.ErrAllEndpointsFailed, method, attempts, lastErr)
}

// attempt performs a single POST bounded by the per-attempt timeout and the
// caller's deadline, whichever comes first.
func (c *XRPLClient) attempt(ctx context.Context, endpoint, method string, body []byte) (rpcResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBodyRaw(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline := time.Now().Add(c.attemptTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	start := time.Now()
	err := c.client.DoDeadline(req, resp, deadline)
	metrics.LedgerRequestLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LedgerRequestsTotal.WithLabelValues(method, endpoint, "transport_error").Inc()
		return nil, fmt.Errorf("%s request to %s failed: %w", method, endpoint, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		metrics.LedgerRequestsTotal.WithLabelValues(method, endpoint, "http_error").Inc()
		return nil, &HTTPStatusError{Endpoint: endpoint, StatusCode: resp.StatusCode()}
	}

	res, err := normalizeResponse(resp.Body())
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.IsNotFound() {
			metrics.LedgerRequestsTotal.WithLabelValues(method, endpoint, "not_found").Inc()
		} else {
			metrics.LedgerRequestsTotal.WithLabelValues(method, endpoint, "node_error").Inc()
		}
		return nil, err
	}
	metrics.LedgerRequestsTotal.WithLabelValues(method, endpoint, "ok").Inc()
	return res, nil
}
