package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"

	"github.com/shopspring/decimal"
)

const (
	addrA = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
	addrB = "rsoLo2S1kiGeCcn6hCUXVrCpGMWLrRrLZz"
	addrC = "rrrrrrrrrrrrrrrrrrrrrhoLvTp"
	addrD = "rPEPPER7kfTD9w2To4CQk6UCfuHM9c6GDY"
	addrE = "rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B"
)

type fetchResult struct {
	snap entity.WalletSnapshot
	err  error
}

// fakeSource serves per-address results and records concurrency.
type fakeSource struct {
	name  string
	live  bool
	delay time.Duration

	mu      sync.Mutex
	results map[string]fetchResult
	calls   map[string]int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeSource(live bool) *fakeSource {
	name := "demo"
	if live {
		name = "live"
	}
	return &fakeSource{name: name, live: live, results: map[string]fetchResult{}, calls: map[string]int{}}
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) Live() bool   { return f.live }

func (f *fakeSource) set(address string, snap entity.WalletSnapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[address] = fetchResult{snap: snap, err: err}
}

func (f *fakeSource) Calls(address string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[address]
}

func (f *fakeSource) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeSource) Fetch(ctx context.Context, address string) (entity.WalletSnapshot, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[address]++
	res, ok := f.results[address]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return entity.WalletSnapshot{}, ctx.Err()
		}
	}
	if !ok {
		return funded(address, "0"), nil
	}
	return res.snap, res.err
}

func funded(address, balance string) entity.WalletSnapshot {
	return entity.WalletSnapshot{
		Account: entity.AccountInfo{
			Address:  address,
			Balance:  decimal.RequireFromString(balance),
			Sequence: 7,
			Exists:   true,
		},
		Tokens: []entity.TokenHolding{},
	}
}

func unfunded(address string) entity.WalletSnapshot {
	return entity.WalletSnapshot{Account: entity.AccountInfo{Address: address, Balance: decimal.Zero}}
}

type fakeSelector struct {
	live, demo port.DataSource
}

func (s fakeSelector) ForProvider(p entity.Provider) port.DataSource {
	if p == entity.ProviderDemo {
		return s.demo
	}
	return s.live
}

// fakeLedger implements port.LedgerClient from static maps.
type fakeLedger struct {
	mu        sync.Mutex
	lines     map[string][]entity.TrustLine
	nfts      map[string][]entity.NFTAsset
	linesErr  map[string]error
	endpoints []string
	infos     map[string]entity.ServerInfo
	infoErr   map[string]error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		lines:    map[string][]entity.TrustLine{},
		nfts:     map[string][]entity.NFTAsset{},
		linesErr: map[string]error{},
		infos:    map[string]entity.ServerInfo{},
		infoErr:  map[string]error{},
	}
}

func (f *fakeLedger) AccountInfo(_ context.Context, address string) (entity.AccountInfo, error) {
	return entity.AccountInfo{Address: address, Exists: true}, nil
}

func (f *fakeLedger) AccountLines(_ context.Context, address string) ([]entity.TrustLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.linesErr[address]; err != nil {
		return nil, err
	}
	return f.lines[address], nil
}

func (f *fakeLedger) AccountNFTs(_ context.Context, address string) ([]entity.NFTAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nfts[address], nil
}

func (f *fakeLedger) AccountTx(context.Context, string, int) ([]entity.AccountTx, error) {
	return []entity.AccountTx{}, nil
}

func (f *fakeLedger) AccountOverview(_ context.Context, address string, _ int) entity.AccountOverview {
	return entity.AccountOverview{Address: address}
}

func (f *fakeLedger) ServerInfo(context.Context) (entity.ServerInfo, error) {
	return entity.ServerInfo{}, errors.New("not used")
}

func (f *fakeLedger) ServerInfoAt(_ context.Context, endpoint string) (entity.ServerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.infoErr[endpoint]; err != nil {
		return entity.ServerInfo{}, err
	}
	info := f.infos[endpoint]
	info.Endpoint = endpoint
	return info, nil
}

func (f *fakeLedger) Endpoints() []string {
	return append([]string(nil), f.endpoints...)
}

type staticMemeTokens []entity.MemeToken

func (s staticMemeTokens) MemeTokens() ([]entity.MemeToken, error) { return s, nil }

// fakeResolver resolves URIs from a map; unknown URIs fail.
type fakeResolver struct {
	docs map[string]entity.NFTMetadata
}

func (r fakeResolver) Resolve(_ context.Context, uri string) (entity.NFTMetadata, error) {
	if doc, ok := r.docs[uri]; ok {
		return doc, nil
	}
	return entity.NFTMetadata{}, errors.New("metadata unavailable")
}

// fakePriceFeed returns queued prices in order, repeating the last one.
type fakePriceFeed struct {
	mu     sync.Mutex
	prices []string
	errs   []error
	calls  int
}

func (f *fakePriceFeed) GetQuote(_ context.Context, coinID, vs string) (entity.MarketQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := min(f.calls, len(f.prices)-1)
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return entity.MarketQuote{}, f.errs[i]
	}
	return entity.MarketQuote{CoinID: coinID, Currency: vs, Price: decimal.RequireFromString(f.prices[i])}, nil
}

type fakeSentimentFeed struct{}

func (fakeSentimentFeed) GetSentiment(context.Context) (entity.Sentiment, error) {
	return entity.Sentiment{Score: 0.4, Mean: 0.3, Count: 12}, nil
}

// recordingStore is an in-memory port.StateStore that counts saves.
type recordingStore struct {
	mu    sync.Mutex
	state entity.PersistedState
	saves int
}

func (s *recordingStore) Load(context.Context) (entity.PersistedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *recordingStore) Save(_ context.Context, state entity.PersistedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.saves++
	return nil
}

func (s *recordingStore) Close() error { return nil }

func (s *recordingStore) Saved() (entity.PersistedState, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.saves
}
