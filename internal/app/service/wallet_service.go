package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/infrastructure/configloader"
	"xrpl_control_room/internal/pkg/metrics"
	"xrpl_control_room/internal/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NotFoundMessage is the error text of a wallet whose address is unfunded.
const NotFoundMessage = "Account not found on ledger (unfunded)"

const defaultFetchTimeout = 60 * time.Second

// WalletServiceOptions configures the wallet aggregator.
type WalletServiceOptions struct {
	MaxConcurrentRefreshes int
	// FetchTimeout bounds one wallet fetch across every endpoint attempt.
	FetchTimeout time.Duration
}

// WalletServiceOptionsFromConfig maps the walletService config section.
func WalletServiceOptionsFromConfig(cfg configloader.WalletServiceConfig) WalletServiceOptions {
	return WalletServiceOptions{
		MaxConcurrentRefreshes: cfg.MaxConcurrentRefreshes,
		FetchTimeout:           time.Duration(cfg.FetchTimeoutMs) * time.Millisecond,
	}
}

// WalletService implements port.WalletStore. Wallet order is insertion order.
type WalletService struct {
	selector      port.DataSourceSelector
	logger        port.Logger
	maxConcurrent int
	fetchTimeout  time.Duration
	now           func() time.Time

	mu       sync.RWMutex
	wallets  []*entity.Wallet
	sources  map[string]port.DataSource
	activeID string

	changes notifier

	bgMu   sync.Mutex
	bgCtx  context.Context
	bg     sync.WaitGroup
	assets port.AssetCollector
}

// NewWalletService creates an empty wallet aggregator.
func NewWalletService(selector port.DataSourceSelector, opts WalletServiceOptions, logger port.Logger) *WalletService {
	if opts.MaxConcurrentRefreshes <= 0 {
		opts.MaxConcurrentRefreshes = 1
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	return &WalletService{
		selector:      selector,
		logger:        logger,
		maxConcurrent: opts.MaxConcurrentRefreshes,
		fetchTimeout:  opts.FetchTimeout,
		now:           time.Now,
		sources:       make(map[string]port.DataSource),
		bgCtx:         context.Background(),
	}
}

// SetAssetCollector makes RefreshAll trigger an asset collection over the
// live wallets once every wallet has settled.
func (s *WalletService) SetAssetCollector(c port.AssetCollector) {
	s.bgMu.Lock()
	defer s.bgMu.Unlock()
	s.assets = c
}

// Start binds background fetches to ctx and, when interval is positive,
// refreshes every live wallet on that interval until ctx is done.
func (s *WalletService) Start(ctx context.Context, interval time.Duration) {
	s.bgMu.Lock()
	s.bgCtx = ctx
	s.bgMu.Unlock()

	if interval <= 0 {
		return
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		s.logger.Info("Wallet auto-refresh started", "interval", interval)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Wallet auto-refresh stopped")
				return
			case <-ticker.C:
				report := s.RefreshAll(ctx)
				s.logger.Debug("Auto-refresh pass complete",
					"refreshed", report.Refreshed, "failed", len(report.Failed))
			}
		}
	}()
}

// Wait blocks until every background fetch and the auto-refresh loop exit.
func (s *WalletService) Wait() {
	s.bg.Wait()
}

// Subscribe returns a channel of changed wallet IDs. An empty ID means the
// whole list changed. The returned func unsubscribes.
func (s *WalletService) Subscribe() (<-chan string, func()) {
	return s.changes.subscribe()
}

// AddWallet validates and inserts a wallet in the pending state, then fetches
// it. Demo wallets settle before AddWallet returns; live wallets settle in
// the background.
func (s *WalletService) AddWallet(ctx context.Context, in port.AddWalletInput) (entity.Wallet, error) {
	address := strings.TrimSpace(in.Address)
	if !utils.IsValidXRPLAddress(address) {
		return entity.Wallet{}, fmt.Errorf("%w: %q", entity.ErrInvalidAddress, address)
	}
	provider := in.Provider
	if provider == "" {
		provider = entity.ProviderWallet
	}
	if !provider.IsValid() {
		return entity.Wallet{}, fmt.Errorf("%w: %q", entity.ErrInvalidProvider, provider)
	}

	s.mu.Lock()
	if s.indexOfAddress(address) >= 0 {
		s.mu.Unlock()
		return entity.Wallet{}, fmt.Errorf("%w: %s", entity.ErrDuplicateWallet, address)
	}

	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = utils.ShortAddress(address)
	}
	w := &entity.Wallet{
		ID:        uuid.NewString(),
		Address:   address,
		Provider:  provider,
		Label:     label,
		Tokens:    []entity.TokenHolding{},
		CreatedAt: s.now().UTC(),
		IsLoading: true,
	}
	if len(s.wallets) == 0 || in.IsDefault {
		for _, other := range s.wallets {
			other.IsDefault = false
		}
		w.IsDefault = true
	}
	s.wallets = append(s.wallets, w)
	source := s.selector.ForProvider(provider)
	s.sources[w.ID] = source
	if s.activeID == "" {
		s.activeID = w.ID
	}
	pending := w.Clone()
	count := len(s.wallets)
	s.mu.Unlock()

	metrics.WalletsTracked.Set(float64(count))
	s.logger.Info("Wallet added", "id", pending.ID, "address", address, "provider", provider, "source", source.Name())
	s.changes.publish(pending.ID)

	if !source.Live() {
		return s.fetch(ctx, pending.ID)
	}
	s.fetchInBackground(pending.ID)
	return pending, nil
}

// RefreshWallet fetches one wallet synchronously. Fetch failures settle on
// the wallet; the returned error is only ErrWalletNotFound.
func (s *WalletService) RefreshWallet(ctx context.Context, id string) (entity.Wallet, error) {
	return s.fetch(ctx, id)
}

func (s *WalletService) fetchInBackground(id string) {
	s.bgMu.Lock()
	ctx := s.bgCtx
	s.bgMu.Unlock()

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if _, err := s.fetch(ctx, id); err != nil && !errors.Is(err, entity.ErrWalletNotFound) {
			s.logger.Warn("Background wallet fetch failed", "id", id, "error", err)
		}
	}()
}

// fetch marks the wallet pending, calls its data source and settles the
// result. Overlapping fetches of one wallet are last-settled-wins.
func (s *WalletService) fetch(ctx context.Context, id string) (entity.Wallet, error) {
	s.mu.Lock()
	w := s.find(id)
	if w == nil {
		s.mu.Unlock()
		return entity.Wallet{}, fmt.Errorf("%w: %s", entity.ErrWalletNotFound, id)
	}
	source := s.sources[id]
	w.FetchSeq++
	seq := w.FetchSeq
	prevErr := w.Error
	w.IsLoading = true
	w.Error = nil
	address := w.Address
	s.mu.Unlock()
	s.changes.publish(id)

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	snap, err := source.Fetch(fetchCtx, address)
	if err != nil && ctx.Err() != nil {
		return s.abandon(id, seq, prevErr)
	}

	return s.settle(id, seq, source.Name(), snap, err)
}

// abandon ends a fetch whose caller went away. The wallet keeps the data and
// error it had before the fetch started.
func (s *WalletService) abandon(id string, seq uint64, prevErr *string) (entity.Wallet, error) {
	s.mu.Lock()
	w := s.find(id)
	if w == nil {
		s.mu.Unlock()
		return entity.Wallet{}, fmt.Errorf("%w: %s", entity.ErrWalletNotFound, id)
	}
	if seq == w.FetchSeq {
		w.IsLoading = false
		w.Error = prevErr
	}
	abandoned := w.Clone()
	s.mu.Unlock()

	s.logger.Debug("Wallet fetch abandoned, caller cancelled", "id", id, "address", abandoned.Address)
	s.changes.publish(id)
	return abandoned, nil
}

func (s *WalletService) settle(id string, seq uint64, sourceName string, snap entity.WalletSnapshot, fetchErr error) (entity.Wallet, error) {
	s.mu.Lock()
	w := s.find(id)
	if w == nil {
		s.mu.Unlock()
		s.logger.Debug("Discarding fetch result for removed wallet", "id", id)
		return entity.Wallet{}, fmt.Errorf("%w: %s", entity.ErrWalletNotFound, id)
	}
	if seq < w.FetchSeq {
		s.logger.Debug("Older fetch settled after a newer one started", "id", id, "seq", seq, "latest", w.FetchSeq)
	}

	now := s.now().UTC()
	w.IsLoading = false
	switch {
	case fetchErr != nil:
		msg := fetchErr.Error()
		w.Error = &msg
	case !snap.Account.Exists:
		msg := NotFoundMessage
		w.Error = &msg
		w.Exists = false
		if w.Balance == nil {
			zero := decimal.Zero
			w.Balance = &zero
		}
		w.UpdatedAt = &now
	default:
		balance := snap.Account.Balance
		w.Balance = &balance
		w.Tokens = snap.Tokens
		if w.Tokens == nil {
			w.Tokens = []entity.TokenHolding{}
		}
		w.NFTCount = snap.NFTCount
		w.Sequence = snap.Account.Sequence
		w.OwnerCount = snap.Account.OwnerCount
		w.Exists = true
		w.Error = nil
		w.UpdatedAt = &now
	}
	settled := w.Clone()
	s.mu.Unlock()

	metrics.WalletRefreshTotal.WithLabelValues(sourceName, string(settled.State())).Inc()
	if fetchErr != nil {
		s.logger.Warn("Wallet fetch failed", "id", id, "address", settled.Address, "error", fetchErr)
	} else {
		balance := "n/a"
		if settled.Balance != nil {
			balance = utils.FormatXRP(*settled.Balance)
		}
		s.logger.Debug("Wallet settled", "id", id, "address", settled.Address, "state", settled.State(), "xrp", balance)
	}
	s.changes.publish(id)
	return settled, nil
}

// RefreshAll refreshes every live wallet concurrently. Wallet failures are
// reported in the result and on the wallets, never as an error.
func (s *WalletService) RefreshAll(ctx context.Context) entity.RefreshReport {
	s.mu.RLock()
	ids := make([]string, 0, len(s.wallets))
	skipped := 0
	for _, w := range s.wallets {
		if !s.sources[w.ID].Live() {
			skipped++
			continue
		}
		ids = append(ids, w.ID)
	}
	s.mu.RUnlock()

	report := s.refreshIDs(ctx, ids)
	report.Skipped = skipped
	s.logger.Info("Refresh-all complete", "refreshed", report.Refreshed, "skipped", report.Skipped, "failed", len(report.Failed))

	s.collectAssets()
	return report
}

func (s *WalletService) collectAssets() {
	s.bgMu.Lock()
	collector := s.assets
	ctx := s.bgCtx
	s.bgMu.Unlock()
	if collector == nil {
		return
	}
	addresses := s.Addresses()
	if len(addresses) == 0 {
		return
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if _, err := collector.Collect(ctx, addresses); err != nil {
			s.logger.Warn("Asset collection after refresh failed", "error", err)
		}
	}()
}

// Restore replaces the wallet list with persisted state. Wallets that were
// never fetched come back pending; demo wallets settle immediately.
func (s *WalletService) Restore(ctx context.Context, state entity.WalletsState) {
	s.mu.Lock()
	s.wallets = nil
	s.sources = make(map[string]port.DataSource, len(state.Wallets))
	seen := make(map[string]bool, len(state.Wallets))
	var demo []string
	hasDefault := false
	for i := range state.Wallets {
		restored := state.Wallets[i].Clone()
		w := &restored
		if w.ID == "" || seen[w.Address] || !utils.IsValidXRPLAddress(w.Address) || !w.Provider.IsValid() {
			s.logger.Warn("Skipping invalid persisted wallet", "id", w.ID, "address", w.Address)
			continue
		}
		seen[w.Address] = true
		w.Error = nil
		w.FetchSeq = 0
		w.IsLoading = w.UpdatedAt == nil
		if w.Tokens == nil {
			w.Tokens = []entity.TokenHolding{}
		}
		if w.IsDefault {
			if hasDefault {
				w.IsDefault = false
			}
			hasDefault = true
		}
		source := s.selector.ForProvider(w.Provider)
		s.sources[w.ID] = source
		if !source.Live() {
			demo = append(demo, w.ID)
		}
		s.wallets = append(s.wallets, w)
	}
	if !hasDefault && len(s.wallets) > 0 {
		s.wallets[0].IsDefault = true
	}
	s.activeID = ""
	if s.find(state.ActiveWalletID) != nil {
		s.activeID = state.ActiveWalletID
	}
	count := len(s.wallets)
	s.mu.Unlock()

	metrics.WalletsTracked.Set(float64(count))
	s.logger.Info("Wallets restored", "count", count)
	for _, id := range demo {
		_, _ = s.fetch(ctx, id)
	}
	s.changes.publish("")
}

// Seed adds wallets from the startup seed file, skipping ones already tracked.
func (s *WalletService) Seed(ctx context.Context, seeds []entity.WalletSeed) int {
	added := 0
	for _, seed := range seeds {
		_, err := s.AddWallet(ctx, port.AddWalletInput{Address: seed.Address, Provider: seed.Provider, Label: seed.Label})
		switch {
		case err == nil:
			added++
		case errors.Is(err, entity.ErrDuplicateWallet):
		default:
			s.logger.Warn("Skipping seed wallet", "address", seed.Address, "error", err)
		}
	}
	return added
}

// RemoveWallet deletes a wallet. If it was the default or the active wallet,
// the first remaining wallet takes that role.
func (s *WalletService) RemoveWallet(id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", entity.ErrWalletNotFound, id)
	}
	removed := s.wallets[idx]
	s.wallets = append(s.wallets[:idx], s.wallets[idx+1:]...)
	delete(s.sources, id)

	if removed.IsDefault && len(s.wallets) > 0 {
		s.wallets[0].IsDefault = true
	}
	if s.activeID == id {
		s.activeID = ""
		if len(s.wallets) > 0 {
			s.activeID = s.wallets[0].ID
		}
	}
	count := len(s.wallets)
	s.mu.Unlock()

	metrics.WalletsTracked.Set(float64(count))
	s.logger.Info("Wallet removed", "id", id, "address", removed.Address)
	s.changes.publish(id)
	return nil
}

// SetDefault makes id the single default wallet.
func (s *WalletService) SetDefault(id string) error {
	s.mu.Lock()
	w := s.find(id)
	if w == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", entity.ErrWalletNotFound, id)
	}
	for _, other := range s.wallets {
		other.IsDefault = false
	}
	w.IsDefault = true
	s.mu.Unlock()

	s.changes.publish(id)
	return nil
}

// SetActive selects the wallet the dashboard shows.
func (s *WalletService) SetActive(id string) error {
	s.mu.Lock()
	if s.find(id) == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", entity.ErrWalletNotFound, id)
	}
	s.activeID = id
	s.mu.Unlock()

	s.changes.publish(id)
	return nil
}

// ClearAll removes every wallet.
func (s *WalletService) ClearAll() {
	s.mu.Lock()
	s.wallets = nil
	s.sources = make(map[string]port.DataSource)
	s.activeID = ""
	s.mu.Unlock()

	metrics.WalletsTracked.Set(0)
	s.logger.Info("All wallets cleared")
	s.changes.publish("")
}

func (s *WalletService) List() []entity.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		out = append(out, w.Clone())
	}
	return out
}

func (s *WalletService) Get(id string) (entity.Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if w := s.find(id); w != nil {
		return w.Clone(), true
	}
	return entity.Wallet{}, false
}

// Active returns the selected wallet, falling back to the default.
func (s *WalletService) Active() (entity.Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if w := s.find(s.activeID); w != nil {
		return w.Clone(), true
	}
	if w := s.defaultWallet(); w != nil {
		return w.Clone(), true
	}
	return entity.Wallet{}, false
}

func (s *WalletService) Default() (entity.Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if w := s.defaultWallet(); w != nil {
		return w.Clone(), true
	}
	return entity.Wallet{}, false
}

// Addresses lists the addresses of live wallets. Demo wallets never reach
// the network, so they are left out.
func (s *WalletService) Addresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.wallets))
	for _, w := range s.wallets {
		if s.sources[w.ID].Live() {
			out = append(out, w.Address)
		}
	}
	return out
}

// State returns the persistable wallet state.
func (s *WalletService) State() entity.WalletsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := entity.WalletsState{Wallets: make([]entity.Wallet, 0, len(s.wallets)), ActiveWalletID: s.activeID}
	for _, w := range s.wallets {
		state.Wallets = append(state.Wallets, w.Clone())
	}
	return state
}

func (s *WalletService) refreshIDs(ctx context.Context, ids []string) entity.RefreshReport {
	return refreshConcurrently(ctx, ids, s.maxConcurrent, s.fetch)
}

func (s *WalletService) find(id string) *entity.Wallet {
	if idx := s.indexOf(id); idx >= 0 {
		return s.wallets[idx]
	}
	return nil
}

func (s *WalletService) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, w := range s.wallets {
		if w.ID == id {
			return i
		}
	}
	return -1
}

func (s *WalletService) indexOfAddress(address string) int {
	for i, w := range s.wallets {
		if w.Address == address {
			return i
		}
	}
	return -1
}

func (s *WalletService) defaultWallet() *entity.Wallet {
	for _, w := range s.wallets {
		if w.IsDefault {
			return w
		}
	}
	return nil
}
