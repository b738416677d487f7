package service

import (
	"context"
	"sync"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
)

const defaultSaveDebounce = 500 * time.Millisecond

// StateSaver persists wallets, preferences and alerts after changes. Bursts of
// changes within the debounce window produce a single save.
type StateSaver struct {
	store    port.StateStore
	wallets  *WalletService
	prefs    *PreferenceService
	market   *MarketService
	debounce time.Duration
	logger   port.Logger

	wg sync.WaitGroup
}

func NewStateSaver(store port.StateStore, wallets *WalletService, prefs *PreferenceService, market *MarketService, logger port.Logger) *StateSaver {
	return &StateSaver{
		store:    store,
		wallets:  wallets,
		prefs:    prefs,
		market:   market,
		debounce: defaultSaveDebounce,
		logger:   logger,
	}
}

// Restore loads the persisted state into the services.
func (s *StateSaver) Restore(ctx context.Context) error {
	state, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.prefs.Restore(state.Preferences)
	s.market.Restore(state.Alerts)
	s.wallets.Restore(ctx, state.Wallets)
	return nil
}

// Snapshot assembles the current persistable state.
func (s *StateSaver) Snapshot() entity.PersistedState {
	return entity.PersistedState{
		Wallets:     s.wallets.State(),
		Preferences: s.prefs.Get(),
		Alerts:      s.market.Alerts(),
	}
}

// Save writes the current state once.
func (s *StateSaver) Save(ctx context.Context) error {
	return s.store.Save(ctx, s.Snapshot())
}

// Start listens for changes until ctx is done, then saves a final time.
func (s *StateSaver) Start(ctx context.Context) {
	walletCh, unsubWallets := s.wallets.Subscribe()
	prefCh, unsubPrefs := s.prefs.Subscribe()
	alertCh, unsubAlerts := s.market.Subscribe()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer unsubWallets()
		defer unsubPrefs()
		defer unsubAlerts()

		timer := time.NewTimer(s.debounce)
		timer.Stop()
		dirty := false
		for {
			select {
			case <-ctx.Done():
				if dirty {
					s.saveNow(context.WithoutCancel(ctx))
				}
				return
			case <-walletCh:
			case <-prefCh:
			case <-alertCh:
			case <-timer.C:
				dirty = false
				s.saveNow(ctx)
				continue
			}
			if !dirty {
				dirty = true
				timer.Reset(s.debounce)
			}
		}
	}()
}

// Wait blocks until the final save after shutdown has completed.
func (s *StateSaver) Wait() {
	s.wg.Wait()
}

func (s *StateSaver) saveNow(ctx context.Context) {
	saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Save(saveCtx); err != nil {
		s.logger.Error("Failed to persist state", "error", err)
		return
	}
	s.logger.Debug("State persisted")
}
