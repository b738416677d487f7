package service

import (
	"context"
	"testing"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSaver(t *testing.T, store *recordingStore) (*StateSaver, *WalletService, *PreferenceService, *MarketService) {
	t.Helper()
	wallets, _, _ := newTestWalletService(t, 2)
	prefs := NewPreferenceService()
	market := newTestMarket(&fakePriceFeed{prices: []string{"1"}})
	saver := NewStateSaver(store, wallets, prefs, market, logger.NewNop())
	saver.debounce = 10 * time.Millisecond
	return saver, wallets, prefs, market
}

func TestStateSaver_SavesAfterChanges(t *testing.T) {
	store := &recordingStore{}
	saver, wallets, prefs, market := newTestSaver(t, store)
	ctx, cancel := context.WithCancel(context.Background())
	saver.Start(ctx)

	_, err := wallets.AddWallet(ctx, port.AddWalletInput{Address: addrA, Provider: entity.ProviderDemo})
	require.NoError(t, err)
	_, err = prefs.Update(entity.Preferences{Theme: "light"})
	require.NoError(t, err)
	_, err = market.AddAlert(entity.AlertRule{Direction: entity.AlertAbove, Threshold: decimal.NewFromInt(3)})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		state, saves := store.Saved()
		return saves > 0 && len(state.Wallets.Wallets) == 1 && len(state.Alerts) == 1 && state.Preferences.Theme == "light"
	}, time.Second, 5*time.Millisecond)

	cancel()
	saver.Wait()
}

func TestStateSaver_FinalSaveOnShutdown(t *testing.T) {
	store := &recordingStore{}
	saver, wallets, _, _ := newTestSaver(t, store)
	saver.debounce = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	saver.Start(ctx)

	_, err := wallets.AddWallet(ctx, port.AddWalletInput{Address: addrA, Provider: entity.ProviderDemo})
	require.NoError(t, err)
	// let the saver see the notification before shutting down
	time.Sleep(20 * time.Millisecond)
	cancel()
	saver.Wait()

	state, saves := store.Saved()
	assert.Equal(t, 1, saves)
	assert.Len(t, state.Wallets.Wallets, 1)
}

func TestStateSaver_Restore(t *testing.T) {
	updated := time.Now().UTC()
	store := &recordingStore{state: entity.PersistedState{
		Wallets: entity.WalletsState{Wallets: []entity.Wallet{
			{ID: "w1", Address: addrA, Provider: entity.ProviderWallet, UpdatedAt: &updated},
		}},
		Preferences: entity.Preferences{Theme: "light", Network: "testnet"},
		Alerts:      []entity.AlertRule{{ID: "a1", Direction: entity.AlertAbove, Threshold: decimal.NewFromInt(2), Enabled: true, Armed: true}},
	}}
	saver, wallets, prefs, market := newTestSaver(t, store)

	require.NoError(t, saver.Restore(context.Background()))

	assert.Len(t, wallets.List(), 1)
	assert.Equal(t, "testnet", prefs.Get().Network)
	assert.Len(t, market.Alerts(), 1)
}

func TestPreferenceService_Update(t *testing.T) {
	prefs := NewPreferenceService()

	_, err := prefs.Update(entity.Preferences{Theme: "neon"})
	assert.ErrorIs(t, err, entity.ErrInvalidPreferences)

	got, err := prefs.Update(entity.Preferences{Network: "Testnet", Profile: entity.Profile{DisplayName: "ops"}})
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Theme)
	assert.Equal(t, "testnet", got.Network)
	assert.Equal(t, "ops", prefs.Get().Profile.DisplayName)
}
