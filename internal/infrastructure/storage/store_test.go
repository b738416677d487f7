package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/infrastructure/configloader"
	"xrpl_control_room/internal/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rawStore interface {
	port.StateStore
	putRaw(key string, value []byte) error
}

func backends() map[string]func(t *testing.T) rawStore {
	return map[string]func(t *testing.T) rawStore{
		"memory": func(*testing.T) rawStore { return NewMemoryStore(logger.NewNop()) },
		"badger": func(t *testing.T) rawStore {
			s, err := NewBadgerStore("", logger.NewNop())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) rawStore {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"), logger.NewNop())
			require.NoError(t, err)
			return s
		},
	}
}

func sampleState() entity.PersistedState {
	balance := decimal.RequireFromString("12.5")
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	errMsg := "boom"
	return entity.PersistedState{
		Wallets: entity.WalletsState{
			Wallets: []entity.Wallet{{
				ID:        "w1",
				Address:   "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
				Provider:  entity.ProviderWallet,
				Label:     "Main",
				Balance:   &balance,
				IsDefault: true,
				CreatedAt: updated,
				UpdatedAt: &updated,
				Exists:    true,
				IsLoading: true,
				Error:     &errMsg,
			}},
			ActiveWalletID: "w1",
		},
		Preferences: entity.Preferences{Theme: "light", Network: "testnet", Profile: entity.Profile{DisplayName: "Ada"}},
		Alerts: []entity.AlertRule{{
			ID:        "a1",
			Direction: entity.AlertAbove,
			Threshold: decimal.RequireFromString("0.75"),
			Enabled:   true,
		}},
	}
}

func TestStateStore_RoundTrip(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			ctx := context.Background()

			empty, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, entity.DefaultPreferences(), empty.Preferences)
			assert.Empty(t, empty.Wallets.Wallets)

			require.NoError(t, s.Save(ctx, sampleState()))
			got, err := s.Load(ctx)
			require.NoError(t, err)

			require.Len(t, got.Wallets.Wallets, 1)
			w := got.Wallets.Wallets[0]
			assert.Equal(t, "w1", w.ID)
			assert.Equal(t, "12.5", w.Balance.String())
			assert.False(t, w.IsLoading, "loading flag is not persisted")
			assert.Nil(t, w.Error, "error message is not persisted")
			assert.Equal(t, "w1", got.Wallets.ActiveWalletID)
			assert.Equal(t, "light", got.Preferences.Theme)
			assert.Equal(t, "Ada", got.Preferences.Profile.DisplayName)
			require.Len(t, got.Alerts, 1)
			assert.True(t, got.Alerts[0].Threshold.Equal(decimal.RequireFromString("0.75")))
			assert.False(t, got.SavedAt.IsZero())
		})
	}
}

func TestStateStore_UnknownVersionFallsBackPerSection(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, sampleState()))
			require.NoError(t, s.putRaw(KeyPreferences, []byte(`{"version":99,"data":{"theme":"neon"}}`)))
			require.NoError(t, s.putRaw(KeyAlerts, []byte(`not json`)))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, entity.DefaultPreferences(), got.Preferences)
			assert.Empty(t, got.Alerts)
			assert.Len(t, got.Wallets.Wallets, 1, "valid sections survive")
		})
	}
}

func TestStateStore_MissingPreferenceFieldsGetDefaults(t *testing.T) {
	s := NewMemoryStore(logger.NewNop())
	require.NoError(t, s.putRaw(KeyPreferences, []byte(`{"version":1,"data":{"profile":{"displayName":"Bo"}}}`)))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Preferences.Theme)
	assert.Equal(t, "mainnet", got.Preferences.Network)
	assert.Equal(t, "Bo", got.Preferences.Profile.DisplayName)
}

func TestNewStateStore(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStateStore(configloader.StorageConfig{Driver: "memory"}, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = NewStateStore(configloader.StorageConfig{Driver: "sqlite", Path: filepath.Join(dir, "db", "state.db")}, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = NewStateStore(configloader.StorageConfig{Driver: "badger", Path: filepath.Join(dir, "badger")}, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &BadgerStore{}, s)
	require.NoError(t, s.Close())

	_, err = NewStateStore(configloader.StorageConfig{Driver: "bolt"}, logger.NewNop())
	assert.Error(t, err)
}
