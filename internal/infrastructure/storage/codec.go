package storage

import (
	"fmt"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Keys of the persisted sections. Each value is an envelope.
const (
	KeyWallets     = "state:wallets"
	KeyPreferences = "state:preferences"
	KeyAlerts      = "state:alerts"
)

var sectionKeys = []string{KeyWallets, KeyPreferences, KeyAlerts}

type envelope struct {
	Version int                 `json:"version"`
	SavedAt time.Time           `json:"savedAt"`
	Data    jsoniter.RawMessage `json:"data"`
}

// encodeState wraps every section in a versioned envelope. Loading flags and
// error messages are dropped from wallets.
func encodeState(state entity.PersistedState) (map[string][]byte, error) {
	savedAt := state.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}

	wallets := entity.WalletsState{
		Wallets:        make([]entity.Wallet, 0, len(state.Wallets.Wallets)),
		ActiveWalletID: state.Wallets.ActiveWalletID,
	}
	for i := range state.Wallets.Wallets {
		w := state.Wallets.Wallets[i].Clone()
		w.IsLoading = false
		w.Error = nil
		wallets.Wallets = append(wallets.Wallets, w)
	}

	alerts := state.Alerts
	if alerts == nil {
		alerts = []entity.AlertRule{}
	}

	sections := map[string]any{
		KeyWallets:     wallets,
		KeyPreferences: state.Preferences,
		KeyAlerts:      alerts,
	}
	out := make(map[string][]byte, len(sections))
	for key, data := range sections {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		b, err := json.Marshal(envelope{Version: entity.CurrentStateVersion, SavedAt: savedAt, Data: raw})
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s envelope: %w", key, err)
		}
		out[key] = b
	}
	return out, nil
}

// decodeState rebuilds the state from raw sections. A missing, undecodable or
// unknown-version section falls back to its default; the others are kept.
func decodeState(raw map[string][]byte, logger port.Logger) entity.PersistedState {
	state := entity.DefaultPersistedState()

	var wallets entity.WalletsState
	if savedAt, ok := decodeSection(raw, KeyWallets, &wallets, logger); ok {
		state.Wallets = wallets
		state.SavedAt = savedAt
	}

	prefs := entity.DefaultPreferences()
	if _, ok := decodeSection(raw, KeyPreferences, &prefs, logger); ok {
		if prefs.Theme == "" {
			prefs.Theme = entity.DefaultPreferences().Theme
		}
		if prefs.Network == "" {
			prefs.Network = entity.DefaultPreferences().Network
		}
		state.Preferences = prefs
	}

	var alerts []entity.AlertRule
	if _, ok := decodeSection(raw, KeyAlerts, &alerts, logger); ok {
		state.Alerts = alerts
	}
	return state
}

func decodeSection(raw map[string][]byte, key string, target any, logger port.Logger) (time.Time, bool) {
	b, ok := raw[key]
	if !ok || len(b) == 0 {
		return time.Time{}, false
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		logger.Warn("Persisted section is unreadable, using defaults", "key", key, "error", err)
		return time.Time{}, false
	}
	if env.Version != entity.CurrentStateVersion {
		logger.Warn("Persisted section has unknown version, using defaults",
			"key", key, "version", env.Version, "expected", entity.CurrentStateVersion)
		return time.Time{}, false
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		logger.Warn("Persisted section payload is invalid, using defaults", "key", key, "error", err)
		return time.Time{}, false
	}
	return env.SavedAt, true
}
