package entity

import "time"

// CurrentStateVersion is the schema version written with every persisted section.
const CurrentStateVersion = 1

// Profile holds user profile fields.
type Profile struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Preferences holds persisted UI preferences.
type Preferences struct {
	Theme   string  `json:"theme"`
	Network string  `json:"network"`
	Profile Profile `json:"profile"`
}

// DefaultPreferences returns the preferences used when nothing valid is stored.
func DefaultPreferences() Preferences {
	return Preferences{Theme: "dark", Network: "mainnet"}
}

// WalletsState is the persisted wallet list and active selection.
type WalletsState struct {
	Wallets        []Wallet `json:"wallets"`
	ActiveWalletID string   `json:"activeWalletId,omitempty"`
}

// PersistedState is everything saved between restarts.
type PersistedState struct {
	Wallets     WalletsState `json:"wallets"`
	Preferences Preferences  `json:"preferences"`
	Alerts      []AlertRule  `json:"alerts"`
	SavedAt     time.Time    `json:"savedAt"`
}

// DefaultPersistedState is an empty state with default preferences.
func DefaultPersistedState() PersistedState {
	return PersistedState{Preferences: DefaultPreferences()}
}
