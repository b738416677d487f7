package entity

import "errors"

var (
	ErrInvalidAddress     = errors.New("invalid XRPL address")
	ErrInvalidProvider    = errors.New("invalid wallet provider")
	ErrInvalidAlert       = errors.New("invalid alert rule")
	ErrInvalidPreferences = errors.New("invalid preferences")
	ErrDuplicateWallet    = errors.New("wallet already tracked")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrAccountNotFound    = errors.New("account not found on ledger")
	ErrAllEndpointsFailed = errors.New("all ledger endpoints failed")
	ErrAlertNotFound      = errors.New("alert not found")
)

// RefreshError records a wallet whose refresh settled in the errored state.
type RefreshError struct {
	WalletID string `json:"walletId"`
	Address  string `json:"address"`
	Message  string `json:"message"`
}

// RefreshReport summarizes a refresh-all pass. Wallet failures are reported
// here and on the wallets themselves, never as a returned error.
type RefreshReport struct {
	Refreshed int            `json:"refreshed"`
	Skipped   int            `json:"skipped"`
	Failed    []RefreshError `json:"failed,omitempty"`
}
