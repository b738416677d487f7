package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Provider tags where a tracked wallet comes from. It is cosmetic except for
// ProviderDemo, which selects the demo data source.
type Provider string

const (
	ProviderWallet   Provider = "wallet"
	ProviderExchange Provider = "exchange"
	ProviderBank     Provider = "bank"
	ProviderDirect   Provider = "direct"
	ProviderDemo     Provider = "demo"
)

// IsValid reports whether p is one of the known provider tags.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderWallet, ProviderExchange, ProviderBank, ProviderDirect, ProviderDemo:
		return true
	}
	return false
}

// WalletState is derived from the loading and error fields of a Wallet.
type WalletState string

const (
	WalletStatePending WalletState = "pending"
	WalletStateReady   WalletState = "ready"
	WalletStateErrored WalletState = "errored"
)

// Wallet is one user-tracked ledger account.
type Wallet struct {
	ID         string           `json:"id"`
	Address    string           `json:"address"`
	Provider   Provider         `json:"provider"`
	Label      string           `json:"label"`
	Balance    *decimal.Decimal `json:"balance"`
	Tokens     []TokenHolding   `json:"tokens"`
	NFTCount   int              `json:"nftCount"`
	Sequence   uint32           `json:"sequence"`
	OwnerCount uint32           `json:"ownerCount"`
	IsDefault  bool             `json:"isDefault"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  *time.Time       `json:"updatedAt"`
	Exists     bool             `json:"exists"`

	IsLoading bool    `json:"isLoading"`
	Error     *string `json:"error"`

	// FetchSeq is bumped every time a fetch starts for the wallet.
	FetchSeq uint64 `json:"-"`
}

// State returns the lifecycle state of the wallet.
func (w *Wallet) State() WalletState {
	if w.IsLoading {
		return WalletStatePending
	}
	if w.Error != nil {
		return WalletStateErrored
	}
	return WalletStateReady
}

// Clone returns a deep copy safe to hand to observers.
func (w *Wallet) Clone() Wallet {
	c := *w
	if w.Balance != nil {
		b := *w.Balance
		c.Balance = &b
	}
	if w.UpdatedAt != nil {
		t := *w.UpdatedAt
		c.UpdatedAt = &t
	}
	if w.Error != nil {
		e := *w.Error
		c.Error = &e
	}
	if w.Tokens != nil {
		c.Tokens = make([]TokenHolding, len(w.Tokens))
		copy(c.Tokens, w.Tokens)
	}
	return c
}

// WalletSeed is a wallet definition loaded from a seed file at startup.
type WalletSeed struct {
	Address  string
	Label    string
	Provider Provider
}

// WalletSnapshot is the result of a data source fetch for one wallet.
type WalletSnapshot struct {
	Account  AccountInfo
	Tokens   []TokenHolding
	NFTCount int
}
