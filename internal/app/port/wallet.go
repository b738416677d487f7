package port

import (
	"context"

	"xrpl_control_room/internal/domain/entity"
)

// WalletProvider supplies wallets to seed the store with at startup.
type WalletProvider interface {
	GetWallets() ([]entity.WalletSeed, error)
}

// DataSource fetches the on-ledger state of one wallet. It is selected once,
// when the wallet is created.
type DataSource interface {
	Name() string
	// Live reports whether the source touches the network.
	Live() bool
	Fetch(ctx context.Context, address string) (entity.WalletSnapshot, error)
}

// DataSourceSelector picks the data source for a new wallet.
type DataSourceSelector interface {
	ForProvider(provider entity.Provider) DataSource
}

// AddWalletInput is the request to track a new wallet.
type AddWalletInput struct {
	Address   string          `json:"address"`
	Provider  entity.Provider `json:"provider"`
	Label     string          `json:"label"`
	IsDefault bool            `json:"isDefault"`
}

// WalletStore is the wallet aggregator.
type WalletStore interface {
	AddWallet(ctx context.Context, in AddWalletInput) (entity.Wallet, error)
	RefreshWallet(ctx context.Context, id string) (entity.Wallet, error)
	RefreshAll(ctx context.Context) entity.RefreshReport
	RemoveWallet(id string) error
	SetDefault(id string) error
	SetActive(id string) error
	ClearAll()

	List() []entity.Wallet
	Get(id string) (entity.Wallet, bool)
	Active() (entity.Wallet, bool)
	Default() (entity.Wallet, bool)
	Addresses() []string
}
