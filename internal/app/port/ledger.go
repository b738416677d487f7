package port

import (
	"context"

	"xrpl_control_room/internal/domain/entity"
)

// LedgerClient performs read-only queries against a pool of XRPL JSON-RPC endpoints.
type LedgerClient interface {
	// AccountInfo returns the account summary. An unfunded address is not an
	// error: it yields Exists=false with a zero balance.
	AccountInfo(ctx context.Context, address string) (entity.AccountInfo, error)

	// AccountLines returns the trust lines of an address.
	AccountLines(ctx context.Context, address string) ([]entity.TrustLine, error)

	// AccountNFTs returns the NFTs owned by an address.
	AccountNFTs(ctx context.Context, address string) ([]entity.NFTAsset, error)

	// AccountTx returns up to limit recent transactions of an address.
	AccountTx(ctx context.Context, address string, limit int) ([]entity.AccountTx, error)

	// AccountOverview issues lines, NFTs and transactions concurrently; a failed
	// part does not affect the others.
	AccountOverview(ctx context.Context, address string, txLimit int) entity.AccountOverview

	// ServerInfo returns server_info from the current endpoint of the rotation.
	ServerInfo(ctx context.Context) (entity.ServerInfo, error)

	// ServerInfoAt returns server_info from one specific endpoint, without failover.
	ServerInfoAt(ctx context.Context, endpoint string) (entity.ServerInfo, error)

	// Endpoints lists the configured endpoints in rotation order.
	Endpoints() []string
}

// NetworkDefinitionProvider provides XRPL network definitions.
type NetworkDefinitionProvider interface {
	GetAllNetworkDefinitions() []entity.NetworkDefinition
	// GetNetworkDefinitionByName returns the definition and true when found.
	GetNetworkDefinitionByName(identifier string) (entity.NetworkDefinition, bool)
}

// LedgerClientProvider hands out one client per network.
type LedgerClientProvider interface {
	GetClient(def entity.NetworkDefinition) (LedgerClient, error)
}

// LedgerStream follows validated ledgers over a push connection.
type LedgerStream interface {
	Start(ctx context.Context)
	Stop()
	Events() <-chan entity.LedgerEvent
}
