package port

import (
	"context"

	"xrpl_control_room/internal/domain/entity"
)

// MemeTokenProvider supplies the community token lookup table.
type MemeTokenProvider interface {
	MemeTokens() ([]entity.MemeToken, error)
}

// MetadataResolver resolves the off-ledger metadata of an NFT URI.
type MetadataResolver interface {
	Resolve(ctx context.Context, uri string) (entity.NFTMetadata, error)
}

// AssetCollector gathers NFTs and classified token holdings for a wallet set.
type AssetCollector interface {
	Collect(ctx context.Context, addresses []string) (entity.AssetCollection, error)
	Snapshot() entity.AssetCollection
	Wait()
}
