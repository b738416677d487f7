package entity

import "time"

// WalletAssets holds the collected assets of a single wallet.
type WalletAssets struct {
	Address     string            `json:"address"`
	MemeTokens  []ClassifiedToken `json:"memeTokens"`
	OtherTokens []ClassifiedToken `json:"otherTokens"`
	NFTs        []NFTAsset        `json:"nfts"`
	Errors      []string          `json:"errors,omitempty"`
}

// AssetCollection is the output of one collection run over a wallet set.
type AssetCollection struct {
	CollectedAt time.Time      `json:"collectedAt"`
	Wallets     []WalletAssets `json:"wallets"`
}

// MemeTokens flattens the meme tokens of every wallet.
func (c AssetCollection) MemeTokens() []ClassifiedToken {
	var out []ClassifiedToken
	for _, w := range c.Wallets {
		out = append(out, w.MemeTokens...)
	}
	return out
}

// OtherTokens flattens the non-meme tokens of every wallet.
func (c AssetCollection) OtherTokens() []ClassifiedToken {
	var out []ClassifiedToken
	for _, w := range c.Wallets {
		out = append(out, w.OtherTokens...)
	}
	return out
}

// NFTs flattens the NFTs of every wallet.
func (c AssetCollection) NFTs() []NFTAsset {
	var out []NFTAsset
	for _, w := range c.Wallets {
		out = append(out, w.NFTs...)
	}
	return out
}
