package entity

// MetadataStatus tracks off-ledger metadata resolution for an NFT.
type MetadataStatus string

const (
	MetadataNone     MetadataStatus = "none"
	MetadataPending  MetadataStatus = "pending"
	MetadataResolved MetadataStatus = "resolved"
	MetadataFailed   MetadataStatus = "failed"
)

// NFTAsset is a non-fungible token owned by a wallet.
type NFTAsset struct {
	TokenID     string `json:"tokenId"`
	Owner       string `json:"owner"`
	Issuer      string `json:"issuer"`
	Taxon       uint32 `json:"taxon"`
	Serial      uint32 `json:"serial"`
	Flags       uint32 `json:"flags"`
	TransferFee uint32 `json:"transferFee"`
	URI         string `json:"uri,omitempty"`

	Image          string         `json:"image,omitempty"`
	Name           string         `json:"name,omitempty"`
	Description    string         `json:"description,omitempty"`
	Attributes     []NFTAttribute `json:"attributes,omitempty"`
	MetadataStatus MetadataStatus `json:"metadataStatus"`
}

// NFTAttribute is a single trait from an NFT metadata document.
type NFTAttribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// NFTMetadata is the resolved off-ledger document of an NFT.
type NFTMetadata struct {
	Image       string         `json:"image"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Attributes  []NFTAttribute `json:"attributes"`
}
