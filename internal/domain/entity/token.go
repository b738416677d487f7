package entity

// MemeToken is an entry in the community token lookup table.
type MemeToken struct {
	Currency string `json:"currency"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Issuer   string `json:"issuer,omitempty"`
}

// TokenKind classifies a token holding.
type TokenKind string

const (
	TokenKindMeme  TokenKind = "meme"
	TokenKindOther TokenKind = "other"
)

// ClassifiedToken is a token holding after classification against the meme table.
type ClassifiedToken struct {
	TokenHolding
	Kind        TokenKind `json:"kind"`
	Symbol      string    `json:"symbol"`
	DisplayName string    `json:"displayName"`
	Wallet      string    `json:"wallet"`
}
