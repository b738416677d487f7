package entity

import "github.com/shopspring/decimal"

// TrustLine is an issued-currency line as reported by the ledger.
type TrustLine struct {
	Account  string          `json:"account"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	Limit    decimal.Decimal `json:"limit"`
}

// TokenHolding is an issued-currency balance held by a wallet.
type TokenHolding struct {
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	Issuer   string          `json:"issuer"`
}
