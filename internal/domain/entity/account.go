package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountInfo is the normalized account summary of a ledger address.
// Exists is false for addresses the ledger does not know yet.
type AccountInfo struct {
	Address     string          `json:"address"`
	Balance     decimal.Decimal `json:"balance"`
	Sequence    uint32          `json:"sequence"`
	OwnerCount  uint32          `json:"ownerCount"`
	LedgerIndex uint32          `json:"ledgerIndex"`
	Exists      bool            `json:"exists"`
}

// AccountTx is a normalized entry from an account's transaction history.
type AccountTx struct {
	Hash        string           `json:"hash"`
	Type        string           `json:"type"`
	Account     string           `json:"account"`
	Destination string           `json:"destination,omitempty"`
	AmountXRP   *decimal.Decimal `json:"amountXrp,omitempty"`
	Fee         decimal.Decimal  `json:"fee"`
	LedgerIndex uint32           `json:"ledgerIndex"`
	Date        time.Time        `json:"date"`
	Result      string           `json:"result"`
	Validated   bool             `json:"validated"`
}

// OverviewPart names one of the independent sub-queries of an account overview.
type OverviewPart string

const (
	OverviewLines        OverviewPart = "lines"
	OverviewNFTs         OverviewPart = "nfts"
	OverviewTransactions OverviewPart = "transactions"
)

// AccountOverview aggregates concurrent sub-queries for one address. A failed
// part leaves its slice empty and records the error under its name.
type AccountOverview struct {
	Address      string                 `json:"address"`
	Lines        []TrustLine            `json:"lines"`
	NFTs         []NFTAsset             `json:"nfts"`
	Transactions []AccountTx            `json:"transactions"`
	Errors       map[OverviewPart]error `json:"-"`
}

// Err returns the error recorded for part, if any.
func (o *AccountOverview) Err(part OverviewPart) error {
	if o.Errors == nil {
		return nil
	}
	return o.Errors[part]
}
