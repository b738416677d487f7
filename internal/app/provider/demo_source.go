package provider

import (
	"context"

	"xrpl_control_room/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// DemoSource settles instantly with a zero-balance placeholder and never
// touches the network.
type DemoSource struct{}

func NewDemoSource() *DemoSource { return &DemoSource{} }

func (DemoSource) Name() string { return "demo" }

func (DemoSource) Live() bool { return false }

func (DemoSource) Fetch(_ context.Context, address string) (entity.WalletSnapshot, error) {
	return entity.WalletSnapshot{
		Account: entity.AccountInfo{Address: address, Balance: decimal.Zero, Exists: true},
		Tokens:  []entity.TokenHolding{},
	}, nil
}
