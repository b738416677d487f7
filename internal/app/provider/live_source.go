package provider

import (
	"context"
	"fmt"
	"sync"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"

	"golang.org/x/sync/errgroup"
)

// LiveSource fetches wallet state from the ledger.
type LiveSource struct {
	client port.LedgerClient
	logger port.Logger
}

// NewLiveSource creates the network-backed data source.
func NewLiveSource(client port.LedgerClient, logger port.Logger) *LiveSource {
	return &LiveSource{client: client, logger: logger}
}

func (s *LiveSource) Name() string { return "live" }

func (s *LiveSource) Live() bool { return true }

// Fetch reads the account summary, trust lines and NFTs concurrently. Only a
// failed account summary fails the fetch; lines and NFTs degrade to empty.
func (s *LiveSource) Fetch(ctx context.Context, address string) (entity.WalletSnapshot, error) {
	var (
		info     entity.AccountInfo
		infoErr  error
		lines    []entity.TrustLine
		nftCount int
		mu       sync.Mutex
	)

	var g errgroup.Group
	g.Go(func() error {
		res, err := s.client.AccountInfo(ctx, address)
		mu.Lock()
		info, infoErr = res, err
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		res, err := s.client.AccountLines(ctx, address)
		if err != nil {
			s.logger.Warn("Trust lines unavailable, continuing without tokens", "address", address, "error", err)
			return nil
		}
		mu.Lock()
		lines = res
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		res, err := s.client.AccountNFTs(ctx, address)
		if err != nil {
			s.logger.Warn("NFTs unavailable, continuing without NFT count", "address", address, "error", err)
			return nil
		}
		mu.Lock()
		nftCount = len(res)
		mu.Unlock()
		return nil
	})
	_ = g.Wait()

	if infoErr != nil {
		return entity.WalletSnapshot{}, fmt.Errorf("account info for %s: %w", address, infoErr)
	}
	if !info.Exists {
		return entity.WalletSnapshot{Account: info, Tokens: []entity.TokenHolding{}}, nil
	}
	return entity.WalletSnapshot{
		Account:  info,
		Tokens:   PositiveHoldings(lines),
		NFTCount: nftCount,
	}, nil
}

// PositiveHoldings converts trust lines to holdings, dropping lines whose
// balance is zero or negative.
func PositiveHoldings(lines []entity.TrustLine) []entity.TokenHolding {
	holdings := make([]entity.TokenHolding, 0, len(lines))
	for _, line := range lines {
		if !line.Balance.IsPositive() {
			continue
		}
		holdings = append(holdings, entity.TokenHolding{
			Currency: line.Currency,
			Balance:  line.Balance,
			Issuer:   line.Account,
		})
	}
	return holdings
}
