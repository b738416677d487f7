package service

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/app/provider"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// memeCodeMaxLength is the longest unlisted currency code still treated as a meme token.
const memeCodeMaxLength = 5

const maxConcurrentCollections = 4

// AssetCollector implements port.AssetCollector.
type AssetCollector struct {
	client   port.LedgerClient
	tokens   port.MemeTokenProvider
	resolver port.MetadataResolver
	workers  int
	logger   port.Logger
	now      func() time.Time

	mu         sync.RWMutex
	current    entity.AssetCollection
	generation uint64
	cancelPrev context.CancelFunc

	bgMu  sync.Mutex
	bgCtx context.Context
	bg    sync.WaitGroup
}

// NewAssetCollector creates a collector. resolver may be nil, in which case
// NFT metadata is never fetched.
func NewAssetCollector(
	client port.LedgerClient,
	tokens port.MemeTokenProvider,
	resolver port.MetadataResolver,
	workers int,
	logger port.Logger,
) *AssetCollector {
	if workers <= 0 {
		workers = 1
	}
	return &AssetCollector{
		client:   client,
		tokens:   tokens,
		resolver: resolver,
		workers:  workers,
		logger:   logger,
		now:      time.Now,
		current:  entity.AssetCollection{Wallets: []entity.WalletAssets{}},
		bgCtx:    context.Background(),
	}
}

// Start binds background metadata resolution to ctx.
func (c *AssetCollector) Start(ctx context.Context) {
	c.bgMu.Lock()
	defer c.bgMu.Unlock()
	c.bgCtx = ctx
}

// Collect fetches trust lines and NFTs for every address, classifies the
// tokens and replaces the previous collection. NFTs with a URI are left
// pending and resolved in the background.
func (c *AssetCollector) Collect(ctx context.Context, addresses []string) (entity.AssetCollection, error) {
	table := c.memeTable()

	wallets := make([]entity.WalletAssets, len(addresses))
	var g errgroup.Group
	g.SetLimit(maxConcurrentCollections)
	for i, address := range addresses {
		g.Go(func() error {
			wallets[i] = c.collectWallet(ctx, address, table)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return entity.AssetCollection{}, err
	}

	collection := entity.AssetCollection{CollectedAt: c.now().UTC(), Wallets: wallets}

	c.bgMu.Lock()
	parent := c.bgCtx
	c.bgMu.Unlock()
	resolveCtx, cancel := context.WithCancel(parent)

	c.mu.Lock()
	if c.cancelPrev != nil {
		c.cancelPrev()
	}
	c.cancelPrev = cancel
	c.generation++
	gen := c.generation
	c.current = collection
	snapshot := cloneCollection(collection)
	c.mu.Unlock()

	c.logger.Info("Assets collected",
		"wallets", len(addresses),
		"memeTokens", len(snapshot.MemeTokens()),
		"otherTokens", len(snapshot.OtherTokens()),
		"nfts", len(snapshot.NFTs()))

	c.resolveMetadata(resolveCtx, gen, snapshot)
	return snapshot, nil
}

// Snapshot returns the current collection including metadata resolved so far.
func (c *AssetCollector) Snapshot() entity.AssetCollection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneCollection(c.current)
}

// Wait blocks until background metadata resolution has finished.
func (c *AssetCollector) Wait() {
	c.bg.Wait()
}

func (c *AssetCollector) memeTable() memeTable {
	tokens, err := c.tokens.MemeTokens()
	if err != nil {
		c.logger.Warn("Meme token table unavailable, using built-in entries", "error", err)
		tokens = provider.BuiltinMemeTokens()
	}
	return newMemeTable(tokens)
}

func (c *AssetCollector) collectWallet(ctx context.Context, address string, table memeTable) entity.WalletAssets {
	assets := entity.WalletAssets{
		Address:     address,
		MemeTokens:  []entity.ClassifiedToken{},
		OtherTokens: []entity.ClassifiedToken{},
		NFTs:        []entity.NFTAsset{},
	}

	var (
		lines    []entity.TrustLine
		nfts     []entity.NFTAsset
		linesErr error
		nftsErr  error
	)
	var g errgroup.Group
	g.Go(func() error {
		lines, linesErr = c.client.AccountLines(ctx, address)
		return nil
	})
	g.Go(func() error {
		nfts, nftsErr = c.client.AccountNFTs(ctx, address)
		return nil
	})
	_ = g.Wait()

	if linesErr != nil {
		c.logger.Warn("Trust lines fetch failed", "address", address, "error", linesErr)
		assets.Errors = append(assets.Errors, "lines: "+linesErr.Error())
	}
	for _, holding := range provider.PositiveHoldings(lines) {
		token := table.classify(holding, address)
		if token.Kind == entity.TokenKindMeme {
			assets.MemeTokens = append(assets.MemeTokens, token)
		} else {
			assets.OtherTokens = append(assets.OtherTokens, token)
		}
	}

	if nftsErr != nil {
		c.logger.Warn("NFT fetch failed", "address", address, "error", nftsErr)
		assets.Errors = append(assets.Errors, "nfts: "+nftsErr.Error())
	}
	for _, nft := range nfts {
		nft.MetadataStatus = entity.MetadataNone
		if nft.URI != "" && c.resolver != nil {
			nft.MetadataStatus = entity.MetadataPending
		}
		assets.NFTs = append(assets.NFTs, nft)
	}
	return assets
}

type nftRef struct {
	wallet int
	nft    int
	uri    string
}

func (c *AssetCollector) resolveMetadata(ctx context.Context, gen uint64, collection entity.AssetCollection) {
	var refs []nftRef
	for wi, w := range collection.Wallets {
		for ni, nft := range w.NFTs {
			if nft.MetadataStatus == entity.MetadataPending {
				refs = append(refs, nftRef{wallet: wi, nft: ni, uri: nft.URI})
			}
		}
	}
	if len(refs) == 0 {
		return
	}

	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		var g errgroup.Group
		g.SetLimit(c.workers)
		for _, ref := range refs {
			g.Go(func() error {
				meta, err := c.resolver.Resolve(ctx, ref.uri)
				c.applyMetadata(gen, ref, meta, err)
				return nil
			})
		}
		_ = g.Wait()
		c.logger.Debug("NFT metadata resolution finished", "generation", gen, "nfts", len(refs))
	}()
}

// applyMetadata writes a resolution result into the collection it was
// started for. Results for a replaced collection are dropped.
func (c *AssetCollector) applyMetadata(gen uint64, ref nftRef, meta entity.NFTMetadata, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	nft := &c.current.Wallets[ref.wallet].NFTs[ref.nft]
	if err != nil {
		nft.MetadataStatus = entity.MetadataFailed
		c.logger.Debug("NFT metadata unavailable", "tokenId", nft.TokenID, "uri", ref.uri, "error", err)
		return
	}
	nft.Image = meta.Image
	nft.Name = meta.Name
	nft.Description = meta.Description
	nft.Attributes = meta.Attributes
	nft.MetadataStatus = entity.MetadataResolved
}

// memeTable matches holdings against the community token list by raw
// currency code or display symbol, ignoring case.
type memeTable map[string]entity.MemeToken

func newMemeTable(tokens []entity.MemeToken) memeTable {
	table := make(memeTable, len(tokens)*2)
	for _, t := range tokens {
		if t.Currency != "" {
			table[strings.ToUpper(t.Currency)] = t
		}
		if t.Symbol != "" {
			table[strings.ToUpper(t.Symbol)] = t
		}
	}
	return table
}

func (t memeTable) classify(holding entity.TokenHolding, wallet string) entity.ClassifiedToken {
	display := utils.DecodeCurrencyCode(holding.Currency)
	token := entity.ClassifiedToken{TokenHolding: holding, Wallet: wallet}

	meme, ok := t[strings.ToUpper(holding.Currency)]
	if !ok {
		meme, ok = t[strings.ToUpper(display)]
	}
	switch {
	case ok:
		token.Kind = entity.TokenKindMeme
		token.Symbol = firstNonEmpty(meme.Symbol, display)
		token.DisplayName = firstNonEmpty(meme.Name, token.Symbol)
	// the length fallback looks at the raw code, never the decoded symbol
	case len(holding.Currency) <= memeCodeMaxLength:
		token.Kind = entity.TokenKindMeme
		token.Symbol = holding.Currency
		token.DisplayName = holding.Currency
	default:
		token.Kind = entity.TokenKindOther
		token.Symbol = display
		token.DisplayName = display
	}
	return token
}

func cloneCollection(in entity.AssetCollection) entity.AssetCollection {
	out := entity.AssetCollection{CollectedAt: in.CollectedAt, Wallets: make([]entity.WalletAssets, len(in.Wallets))}
	for i, w := range in.Wallets {
		w.MemeTokens = slices.Clone(w.MemeTokens)
		w.OtherTokens = slices.Clone(w.OtherTokens)
		w.NFTs = slices.Clone(w.NFTs)
		w.Errors = slices.Clone(w.Errors)
		out.Wallets[i] = w
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
