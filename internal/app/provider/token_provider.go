package provider

import (
	"errors"
	"io/fs"
	"strings"
	"sync"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/infrastructure/tokenloader"
)

type tokenProviderImpl struct {
	filePath    string
	logger      port.Logger
	mu          sync.Mutex
	tokensCache []entity.MemeToken
}

// NewTokenProvider creates a MemeTokenProvider that merges the built-in table
// with the optional file at filePath. File entries override built-in ones
// with the same currency code.
func NewTokenProvider(filePath string, logger port.Logger) port.MemeTokenProvider {
	return &tokenProviderImpl{filePath: filePath, logger: logger}
}

// MemeTokens returns the merged table, cached after the first successful load.
func (p *tokenProviderImpl) MemeTokens() ([]entity.MemeToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tokensCache != nil {
		return p.tokensCache, nil
	}

	tokens := BuiltinMemeTokens()
	if p.filePath != "" {
		fromFile, err := tokenloader.LoadMemeTokens(p.filePath, p.logger)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			p.logger.Info("Meme token file not found, using built-in table", "path", p.filePath)
		case err != nil:
			p.logger.Error("Failed to load meme tokens", "path", p.filePath, "error", err)
			return nil, err
		default:
			tokens = mergeMemeTokens(tokens, fromFile)
		}
	}

	p.tokensCache = tokens
	p.logger.Info("Meme tokens loaded and cached", "count", len(tokens))
	return tokens, nil
}

func mergeMemeTokens(base, overrides []entity.MemeToken) []entity.MemeToken {
	index := make(map[string]int, len(base))
	out := append([]entity.MemeToken(nil), base...)
	for i, t := range out {
		index[strings.ToUpper(t.Currency)] = i
	}
	for _, t := range overrides {
		key := strings.ToUpper(t.Currency)
		if i, ok := index[key]; ok {
			out[i] = t
			continue
		}
		index[key] = len(out)
		out = append(out, t)
	}
	return out
}
