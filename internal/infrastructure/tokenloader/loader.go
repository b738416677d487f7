package tokenloader

import (
	"fmt"
	"os"
	"strings"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DefaultMemeTokensPath = "data/meme_tokens.json"

// LoadMemeTokens reads additional community token definitions from a JSON
// array file. Entries without a currency code are skipped.
func LoadMemeTokens(filePath string, logger port.Logger) ([]entity.MemeToken, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read meme token file %s: %w", filePath, err)
	}

	var tokensInFile []entity.MemeToken
	if err := json.Unmarshal(data, &tokensInFile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meme tokens from %s: %w", filePath, err)
	}

	valid := make([]entity.MemeToken, 0, len(tokensInFile))
	for i, token := range tokensInFile {
		token.Currency = strings.TrimSpace(token.Currency)
		token.Symbol = strings.TrimSpace(token.Symbol)
		if token.Currency == "" {
			logger.Warn("Meme token entry has no currency, skipping", "file", filePath, "index", i)
			continue
		}
		if token.Name == "" {
			token.Name = token.Symbol
		}
		valid = append(valid, token)
	}
	return valid, nil
}
