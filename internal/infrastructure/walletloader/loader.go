package walletloader

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/pkg/utils"
)

const DefaultWalletFilePath = "data/wallets.txt"

// LoadWallets reads seed wallets from a text file. Each non-comment line is
// "address[,label[,provider]]". Lines with an invalid address or provider are
// skipped and logged; duplicate addresses keep the first occurrence.
func LoadWallets(filePath string, logger port.Logger) ([]entity.WalletSeed, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet file %s: %w", filePath, err)
	}
	defer file.Close()

	var seeds []entity.WalletSeed
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		seed := entity.WalletSeed{
			Address:  strings.TrimSpace(parts[0]),
			Provider: entity.ProviderWallet,
		}
		if len(parts) > 1 {
			seed.Label = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			if p := entity.Provider(strings.ToLower(strings.TrimSpace(parts[2]))); p != "" {
				seed.Provider = p
			}
		}

		if !utils.IsValidXRPLAddress(seed.Address) {
			logger.Warn("Skipping invalid wallet address", "file", filePath, "line_number", lineNum, "address", seed.Address)
			continue
		}
		if !seed.Provider.IsValid() {
			logger.Warn("Skipping wallet with unknown provider", "file", filePath, "line_number", lineNum, "provider", seed.Provider)
			continue
		}
		if seen[seed.Address] {
			logger.Debug("Skipping duplicate wallet address", "file", filePath, "line_number", lineNum, "address", seed.Address)
			continue
		}
		seen[seed.Address] = true
		seeds = append(seeds, seed)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning wallet file %s: %w", filePath, err)
	}
	return seeds, nil
}
