package provider

import (
	"errors"
	"io/fs"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/infrastructure/walletloader"
)

type walletProviderImpl struct {
	walletFilePath string
	logger         port.Logger
}

// NewWalletProvider creates a WalletProvider reading seed wallets from a file.
func NewWalletProvider(filePath string, logger port.Logger) port.WalletProvider {
	if filePath == "" {
		filePath = walletloader.DefaultWalletFilePath
	}
	return &walletProviderImpl{walletFilePath: filePath, logger: logger}
}

// GetWallets loads seed wallets. A missing file yields no seeds.
func (p *walletProviderImpl) GetWallets() ([]entity.WalletSeed, error) {
	p.logger.Debug("Loading wallets from file", "path", p.walletFilePath)
	seeds, err := walletloader.LoadWallets(p.walletFilePath, p.logger)
	if errors.Is(err, fs.ErrNotExist) {
		p.logger.Info("Wallet seed file not found, starting empty", "path", p.walletFilePath)
		return []entity.WalletSeed{}, nil
	}
	if err != nil {
		p.logger.Error("Failed to load wallets", "path", p.walletFilePath, "error", err)
		return nil, err
	}
	p.logger.Info("Wallets loaded successfully", "count", len(seeds), "path", p.walletFilePath)
	return seeds, nil
}
