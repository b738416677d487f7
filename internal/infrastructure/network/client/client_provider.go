package client

import (
	"fmt"
	"sync"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/infrastructure/configloader"
)

// xrplClientProvider implements port.LedgerClientProvider. Clients are cached
// per network so the rotation position survives between callers.
type xrplClientProvider struct {
	clients map[string]port.LedgerClient
	mu      sync.Mutex
	opts    Options
	logger  port.Logger
}

// NewXRPLClientProvider creates a provider sharing one set of client options.
func NewXRPLClientProvider(cfg configloader.RpcClientConfig, logger port.Logger) port.LedgerClientProvider {
	return &xrplClientProvider{
		clients: make(map[string]port.LedgerClient),
		opts:    OptionsFromConfig(cfg),
		logger:  logger,
	}
}

// GetClient returns the cached client for the network, creating it on first use.
func (p *xrplClientProvider) GetClient(def entity.NetworkDefinition) (port.LedgerClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[def.Identifier]; ok {
		return c, nil
	}

	p.logger.Info("Creating new XRPL client", "network", def.Identifier, "endpoints", len(def.JSONRPCURLs))
	c, err := NewXRPLClient(def.JSONRPCURLs, p.opts, p.logger)
	if err != nil {
		p.logger.Error("Failed to create XRPL client", "network", def.Identifier, "error", err)
		return nil, fmt.Errorf("failed to create XRPL client for %s: %w", def.Name, err)
	}
	p.clients[def.Identifier] = c
	return c, nil
}
