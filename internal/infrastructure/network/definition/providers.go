package networkdefinition

import (
	"fmt"
	"strings"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
	"xrpl_control_room/internal/infrastructure/configloader"
)

// NetworkDefinitionProvider provides XRPL network definitions.
type NetworkDefinitionProvider struct {
	logger         port.Logger
	allNetworkDefs map[string]entity.NetworkDefinition
	order          []string
}

// Predefined network definitions
var ( //nolint:gochecknoglobals // Global for definitions
	Mainnet = entity.NetworkDefinition{
		Identifier:   "mainnet",
		Name:         "XRP Ledger Mainnet",
		NativeSymbol: "XRP",
		JSONRPCURLs: []string{
			"https://xrplcluster.com",
			"https://s1.ripple.com:51234",
			"https://s2.ripple.com:51234",
		},
		WebSocketURL:     "wss://xrplcluster.com",
		BlockExplorerURL: "https://livenet.xrpl.org",
	}
	Testnet = entity.NetworkDefinition{
		Identifier:   "testnet",
		Name:         "XRP Ledger Testnet",
		NativeSymbol: "XRP",
		JSONRPCURLs: []string{
			"https://s.altnet.rippletest.net:51234",
			"https://testnet.xrpl-labs.com",
		},
		WebSocketURL:     "wss://s.altnet.rippletest.net:51233",
		BlockExplorerURL: "https://testnet.xrpl.org",
	}
	Devnet = entity.NetworkDefinition{
		Identifier:       "devnet",
		Name:             "XRP Ledger Devnet",
		NativeSymbol:     "XRP",
		JSONRPCURLs:      []string{"https://s.devnet.rippletest.net:51234"},
		WebSocketURL:     "wss://s.devnet.rippletest.net:51233",
		BlockExplorerURL: "https://devnet.xrpl.org",
	}
)

var knownDefinitionOrder = []entity.NetworkDefinition{Mainnet, Testnet, Devnet}

// NewNetworkDefinitionProvider creates a provider with the built-in networks.
// A non-empty override replaces the endpoints of the network it names.
func NewNetworkDefinitionProvider(log port.Logger, override configloader.NetworkConfig) *NetworkDefinitionProvider {
	p := &NetworkDefinitionProvider{
		logger:         log,
		allNetworkDefs: make(map[string]entity.NetworkDefinition, len(knownDefinitionOrder)),
	}

	for _, def := range knownDefinitionOrder {
		def.JSONRPCURLs = append([]string(nil), def.JSONRPCURLs...)
		p.allNetworkDefs[def.Identifier] = def
		p.order = append(p.order, def.Identifier)
	}

	identifier := strings.ToLower(strings.TrimSpace(override.Identifier))
	if identifier == "" {
		return p
	}

	def, ok := p.allNetworkDefs[identifier]
	if !ok {
		def = entity.NetworkDefinition{
			Identifier:   identifier,
			Name:         fmt.Sprintf("Custom network (%s)", identifier),
			NativeSymbol: "XRP",
		}
		p.order = append(p.order, identifier)
		p.logger.Warn("Unknown network identifier, registering custom network", "identifier", identifier)
	}
	if len(override.JSONRPCURLs) > 0 {
		def.JSONRPCURLs = append([]string(nil), override.JSONRPCURLs...)
		p.logger.Info("Overriding JSON-RPC endpoints from config", "network", identifier, "endpoints", len(def.JSONRPCURLs))
	}
	if override.WebSocketURL != "" {
		def.WebSocketURL = override.WebSocketURL
	}
	p.allNetworkDefs[identifier] = def

	return p
}

// GetAllNetworkDefinitions returns every known network definition.
func (p *NetworkDefinitionProvider) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	if p == nil {
		return []entity.NetworkDefinition{}
	}
	defs := make([]entity.NetworkDefinition, 0, len(p.order))
	for _, id := range p.order {
		defs = append(defs, p.allNetworkDefs[id])
	}
	return defs
}

// GetNetworkDefinitionByName returns a specific network definition by its identifier.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByName(identifier string) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	def, ok := p.allNetworkDefs[strings.ToLower(strings.TrimSpace(identifier))]
	return def, ok
}
