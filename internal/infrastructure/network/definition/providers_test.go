package networkdefinition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrpl_control_room/internal/infrastructure/configloader"
	"xrpl_control_room/internal/pkg/logger"
)

func TestNetworkDefinitionProvider_BuiltIns(t *testing.T) {
	p := NewNetworkDefinitionProvider(logger.NewNop(), configloader.NetworkConfig{})

	defs := p.GetAllNetworkDefinitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "mainnet", defs[0].Identifier)

	def, ok := p.GetNetworkDefinitionByName(" MainNet ")
	require.True(t, ok)
	assert.Len(t, def.JSONRPCURLs, 3)

	_, ok = p.GetNetworkDefinitionByName("sidechain")
	assert.False(t, ok)
}

func TestNetworkDefinitionProvider_Override(t *testing.T) {
	p := NewNetworkDefinitionProvider(logger.NewNop(), configloader.NetworkConfig{
		Identifier:   "testnet",
		JSONRPCURLs:  []string{"http://127.0.0.1:5005"},
		WebSocketURL: "ws://127.0.0.1:6006",
	})

	def, ok := p.GetNetworkDefinitionByName("testnet")
	require.True(t, ok)
	assert.Equal(t, []string{"http://127.0.0.1:5005"}, def.JSONRPCURLs)
	assert.Equal(t, "ws://127.0.0.1:6006", def.WebSocketURL)

	// Built-in definitions are not mutated by an override.
	assert.Len(t, Testnet.JSONRPCURLs, 2)
}

func TestNetworkDefinitionProvider_CustomNetwork(t *testing.T) {
	p := NewNetworkDefinitionProvider(logger.NewNop(), configloader.NetworkConfig{
		Identifier:  "standalone",
		JSONRPCURLs: []string{"http://localhost:5005"},
	})

	def, ok := p.GetNetworkDefinitionByName("standalone")
	require.True(t, ok)
	assert.Equal(t, "XRP", def.NativeSymbol)
	assert.Len(t, p.GetAllNetworkDefinitions(), 4)
}
