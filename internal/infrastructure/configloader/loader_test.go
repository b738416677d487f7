package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  port: \":9090\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "mainnet", cfg.Network.Identifier)
	assert.Equal(t, int64(15000), cfg.RpcClient.AttemptTimeoutMs)
	assert.Equal(t, 30, cfg.Market.PollIntervalSec)
	assert.Equal(t, "ripple", cfg.Market.CoinGecko.CoinID)
	assert.Equal(t, "https://ipfs.io/ipfs/", cfg.Assets.IPFSGateway)
	assert.Equal(t, "badger", cfg.Storage.Driver)
	assert.Equal(t, "data/state", cfg.Storage.Path)
	assert.Equal(t, cfg.Market.CoinGecko.RequestTimeoutMillis, cfg.Market.SentiCrypt.RequestTimeoutMillis)
}

func TestParse_KeepsExplicitValues(t *testing.T) {
	raw := `
network:
  identifier: testnet
  jsonRpcUrls:
    - https://s.altnet.rippletest.net:51234
rpcClient:
  attemptTimeoutMs: 2500
assets:
  ipfsGateway: https://cloudflare-ipfs.com/ipfs
storage:
  driver: memory
`
	cfg, err := Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "testnet", cfg.Network.Identifier)
	assert.Equal(t, []string{"https://s.altnet.rippletest.net:51234"}, cfg.Network.JSONRPCURLs)
	assert.Equal(t, int64(2500), cfg.RpcClient.AttemptTimeoutMs)
	assert.Equal(t, "https://cloudflare-ipfs.com/ipfs/", cfg.Assets.IPFSGateway)
	assert.Equal(t, "", cfg.Storage.Path)
}

func TestParse_RejectsBadValues(t *testing.T) {
	_, err := Parse([]byte("storage:\n  driver: postgres\n"))
	assert.ErrorContains(t, err, "unsupported driver")

	_, err = Parse([]byte("network:\n  jsonRpcUrls: [\"not a url\"]\n"))
	assert.ErrorContains(t, err, "jsonRpcUrls")

	_, err = Parse([]byte("server: [broken"))
	assert.Error(t, err)
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
