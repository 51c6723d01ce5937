package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultDistributionConfig_Valid(t *testing.T) {
	cfg := NewDefaultDistributionConfig()
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "mainnet", cfg.Sources[0].Name)
	assert.Equal(t, ChainId_EthereumMainnet, cfg.Sources[0].ChainID)
	assert.Equal(t, "xdai", cfg.Sources[1].Name)
	assert.Equal(t, ChainId_Gnosis, cfg.Sources[1].ChainID)
	assert.Equal(t, uint(4), cfg.CapDecimals)
	assert.Equal(t, 1000, cfg.PageSize)
}

func TestDistributionConfig_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *DistributionConfig)
		wantErr string
	}{
		{
			name:    "one source",
			mutate:  func(c *DistributionConfig) { c.Sources = c.Sources[:1] },
			wantErr: "exactly two sources are required",
		},
		{
			name:    "duplicate source names",
			mutate:  func(c *DistributionConfig) { c.Sources[1].Name = c.Sources[0].Name },
			wantErr: "Duplicate value",
		},
		{
			name:    "missing source name",
			mutate:  func(c *DistributionConfig) { c.Sources[0].Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "unsupported chain",
			mutate:  func(c *DistributionConfig) { c.Sources[0].ChainID = 5 },
			wantErr: "sources[0].chainId",
		},
		{
			name:    "missing subgraph url",
			mutate:  func(c *DistributionConfig) { c.Sources[1].SubgraphURL = "" },
			wantErr: "subgraphUrl is required",
		},
		{
			name:    "bad token address",
			mutate:  func(c *DistributionConfig) { c.Sources[1].TokenAddress = "0x1234" },
			wantErr: "invalid address format",
		},
		{
			name:    "bad excluded address",
			mutate:  func(c *DistributionConfig) { c.ExcludedAddresses = []string{"nope"} },
			wantErr: "excludedAddresses[0]",
		},
		{
			name:    "page size too large",
			mutate:  func(c *DistributionConfig) { c.PageSize = 1001 },
			wantErr: "must be between 1-1000",
		},
		{
			name:    "zero request rate",
			mutate:  func(c *DistributionConfig) { c.RequestsPerSecond = 0 },
			wantErr: "must be positive",
		},
		{
			name:    "badger without data path",
			mutate:  func(c *DistributionConfig) { c.PersistenceType = PersistenceType_Badger },
			wantErr: "dataPath is required",
		},
		{
			name:    "redis without address",
			mutate:  func(c *DistributionConfig) { c.PersistenceType = PersistenceType_Redis },
			wantErr: "address is required",
		},
		{
			name:    "unknown persistence",
			mutate:  func(c *DistributionConfig) { c.PersistenceType = "sqlite" },
			wantErr: "persistenceType",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultDistributionConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDistributionConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := NewDefaultDistributionConfig()
	cfg.PageSize = 0
	cfg.RequestsPerSecond = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pageSize")
	assert.Contains(t, err.Error(), "requestsPerSecond")
}

func TestSourceByName(t *testing.T) {
	cfg := NewDefaultDistributionConfig()

	src, err := cfg.SourceByName("xdai")
	require.NoError(t, err)
	assert.Equal(t, DefaultXDaiTokenAddress, src.TokenAddress)

	_, err = cfg.SourceByName("polygon")
	require.Error(t, err)
}

func TestParseAddressList(t *testing.T) {
	assert.Equal(t, []string{}, ParseAddressList(""))
	assert.Equal(t, []string{"0xa", "0xb"}, ParseAddressList(" 0xa, ,0xb ,"))
}

func TestChainMaps(t *testing.T) {
	for _, id := range GetSupportedChainIDs() {
		name, ok := ChainIdToName[id]
		require.True(t, ok)
		assert.Equal(t, id, ChainNameToId[name])
	}
	assert.Len(t, GetSupportedChainIDsString(), len(GetSupportedChainIDs()))
}
