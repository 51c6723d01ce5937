package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for distribution configuration
const (
	EnvMainnetRPCURL       = "DIST_MAINNET_RPC_URL"
	EnvMainnetSubgraphURL  = "DIST_MAINNET_SUBGRAPH_URL"
	EnvMainnetTokenAddress = "DIST_MAINNET_TOKEN_ADDRESS"
	EnvXDaiRPCURL          = "DIST_XDAI_RPC_URL"
	EnvXDaiSubgraphURL     = "DIST_XDAI_SUBGRAPH_URL"
	EnvXDaiTokenAddress    = "DIST_XDAI_TOKEN_ADDRESS"
	EnvExcludedAddresses   = "DIST_EXCLUDED_ADDRESSES"
	EnvCapDecimals         = "DIST_CAP_DECIMALS"
	EnvSnapshotFile        = "DIST_SNAPSHOT_FILE"
	EnvPersistenceType     = "DIST_PERSISTENCE_TYPE"
	EnvDataPath            = "DIST_DATA_PATH"
	EnvRedisAddress        = "DIST_REDIS_ADDRESS"
	EnvRedisPassword       = "DIST_REDIS_PASSWORD"
	EnvRedisDB             = "DIST_REDIS_DB"
	EnvMetricsFile         = "DIST_METRICS_FILE"
	EnvPageSize            = "DIST_PAGE_SIZE"
	EnvRequestsPerSecond   = "DIST_REQUESTS_PER_SECOND"
	EnvTreeWorkers         = "DIST_TREE_WORKERS"
	EnvLogFile             = "DIST_LOG_FILE"
	EnvVerbose             = "DIST_VERBOSE"
)

type ChainId uint

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_Gnosis          ChainId = 100
	ChainId_EthereumAnvil   ChainId = 31337
)

type ChainName string

const (
	ChainName_EthereumMainnet ChainName = "mainnet"
	ChainName_Gnosis          ChainName = "xdai"
	ChainName_EthereumAnvil   ChainName = "devnet"
)

var ChainIdToName = map[ChainId]ChainName{
	ChainId_EthereumMainnet: ChainName_EthereumMainnet,
	ChainId_Gnosis:          ChainName_Gnosis,
	ChainId_EthereumAnvil:   ChainName_EthereumAnvil,
}
var ChainNameToId = map[ChainName]ChainId{
	ChainName_EthereumMainnet: ChainId_EthereumMainnet,
	ChainName_Gnosis:          ChainId_Gnosis,
	ChainName_EthereumAnvil:   ChainId_EthereumAnvil,
}

// Defaults for the locked BAO distribution
const (
	DefaultMainnetTokenAddress = "0x374CB8C27130E2c9E04F44303f3c8351B9De61C1"
	DefaultXDaiTokenAddress    = "0xe0d0b1DBbCF3dd5CAc67edaf9243863Fd70745DA"
	DefaultMainnetSubgraphURL  = "https://api.thegraph.com/subgraphs/name/n0xmare/locked-bao-mainnet"
	DefaultXDaiSubgraphURL     = "https://api.thegraph.com/subgraphs/name/n0xmare/locked-bao-xdai"
	DefaultMainnetRPCURL       = "http://localhost:8545"
	DefaultXDaiRPCURL          = "https://rpc.gnosischain.com/"

	// DefaultCapDecimals is the power of ten amounts are divided by for the
	// cap-adjusted total (10^4).
	DefaultCapDecimals = 4

	DefaultSnapshotFile      = "snapshot.json"
	DefaultPageSize          = 1000
	DefaultRequestsPerSecond = 5
	DefaultRequestTimeout    = 30 * time.Second
)

type PersistenceType string

const (
	PersistenceType_File   PersistenceType = "file"
	PersistenceType_Memory PersistenceType = "memory"
	PersistenceType_Badger PersistenceType = "badger"
	PersistenceType_Redis  PersistenceType = "redis"
)

// SourceConfig describes one ledger the distribution reads from.
type SourceConfig struct {
	Name         string  `json:"name"`
	ChainID      ChainId `json:"chain_id"`
	SubgraphURL  string  `json:"subgraph_url"`
	RpcUrl       string  `json:"rpc_url"`
	TokenAddress string  `json:"token_address"`
}

// DefaultSources returns the mainnet and xdai source configuration.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:         string(ChainName_EthereumMainnet),
			ChainID:      ChainId_EthereumMainnet,
			SubgraphURL:  DefaultMainnetSubgraphURL,
			RpcUrl:       DefaultMainnetRPCURL,
			TokenAddress: DefaultMainnetTokenAddress,
		},
		{
			Name:         string(ChainName_Gnosis),
			ChainID:      ChainId_Gnosis,
			SubgraphURL:  DefaultXDaiSubgraphURL,
			RpcUrl:       DefaultXDaiRPCURL,
			TokenAddress: DefaultXDaiTokenAddress,
		},
	}
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// DistributionConfig represents the complete configuration for a distribution run
type DistributionConfig struct {
	// Sources are merged in order: the first seeds the snapshot, the second is merged into it
	Sources []SourceConfig `json:"sources"`

	ExcludedAddresses []string `json:"excluded_addresses"`
	CapDecimals       uint     `json:"cap_decimals"`

	// Subgraph paging
	PageSize          int     `json:"page_size"`
	RequestsPerSecond float64 `json:"requests_per_second"`

	// Tree building; values below 2 build sequentially
	TreeWorkers int `json:"tree_workers"`

	// Persistence
	SnapshotFile    string          `json:"snapshot_file"`
	PersistenceType PersistenceType `json:"persistence_type"`
	DataPath        string          `json:"data_path"`
	Redis           RedisConfig     `json:"redis"`

	MetricsFile string `json:"metrics_file"`

	// Operational settings
	LogFile string `json:"log_file"`
	Verbose bool   `json:"verbose"`
}

// NewDefaultDistributionConfig returns a configuration for the BAO distribution.
func NewDefaultDistributionConfig() *DistributionConfig {
	return &DistributionConfig{
		Sources:           DefaultSources(),
		CapDecimals:       DefaultCapDecimals,
		PageSize:          DefaultPageSize,
		RequestsPerSecond: DefaultRequestsPerSecond,
		SnapshotFile:      DefaultSnapshotFile,
		PersistenceType:   PersistenceType_File,
	}
}

// Validate validates the distribution configuration
func (c *DistributionConfig) Validate() error {
	var allErrors field.ErrorList

	sourcesPath := field.NewPath("sources")
	if len(c.Sources) != 2 {
		allErrors = append(allErrors, field.Invalid(sourcesPath, len(c.Sources), "exactly two sources are required"))
	}
	seen := map[string]bool{}
	for i, src := range c.Sources {
		p := sourcesPath.Index(i)
		if src.Name == "" {
			allErrors = append(allErrors, field.Required(p.Child("name"), "name is required"))
		} else if seen[src.Name] {
			allErrors = append(allErrors, field.Duplicate(p.Child("name"), src.Name))
		}
		seen[src.Name] = true

		if _, ok := ChainIdToName[src.ChainID]; !ok {
			allErrors = append(allErrors, field.NotSupported(p.Child("chainId"), src.ChainID, GetSupportedChainIDsString()))
		}
		if src.SubgraphURL == "" {
			allErrors = append(allErrors, field.Required(p.Child("subgraphUrl"), "subgraphUrl is required"))
		}
		if src.TokenAddress != "" && !common.IsHexAddress(src.TokenAddress) {
			allErrors = append(allErrors, field.Invalid(p.Child("tokenAddress"), src.TokenAddress, "invalid address format"))
		}
	}

	for i, addr := range c.ExcludedAddresses {
		if !common.IsHexAddress(strings.TrimSpace(addr)) {
			allErrors = append(allErrors, field.Invalid(field.NewPath("excludedAddresses").Index(i), addr, "invalid address format"))
		}
	}

	if c.PageSize < 1 || c.PageSize > 1000 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("pageSize"), c.PageSize, "must be between 1-1000"))
	}
	if c.RequestsPerSecond <= 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("requestsPerSecond"), c.RequestsPerSecond, "must be positive"))
	}
	if c.CapDecimals > 77 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("capDecimals"), c.CapDecimals, "must be at most 77"))
	}

	switch c.PersistenceType {
	case PersistenceType_File, PersistenceType_Memory:
	case PersistenceType_Badger:
		if c.DataPath == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("dataPath"), "dataPath is required for badger persistence"))
		}
	case PersistenceType_Redis:
		if c.Redis.Address == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("redis", "address"), "address is required for redis persistence"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("persistenceType"), c.PersistenceType,
			[]string{string(PersistenceType_File), string(PersistenceType_Memory), string(PersistenceType_Badger), string(PersistenceType_Redis)}))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// SourceByName returns the source with the given name.
func (c *DistributionConfig) SourceByName(name string) (*SourceConfig, error) {
	for i := range c.Sources {
		if c.Sources[i].Name == name {
			return &c.Sources[i], nil
		}
	}
	return nil, fmt.Errorf("unknown source: %s", name)
}

// ParseAddressList splits a comma separated address list, dropping blanks.
func ParseAddressList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetSupportedChainIDs returns all supported chain IDs
func GetSupportedChainIDs() []ChainId {
	return []ChainId{
		ChainId_EthereumMainnet,
		ChainId_Gnosis,
		ChainId_EthereumAnvil,
	}
}

// GetSupportedChainIDsString returns supported chain IDs as strings for CLI help
func GetSupportedChainIDsString() []string {
	return []string{
		fmt.Sprintf("%d (mainnet)", ChainId_EthereumMainnet),
		fmt.Sprintf("%d (xdai)", ChainId_Gnosis),
		fmt.Sprintf("%d (anvil)", ChainId_EthereumAnvil),
	}
}
