package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/config"
)

func main() {
	// A .env file is optional; flags and the process environment still apply
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "distribution",
		Usage: "Locked BAO merkle distribution tool",
		Description: `Builds the merkle distribution of locked BAO across mainnet and xdai.

This tool can:
- Fetch both ledgers, merge them into a canonical snapshot and commit to it
- Reconcile the snapshot against the on-chain locked supply
- Produce and verify inclusion proofs for single addresses`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvVerbose},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Write logs to a rotating file instead of stderr",
				EnvVars: []string{config.EnvLogFile},
			},
			&cli.StringFlag{
				Name:    "snapshot-file",
				Aliases: []string{"s"},
				Usage:   "Path of the canonical snapshot artifact",
				Value:   config.DefaultSnapshotFile,
				EnvVars: []string{config.EnvSnapshotFile},
			},
			&cli.UintFlag{
				Name:    "cap-decimals",
				Usage:   "Power of ten amounts are divided by for the cap-adjusted total",
				Value:   config.DefaultCapDecimals,
				EnvVars: []string{config.EnvCapDecimals},
			},
			&cli.IntFlag{
				Name:    "tree-workers",
				Usage:   "Goroutines used per tree level (values below 2 build sequentially)",
				EnvVars: []string{config.EnvTreeWorkers},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "snapshot",
				Usage: "Fetch both ledgers, build the snapshot and merkle root, and reconcile it",
				Flags: append(append(sourceFlags(), persistenceFlags()...),
					&cli.StringFlag{
						Name:    "excluded-addresses",
						Usage:   "Comma separated addresses removed from the snapshot",
						EnvVars: []string{config.EnvExcludedAddresses},
					},
					&cli.IntFlag{
						Name:    "page-size",
						Usage:   "Subgraph page size (1-1000)",
						Value:   config.DefaultPageSize,
						EnvVars: []string{config.EnvPageSize},
					},
					&cli.Float64Flag{
						Name:    "requests-per-second",
						Usage:   "Subgraph request rate limit per source",
						Value:   config.DefaultRequestsPerSecond,
						EnvVars: []string{config.EnvRequestsPerSecond},
					},
					&cli.StringFlag{
						Name:    "metrics-file",
						Usage:   "Write run metrics in prometheus text format to this file",
						EnvVars: []string{config.EnvMetricsFile},
					},
					&cli.BoolFlag{
						Name:  "skip-reconcile",
						Usage: "Do not read on-chain ground truth; the run is stored as not publishable",
					},
					&cli.BoolFlag{
						Name:  "allow-mismatch",
						Usage: "Exit successfully even when reconciliation fails",
					},
				),
				Action: snapshotCommand,
			},
			{
				Name:  "verify",
				Usage: "Reconcile an existing snapshot file against ground truth",
				Flags: append(sourceFlags(),
					&cli.StringFlag{
						Name:  "ground-truth",
						Usage: "Offline ground truth as source=amount pairs, e.g. mainnet=1000,xdai=200",
					},
					&cli.BoolFlag{
						Name:  "allow-mismatch",
						Usage: "Exit successfully even when reconciliation fails",
					},
				),
				Action: verifyCommand,
			},
			{
				Name:  "root",
				Usage: "Print the merkle root of a snapshot file and the proof for one address",
				Flags: append(sourceFlags(),
					&cli.StringFlag{
						Name:  "address",
						Usage: "Address to prove (default: second largest holder)",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output file for the proof document",
					},
					&cli.BoolFlag{
						Name:  "check-lock",
						Usage: "Compare the proven amount with the address's lockOf summed over both chains",
					},
				),
				Action: rootCommand,
			},
			{
				Name:      "verify-proof",
				Usage:     "Verify a proof document without the snapshot",
				ArgsUsage: "[proof.json]",
				Action:    verifyProofCommand,
			},
			{
				Name:  "runs",
				Usage: "List persisted distribution runs",
				Flags: append(persistenceFlags(),
					&cli.StringFlag{
						Name:  "run-id",
						Usage: "Print the full record of one run",
					},
					&cli.BoolFlag{
						Name:  "latest",
						Usage: "Print the full record of the most recent run",
					},
				),
				Action: runsCommand,
			},
		},
	}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "mainnet-rpc-url",
			Usage:   "Ethereum mainnet RPC endpoint URL",
			Value:   config.DefaultMainnetRPCURL,
			EnvVars: []string{config.EnvMainnetRPCURL},
		},
		&cli.StringFlag{
			Name:    "mainnet-subgraph-url",
			Usage:   "Locked BAO subgraph on mainnet",
			Value:   config.DefaultMainnetSubgraphURL,
			EnvVars: []string{config.EnvMainnetSubgraphURL},
		},
		&cli.StringFlag{
			Name:    "mainnet-token-address",
			Usage:   "Locked token contract on mainnet",
			Value:   config.DefaultMainnetTokenAddress,
			EnvVars: []string{config.EnvMainnetTokenAddress},
		},
		&cli.StringFlag{
			Name:    "xdai-rpc-url",
			Usage:   "Gnosis chain RPC endpoint URL",
			Value:   config.DefaultXDaiRPCURL,
			EnvVars: []string{config.EnvXDaiRPCURL},
		},
		&cli.StringFlag{
			Name:    "xdai-subgraph-url",
			Usage:   "Locked BAO subgraph on xdai",
			Value:   config.DefaultXDaiSubgraphURL,
			EnvVars: []string{config.EnvXDaiSubgraphURL},
		},
		&cli.StringFlag{
			Name:    "xdai-token-address",
			Usage:   "Locked token contract on xdai",
			Value:   config.DefaultXDaiTokenAddress,
			EnvVars: []string{config.EnvXDaiTokenAddress},
		},
	}
}

func persistenceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "persistence-type",
			Usage:   fmt.Sprintf("Run storage backend: %s, %s, %s or %s", config.PersistenceType_File, config.PersistenceType_Memory, config.PersistenceType_Badger, config.PersistenceType_Redis),
			Value:   string(config.PersistenceType_File),
			EnvVars: []string{config.EnvPersistenceType},
		},
		&cli.StringFlag{
			Name:    "data-path",
			Usage:   "Directory for file and badger persistence",
			Value:   "data",
			EnvVars: []string{config.EnvDataPath},
		},
		&cli.StringFlag{
			Name:    "redis-address",
			Usage:   "Redis address for redis persistence",
			EnvVars: []string{config.EnvRedisAddress},
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password",
			EnvVars: []string{config.EnvRedisPassword},
		},
		&cli.IntFlag{
			Name:    "redis-db",
			Usage:   "Redis database number",
			EnvVars: []string{config.EnvRedisDB},
		},
	}
}
