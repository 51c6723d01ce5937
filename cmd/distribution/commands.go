package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/amount"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/config"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/contractCaller"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/contractCaller/caller"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/distribution"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/logger"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/metrics"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/persistence/badger"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/persistence/file"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/persistence/memory"
	redisPersistence "github.com/Layr-Labs/merkle-distribution-go/pkg/persistence/redis"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/reconcile"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/snapshot"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/subgraph"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/util"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/verifier"
)

func newLogger(c *cli.Context) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{
		Debug:      c.Bool("verbose"),
		OutputPath: c.String("log-file"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

// parseDistributionConfig builds the run configuration from flags and environment.
func parseDistributionConfig(c *cli.Context) *config.DistributionConfig {
	cfg := config.NewDefaultDistributionConfig()

	cfg.Sources[0].RpcUrl = c.String("mainnet-rpc-url")
	cfg.Sources[0].SubgraphURL = c.String("mainnet-subgraph-url")
	cfg.Sources[0].TokenAddress = c.String("mainnet-token-address")
	cfg.Sources[1].RpcUrl = c.String("xdai-rpc-url")
	cfg.Sources[1].SubgraphURL = c.String("xdai-subgraph-url")
	cfg.Sources[1].TokenAddress = c.String("xdai-token-address")

	cfg.ExcludedAddresses = config.ParseAddressList(c.String("excluded-addresses"))
	cfg.CapDecimals = c.Uint("cap-decimals")
	if c.IsSet("page-size") {
		cfg.PageSize = c.Int("page-size")
	}
	if c.IsSet("requests-per-second") {
		cfg.RequestsPerSecond = c.Float64("requests-per-second")
	}
	cfg.TreeWorkers = c.Int("tree-workers")

	cfg.SnapshotFile = c.String("snapshot-file")
	if pt := c.String("persistence-type"); pt != "" {
		cfg.PersistenceType = config.PersistenceType(pt)
	}
	cfg.DataPath = c.String("data-path")
	cfg.Redis = config.RedisConfig{
		Address:  c.String("redis-address"),
		Password: c.String("redis-password"),
		DB:       c.Int("redis-db"),
	}
	cfg.MetricsFile = c.String("metrics-file")
	cfg.LogFile = c.String("log-file")
	cfg.Verbose = c.Bool("verbose")
	return cfg
}

func openStore(cfg *config.DistributionConfig, l *zap.Logger) (persistence.ISnapshotPersistence, error) {
	switch cfg.PersistenceType {
	case config.PersistenceType_Memory:
		return memory.NewMemoryPersistence(l), nil
	case config.PersistenceType_Badger:
		return badger.NewBadgerPersistence(cfg.DataPath, l)
	case config.PersistenceType_Redis:
		return redisPersistence.NewRedisPersistence(&redisPersistence.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, l)
	case config.PersistenceType_File:
		return file.NewFilePersistence(cfg.DataPath, l)
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s", cfg.PersistenceType)
	}
}

// dialLedgers connects to every configured source. The returned func closes
// the connections.
func dialLedgers(ctx context.Context, cfg *config.DistributionConfig, l *zap.Logger) ([]contractCaller.LedgerToken, func(), error) {
	var callers []*caller.ContractCaller
	closeAll := func() {
		for _, cc := range callers {
			cc.Close()
		}
	}

	ledgers := make([]contractCaller.LedgerToken, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		if src.RpcUrl == "" || src.TokenAddress == "" {
			closeAll()
			return nil, nil, fmt.Errorf("source %s needs an rpc url and token address for on-chain reads", src.Name)
		}
		cc, err := caller.NewContractCallerFromRPC(ctx, src.RpcUrl, src.ChainID, l)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to connect to %s: %w", src.Name, err)
		}
		callers = append(callers, cc)

		ledgers = append(ledgers, contractCaller.LedgerToken{
			Name:   src.Name,
			Token:  common.HexToAddress(src.TokenAddress),
			Caller: cc,
		})
	}
	return ledgers, closeAll, nil
}

// onChainGroundTruth reads lockedSupply on every configured source.
func onChainGroundTruth(cfg *config.DistributionConfig, l *zap.Logger) distribution.GroundTruthReader {
	return func(ctx context.Context) (map[string]*amount.Amount, error) {
		ledgers, closeAll, err := dialLedgers(ctx, cfg, l)
		if err != nil {
			return nil, err
		}
		defer closeAll()
		return contractCaller.GroundTruth(ctx, ledgers, l)
	}
}

// checkHolderLock compares the proven amount with the holder's lock summed
// over every ledger.
func checkHolderLock(ctx context.Context, ledgers []contractCaller.LedgerToken, doc *verifier.ProofDocument, l *zap.Logger) error {
	holder, err := util.ParseAddress(doc.Address)
	if err != nil {
		return err
	}
	proven, err := amount.Parse(doc.Amount)
	if err != nil {
		return err
	}

	locks, err := contractCaller.LockedBalances(ctx, ledgers, holder, l)
	if err != nil {
		return err
	}
	onChain := amount.Zero()
	for _, v := range locks {
		onChain = onChain.Add(v)
	}

	if !onChain.Equal(proven) {
		return fmt.Errorf("%s: proven amount %s, locked on chain %s (delta %s)",
			doc.Address, proven, onChain, amount.Delta(proven, onChain))
	}
	l.Sugar().Infow("On-chain lock matches proof", "address", doc.Address, "amount", proven.String())
	return nil
}

// parseGroundTruth reads source=amount pairs separated by commas.
func parseGroundTruth(s string) (map[string]*amount.Amount, error) {
	out := map[string]*amount.Amount{}
	for _, pair := range config.ParseAddressList(s) {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("ground truth entry %q is not source=amount", pair)
		}
		name = strings.TrimSpace(name)
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("ground truth for %s given twice", name)
		}
		a, err := amount.Parse(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("ground truth for %s: %w", name, err)
		}
		out[name] = a
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no ground truth entries in %q", s)
	}
	return out, nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func snapshotCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	cfg := parseDistributionConfig(c)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	exclusions, err := snapshot.NewExclusionList(cfg.ExcludedAddresses)
	if err != nil {
		return err
	}

	sources := make([]distribution.Source, len(cfg.Sources))
	for i, src := range cfg.Sources {
		client, err := subgraph.NewClient(&subgraph.Config{
			URL:               src.SubgraphURL,
			PageSize:          cfg.PageSize,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Timeout:           config.DefaultRequestTimeout,
		}, l.With(zap.String("source", src.Name)))
		if err != nil {
			return err
		}
		sources[i] = distribution.Source{Name: src.Name, Fetcher: client}
	}

	store, err := openStore(cfg, l)
	if err != nil {
		return fmt.Errorf("failed to open persistence: %w", err)
	}
	defer func() { _ = store.Close() }()

	var groundTruth distribution.GroundTruthReader
	if !c.Bool("skip-reconcile") {
		groundTruth = onChainGroundTruth(cfg, l)
	}

	pipeline, err := distribution.NewPipeline(&distribution.PipelineConfig{
		Exclusions:    exclusions,
		CapFactor:     amount.Pow10(cfg.CapDecimals),
		TreeWorkers:   cfg.TreeWorkers,
		SkipReconcile: c.Bool("skip-reconcile"),
		SnapshotFile:  cfg.SnapshotFile,
		MetricsFile:   cfg.MetricsFile,
	}, sources[0], sources[1], groundTruth, store, metrics.NewRecorder(), l)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(c.Context)
	if err != nil {
		return err
	}

	l.Sugar().Infow("Distribution run complete",
		"runId", result.Record.RunID,
		"root", result.Record.Root,
		"accounts", result.Distribution.Snapshot().Len(),
		"publishable", result.Record.Publishable,
	)
	if err := printJSON(c.App.Writer, result.Record.Summary()); err != nil {
		return err
	}

	if err := result.ReconciliationErr(); err != nil && !c.Bool("allow-mismatch") {
		return err
	}
	return nil
}

func verifyCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	path := c.String("snapshot-file")
	snap, err := file.ReadSnapshotFile(path)
	if err != nil {
		return err
	}
	l.Sugar().Infow("Loaded snapshot", "path", path, "accounts", snap.Len())

	var groundTruth map[string]*amount.Amount
	if s := c.String("ground-truth"); s != "" {
		groundTruth, err = parseGroundTruth(s)
	} else {
		groundTruth, err = onChainGroundTruth(parseDistributionConfig(c), l)(c.Context)
	}
	if err != nil {
		return err
	}

	report, err := reconcile.ReconcileSources(snap, groundTruth, amount.Pow10(c.Uint("cap-decimals")))
	if err != nil {
		return err
	}
	if err := printJSON(c.App.Writer, report); err != nil {
		return err
	}

	if err := report.Err(); err != nil {
		l.Sugar().Errorw("Reconciliation FAILED", "delta", report.Delta.String())
		if !c.Bool("allow-mismatch") {
			return err
		}
		return nil
	}
	l.Sugar().Infow("Reconciliation passed", "total", report.SnapshotTotal.String())
	return nil
}

func rootCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	snap, err := file.ReadSnapshotFile(c.String("snapshot-file"))
	if err != nil {
		return err
	}
	dist, err := distribution.NewDistribution(snap, c.Int("tree-workers"))
	if err != nil {
		return err
	}

	address := c.String("address")
	if address == "" {
		address = dist.DefaultProofAddress()
	}
	doc, err := dist.ProofDocument(address)
	if err != nil {
		return err
	}

	ok, err := verifier.VerifyDocument(*doc)
	if err != nil {
		return fmt.Errorf("generated proof is malformed: %w", err)
	}
	if !ok {
		return fmt.Errorf("generated proof for %s does not verify against %s", doc.Address, doc.Root)
	}

	if c.Bool("check-lock") {
		ledgers, closeAll, err := dialLedgers(c.Context, parseDistributionConfig(c), l)
		if err != nil {
			return err
		}
		defer closeAll()
		if err := checkHolderLock(c.Context, ledgers, doc, l); err != nil {
			return err
		}
	}

	l.Sugar().Infow("Computed merkle root",
		"root", dist.Root(),
		"leaves", snap.Len(),
		"depth", dist.Tree().Depth(),
		"address", doc.Address,
	)

	if out := c.String("output"); out != "" {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		if err := atomic.WriteFile(out, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("failed to write proof to %s: %w", out, err)
		}
		l.Sugar().Infow("Wrote proof document", "path", out)
	}
	return printJSON(c.App.Writer, doc)
}

func verifyProofCommand(c *cli.Context) error {
	var (
		data []byte
		err  error
	)
	if c.Args().Len() > 0 && c.Args().First() != "-" {
		data, err = os.ReadFile(c.Args().First())
	} else {
		data, err = io.ReadAll(c.App.Reader)
	}
	if err != nil {
		return fmt.Errorf("failed to read proof document: %w", err)
	}

	var doc verifier.ProofDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", verifier.ErrInvalidDocument, err)
	}

	ok, err := verifier.VerifyDocument(doc)
	if err != nil {
		return err
	}
	if !ok {
		return cli.Exit("proof is INVALID", 1)
	}
	_, err = fmt.Fprintln(c.App.Writer, "proof is valid")
	return err
}

func runsCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	cfg := parseDistributionConfig(c)
	store, err := openStore(cfg, l)
	if err != nil {
		return fmt.Errorf("failed to open persistence: %w", err)
	}
	defer func() { _ = store.Close() }()

	switch {
	case c.String("run-id") != "":
		runID, err := uuid.Parse(c.String("run-id"))
		if err != nil {
			return fmt.Errorf("invalid run id: %w", err)
		}
		record, err := store.LoadSnapshot(runID)
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("run %s not found", runID)
		}
		return printJSON(c.App.Writer, record)
	case c.Bool("latest"):
		record, err := store.LoadLatestSnapshot()
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("no runs stored")
		}
		return printJSON(c.App.Writer, record)
	default:
		runs, err := store.ListSnapshotRuns()
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, runs)
	}
}
