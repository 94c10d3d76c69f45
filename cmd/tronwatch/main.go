package main

import (
	"context"
	"os"

	"github.com/gabapcia/tronwatch/internal/addressdir"
	"github.com/gabapcia/tronwatch/internal/balancecache"
	"github.com/gabapcia/tronwatch/internal/chain"
	"github.com/gabapcia/tronwatch/internal/config"
	"github.com/gabapcia/tronwatch/internal/handlers/cli"
	"github.com/gabapcia/tronwatch/internal/infra/blockchain/trongrid"
	"github.com/gabapcia/tronwatch/internal/infra/notification"
	"github.com/gabapcia/tronwatch/internal/infra/signing"
	redisstorage "github.com/gabapcia/tronwatch/internal/infra/storage/redis"
	"github.com/gabapcia/tronwatch/internal/pipeline"
	"github.com/gabapcia/tronwatch/internal/pkg/logger"
	"github.com/gabapcia/tronwatch/internal/pkg/resilience/retry"
	"github.com/gabapcia/tronwatch/internal/pkg/telemetry"
	"github.com/gabapcia/tronwatch/internal/transferexec"
	"github.com/gabapcia/tronwatch/internal/transfermonitor"

	"github.com/joho/godotenv"
)

const serviceName = "tronwatch"

func main() {
	ctx := context.Background()

	// Optional .env file, matching the original deployment layout.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, serviceName)
		if err != nil {
			panic(err)
		}
		defer shutdown(ctx)
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		panic(err)
	}
	defer logger.Sync()

	token, err := cfg.Token()
	if err != nil {
		logger.Fatal(ctx, "invalid configuration", "error", err)
	}

	policy, err := cfg.Policy()
	if err != nil {
		logger.Fatal(ctx, "invalid configuration", "error", err)
	}

	chainRetry := retry.New(
		retry.WithMaxAttempts(cfg.RetryMaxAttempts),
		retry.WithBaseDelay(cfg.RetryBaseDelay),
		retry.WithMaxDelay(cfg.RetryMaxDelay),
	)

	chainClient := trongrid.NewClient(cfg.TronNodeURL,
		trongrid.WithAPIKey(cfg.TronAPIKey),
		trongrid.WithUSDTContract(cfg.USDTContractAddress),
	)

	directory := addressdir.Parse(ctx, cfg.WhitelistAddresses)

	// The dedup ledger and dynamic watchlist move to Redis when configured;
	// otherwise both live in process memory only.
	var (
		ledger    transfermonitor.Ledger = transfermonitor.NewMemoryLedger(cfg.DedupLedgerCapacity)
		watchlist cli.WatchlistStore
		watched   = directory.ListWatched()
	)
	if cfg.RedisAddr != "" {
		redisClient, err := redisstorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal(ctx, "connecting to redis", "error", err)
		}
		defer redisClient.Close()

		ledger = redisstorage.NewLedger(redisClient, cfg.DedupLedgerTTL)

		store := redisstorage.NewWatchlist(redisClient)
		watchlist = store

		dynamic, err := store.List(ctx)
		if err != nil {
			logger.Fatal(ctx, "loading watchlist", "error", err)
		}
		watched = append(watched, dynamic...)
	}

	monitor := transfermonitor.New(chainClient, watched,
		transfermonitor.WithLedger(ledger),
		transfermonitor.WithRetry(chainRetry),
		transfermonitor.WithToken(token),
		transfermonitor.WithLookback(cfg.HistoryLookback),
	)

	balances := balancecache.New(chainClient,
		balancecache.WithTTL(cfg.BalanceCacheTTL),
		balancecache.WithRetry(chainRetry),
	)

	executor := transferexec.New(chainClient, balances,
		transferexec.WithRetry(chainRetry),
		transferexec.WithConfirmInterval(cfg.ConfirmationInterval),
		transferexec.WithConfirmMaxAttempts(cfg.ConfirmationMaxAttempts),
	)

	var signer chain.Signer
	if cfg.TronPrivateKey != "" {
		signer, err = signing.NewLocalSigner(cfg.TronPrivateKey)
		if err != nil {
			logger.Fatal(ctx, "loading signing key", "error", err)
		}
	}

	sink := notification.NewLogSink()

	deps := cli.Dependencies{
		Pipeline:  pipeline.New(monitor, sink, pipeline.WithInterval(cfg.MonitorInterval)),
		Monitor:   monitor,
		Executor:  executor,
		Balances:  balances,
		Directory: directory,
		Receipts:  chainClient,
		Policy:    policy,
		Signer:    signer,
		Results:   sink,
		Watchlist: watchlist,
	}

	if err := cli.Run(ctx, deps); err != nil {
		logger.Error(ctx, "application finished with an error", "error", err)
		os.Exit(1)
	}
}
