// Package cli is the command-line surface of tronwatch: the long-running
// monitor pipeline plus one-shot wallet operations (watch/unwatch, balance,
// send, status, whitelist).
package cli

import (
	"context"
	"os"

	"github.com/gabapcia/tronwatch/internal/addressdir"
	"github.com/gabapcia/tronwatch/internal/balancecache"
	"github.com/gabapcia/tronwatch/internal/chain"
	"github.com/gabapcia/tronwatch/internal/pipeline"
	"github.com/gabapcia/tronwatch/internal/transferexec"
	"github.com/gabapcia/tronwatch/internal/transfermonitor"

	"github.com/urfave/cli/v3"
)

// WatchlistStore persists dynamic watch/unwatch mutations. Optional: when
// nil, mutations only live for the process lifetime.
type WatchlistStore interface {
	Add(ctx context.Context, address string) error
	Remove(ctx context.Context, address string) (bool, error)
}

// ResultNotifier receives terminal transfer results for delivery.
type ResultNotifier interface {
	NotifyTransferResult(ctx context.Context, result transferexec.Result) error
}

// Dependencies carries the wired services every command draws from.
type Dependencies struct {
	Pipeline  pipeline.Service
	Monitor   transfermonitor.Service
	Executor  transferexec.Service
	Balances  balancecache.Service
	Directory addressdir.Directory
	Receipts  chain.Client
	Policy    transferexec.Policy
	Signer    chain.Signer // nil when no signing key is configured
	Results   ResultNotifier
	Watchlist WatchlistStore // nil when Redis is not configured
}

// Run initializes and executes the tronwatch CLI application, registering all
// available commands:
//
//   - `start`:     runs the monitor pipeline until interrupted.
//   - `watch`:     registers an address for inbound-transfer monitoring.
//   - `unwatch`:   unregisters an address.
//   - `whitelist`: prints the configured address whitelist.
//   - `balance`:   prints the TRX and USDT balances of an address.
//   - `send`:      executes an outbound transfer under the safety policy.
//   - `status`:    looks up the confirmation state of a transaction.
func Run(ctx context.Context, deps Dependencies) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "tronwatch",
		Description:           "Command-line interface for monitoring inbound Tron transfers and sending outbound ones.",
		Usage:                 "tronwatch [command] [flags]",
		Commands: []*cli.Command{
			startPipelineCommand(deps.Pipeline),
			watchAddressCommand(deps.Monitor, deps.Watchlist),
			unwatchAddressCommand(deps.Monitor, deps.Watchlist),
			whitelistCommand(deps.Directory),
			balanceCommand(deps.Balances, deps.Directory),
			sendTransferCommand(deps),
			transferStatusCommand(deps.Receipts),
		},
	}

	return app.Run(ctx, os.Args)
}
