package cli

import (
	"context"
	"fmt"

	"github.com/gabapcia/tronwatch/internal/addressdir"
	"github.com/gabapcia/tronwatch/internal/transfermonitor"

	"github.com/urfave/cli/v3"
)

// watchAddressCommand returns the command that registers an address for
// inbound-transfer monitoring, effective from the next poll cycle.
//
// Usage example:
//
//	tronwatch watch --address TAbc...
func watchAddressCommand(monitor transfermonitor.Service, store WatchlistStore) *cli.Command {
	return &cli.Command{
		Name:        "watch",
		Description: "Register an address to be monitored for inbound transfers.",
		Usage:       "Registers an address for watching, persisted when Redis is configured.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Tron address to start watching",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			address := c.String("address")

			if err := monitor.AddWatchedAddress(ctx, address); err != nil {
				return err
			}

			if store != nil {
				return store.Add(ctx, address)
			}
			return nil
		},
	}
}

// unwatchAddressCommand returns the command that unregisters an address from
// monitoring.
//
// Usage example:
//
//	tronwatch unwatch --address TAbc...
func unwatchAddressCommand(monitor transfermonitor.Service, store WatchlistStore) *cli.Command {
	return &cli.Command{
		Name:        "unwatch",
		Description: "Unregister an address from inbound-transfer monitoring.",
		Usage:       "Stops watching an address. Reports whether it was being watched.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Tron address to stop watching",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			address := c.String("address")

			removed := monitor.RemoveWatchedAddress(ctx, address)
			if store != nil {
				if _, err := store.Remove(ctx, address); err != nil {
					return err
				}
			}

			if !removed {
				fmt.Printf("address %s was not being watched\n", address)
			}
			return nil
		},
	}
}

// whitelistCommand returns the command that prints the configured address
// whitelist with aliases and descriptions.
//
// Usage example:
//
//	tronwatch whitelist
func whitelistCommand(directory addressdir.Directory) *cli.Command {
	return &cli.Command{
		Name:        "whitelist",
		Description: "Print the configured address whitelist.",
		Usage:       "Lists whitelisted addresses with their aliases, numbered for use with send.",
		Action: func(ctx context.Context, c *cli.Command) error {
			entries := directory.Entries()
			if len(entries) == 0 {
				fmt.Println("whitelist is empty; set WHITELIST_ADDRESSES to configure it")
				return nil
			}

			for i, entry := range entries {
				fmt.Printf("%d. %s\n   %s\n", i+1, entry.Alias, entry.Address)
				if entry.Description != "" {
					fmt.Printf("   %s\n", entry.Description)
				}
			}
			return nil
		},
	}
}
