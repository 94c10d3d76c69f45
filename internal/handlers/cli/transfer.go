package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/tronwatch/internal/addressdir"
	"github.com/gabapcia/tronwatch/internal/balancecache"
	"github.com/gabapcia/tronwatch/internal/chain"
	"github.com/gabapcia/tronwatch/internal/transferexec"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"
)

// errNoSigner is returned by send when no signing key was configured.
var errNoSigner = errors.New("no signing key configured, set TRON_PRIVATE_KEY")

// resolveTarget maps a human input (whitelist index, alias, or address) to a
// concrete address. Literal addresses outside the whitelist pass through;
// the executor's allow-list decides whether they are permitted.
func resolveTarget(directory addressdir.Directory, input string) (string, error) {
	address, err := directory.Resolve(input)
	if err == nil {
		return address, nil
	}

	if chain.ValidAddress(input) {
		return input, nil
	}

	return "", fmt.Errorf("cannot resolve %q to an address: %w", input, err)
}

// balanceCommand returns the command that prints the TRX and USDT balances of
// an address, served through the balance cache.
//
// Usage example:
//
//	tronwatch balance --address TAbc...
func balanceCommand(balances balancecache.Service, directory addressdir.Directory) *cli.Command {
	return &cli.Command{
		Name:        "balance",
		Description: "Print the TRX and USDT balances of an address.",
		Usage:       "Accepts a whitelist index, an alias, or a literal address.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Whitelist index, alias, or Tron address",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			address, err := resolveTarget(directory, c.String("address"))
			if err != nil {
				return err
			}

			for _, token := range []chain.TokenKind{chain.TokenTRX, chain.TokenUSDT} {
				amount, err := balances.GetBalance(ctx, address, token)
				if err != nil {
					return fmt.Errorf("fetching %s balance: %w", token, err)
				}
				fmt.Printf("%s: %s\n", token, amount)
			}
			return nil
		},
	}
}

// sendTransferCommand returns the command that executes an outbound transfer
// under the configured safety policy and reports its terminal outcome.
//
// Usage example:
//
//	tronwatch send --to "ops wallet" --amount 25.5 --token USDT
func sendTransferCommand(deps Dependencies) *cli.Command {
	return &cli.Command{
		Name:        "send",
		Description: "Execute an outbound transfer and wait for on-chain confirmation.",
		Usage:       "Sends TRX or USDT to a whitelist entry or literal address, subject to the safety policy.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Recipient: whitelist index, alias, or Tron address",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "amount",
				Usage:    "Amount in token units (e.g. 25.5)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Token kind: TRX or USDT",
				Value: string(chain.TokenUSDT),
			},
			&cli.StringFlag{
				Name:  "remark",
				Usage: "Optional note carried into the result record",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if deps.Signer == nil {
				return errNoSigner
			}

			target, err := resolveTarget(deps.Directory, c.String("to"))
			if err != nil {
				return err
			}

			amount, err := decimal.NewFromString(c.String("amount"))
			if err != nil {
				return fmt.Errorf("malformed amount %q: %w", c.String("amount"), err)
			}

			req := transferexec.Request{
				Target: target,
				Amount: amount,
				Token:  chain.TokenKind(c.String("token")),
				Remark: c.String("remark"),
			}

			result := deps.Executor.Execute(ctx, req, deps.Policy, deps.Signer)
			if deps.Results != nil {
				if err := deps.Results.NotifyTransferResult(ctx, result); err != nil {
					return err
				}
			}

			switch result.Status {
			case transferexec.StatusConfirmed:
				fmt.Printf("confirmed: %s\n", result.TxID)
			case transferexec.StatusTimedOut:
				fmt.Printf("broadcast but unconfirmed, check later: tronwatch status --txid %s\n", result.TxID)
			default:
				fmt.Printf("failed (%s): %s\n", result.Code, result.Detail)
			}
			return nil
		},
	}
}

// transferStatusCommand returns the command that looks up the confirmation
// state of a transaction, the out-of-band follow-up for timed-out transfers.
//
// Usage example:
//
//	tronwatch status --txid 7c2d...
func transferStatusCommand(receipts chain.Client) *cli.Command {
	return &cli.Command{
		Name:        "status",
		Description: "Look up the confirmation state of a submitted transaction.",
		Usage:       "Prints pending, confirmed, or failed with the on-chain reason.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "txid",
				Usage:    "Transaction id to look up",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			receipt, err := receipts.GetReceipt(ctx, c.String("txid"))
			if err != nil {
				return err
			}

			switch receipt.Status {
			case chain.ReceiptSuccess:
				fmt.Println("confirmed")
			case chain.ReceiptFailure:
				fmt.Printf("failed: %s\n", receipt.FailureReason)
			default:
				fmt.Println("pending")
			}
			return nil
		},
	}
}
