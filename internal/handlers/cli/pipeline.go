package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gabapcia/tronwatch/internal/pipeline"

	"github.com/urfave/cli/v3"
)

// startPipelineCommand returns the command that runs the monitor pipeline:
// recurring polls over every watched address with new inbound transfers
// pushed to the notification sink.
//
// Usage example:
//
//	tronwatch start
//
// The process runs until it receives an interrupt (SIGINT or SIGTERM).
func startPipelineCommand(p pipeline.Service) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Starts the inbound transfer monitor pipeline.",
		Usage:       "Runs the recurring poll loop. Terminates gracefully on Ctrl+C or termination signals.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			if err := p.Start(ctx); err != nil {
				return err
			}
			defer p.Close()

			<-quit
			return nil
		},
	}
}
