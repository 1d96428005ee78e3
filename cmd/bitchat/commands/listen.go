package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// listen polls the relay and drives incoming messages into the
// conversation engine until interrupted.
func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Poll the relay for inbound envelopes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if err := appCtx.Unlock(passphrase); err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			fmt.Println("listening; ctrl-c to stop")
			err := appCtx.RunRelay(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
}
