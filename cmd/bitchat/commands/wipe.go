package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func wipeCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Irreversibly erase the local database, keys, and cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("refusing to wipe without --yes")
			}
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if err := appCtx.Unlock(passphrase); err != nil {
				return err
			}
			result := appCtx.Wipe.Run(context.Background())
			fmt.Printf("wiped %d items in %dms, success=%v\n", len(result.DeletedItems), result.DurationMS, result.Success)
			for _, e := range result.Errors {
				fmt.Println("error:", e)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm irreversible deletion")
	return cmd
}
