package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a local identity and seal it under a passphrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if err := appCtx.Generate(passphrase); err != nil {
				return err
			}
			fmt.Printf("Identity created.\nFingerprint: %s\n", appCtx.Fingerprint)
			return nil
		},
	}
}
