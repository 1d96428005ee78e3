package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func contactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "List known contacts (favorite, then recency, then name)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if err := appCtx.Unlock(passphrase); err != nil {
				return err
			}
			contacts, err := appCtx.Contacts.ListOrdered(context.Background())
			if err != nil {
				return err
			}
			for _, c := range contacts {
				star := " "
				if c.Favorite {
					star = "*"
				}
				fmt.Printf("%s %-20s %-16s unread=%d\n", star, c.Name(), c.HashID, c.UnreadCount)
			}
			return nil
		},
	}
}
