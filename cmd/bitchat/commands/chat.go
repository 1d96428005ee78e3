package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	domain "bitchat/internal/domain"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <peer-address>",
		Short: "Start (or resume) a private chat and print its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if err := appCtx.Unlock(passphrase); err != nil {
				return err
			}
			addr := domain.PeerAddress(args[0])
			if err := appCtx.Conversation.StartPrivateChat(context.Background(), addr); err != nil {
				return err
			}
			for _, m := range appCtx.Conversation.Snapshot(addr) {
				fmt.Printf("[%s] %s: %s\n", m.Status.Encode(), m.SenderDisplay, m.Content)
			}
			return nil
		},
	}
}
