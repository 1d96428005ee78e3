package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	domain "bitchat/internal/domain"
)

func blockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "block <fingerprint>",
		Short: "Block a contact by fingerprint, surviving address rotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if err := appCtx.Unlock(passphrase); err != nil {
				return err
			}
			fp := domain.Fingerprint(args[0])
			if err := appCtx.Conversation.Block(context.Background(), fp); err != nil {
				return err
			}
			fmt.Println("blocked", fp)
			return nil
		},
	}
}

func unblockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unblock <fingerprint>",
		Short: "Reverse a previous block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if err := appCtx.Unlock(passphrase); err != nil {
				return err
			}
			fp := domain.Fingerprint(args[0])
			if err := appCtx.Conversation.Unblock(context.Background(), fp); err != nil {
				return err
			}
			fmt.Println("unblocked", fp)
			return nil
		},
	}
}
