package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	domain "bitchat/internal/domain"
)

// send <peer> <message>: queue a message for a peer via the single-writer
// send pipeline; delivery happens asynchronously through the mesh sender.
func sendCmd() *cobra.Command {
	var recipientNickname string
	cmd := &cobra.Command{
		Use:   "send <peer-address> <message>",
		Short: "Encrypt and queue a message for a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if err := appCtx.Unlock(passphrase); err != nil {
				return err
			}
			addr := domain.PeerAddress(args[0])
			id, err := appCtx.Pipeline.SendPrivate(addr, args[1], recipientNickname, nickname)
			if err != nil {
				return err
			}
			fmt.Println("queued", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&recipientNickname, "recipient-nickname", "", "recipient's display name, if known")
	return cmd
}
