package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bitchat/internal/app"
	domain "bitchat/internal/domain"
)

var (
	home       string
	passphrase string
	appCtx     *app.App

	relayURL string
	myAddr   string
	nickname string
	logLevel string
)

func Execute() error {
	root := &cobra.Command{
		Use:   "bitchat",
		Short: "Privacy-first peer-to-peer messenger core",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".bitchat")
			}

			v := viper.New()
			v.SetDefault("message_cap", 1000)
			v.SetDefault("message_retention_days", 30)
			v.SetDefault("accept_friend_requests", true)
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(home)
			_ = v.ReadInConfig() // absence of a config file is fine; defaults apply

			var toggles domain.Config
			if err := v.Unmarshal(&toggles); err != nil {
				return fmt.Errorf("parsing config: %w", err)
			}

			wire, err := app.NewWire(app.Config{
				Home:          home,
				RelayURL:      relayURL,
				MyPeerAddress: myAddr,
				Nickname:      nickname,
				LogLevel:      logLevel,
				Toggles:       toggles,
			})
			if err != nil {
				return err
			}
			appCtx = app.New(wire)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config/data dir (default ~/.bitchat)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the local identity")
	root.PersistentFlags().StringVar(&relayURL, "relay", "http://127.0.0.1:8080", "relay base URL")
	root.PersistentFlags().StringVar(&myAddr, "peer-address", "local", "this process's mesh peer address")
	root.PersistentFlags().StringVar(&nickname, "nickname", "", "display name announced to peers")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "zerolog level: trace, debug, info, warn, error")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		contactsCmd(),
		blockCmd(),
		unblockCmd(),
		chatCmd(),
		sendCmd(),
		listenCmd(),
		wipeCmd(),
	)
	return root.Execute()
}
