package app

import (
	"net/http"

	domain "bitchat/internal/domain"
)

// Config holds runtime wiring options for building the app. Toggles
// embeds the four process-wide toggles of spec.md §6, read from viper.
type Config struct {
	Home          string       // config/data directory, e.g. $HOME/.bitchat
	RelayURL      string       // relay base URL, e.g. http://127.0.0.1:8080
	MyPeerAddress string       // this process's mesh peer address
	Nickname      string       // local display name announced to peers
	LogLevel      string       // zerolog level name; defaults to "info"
	MessageCap    int          // per-conversation cap; 0 uses the spec default (1000)
	HTTP          *http.Client // optional; defaults to http.DefaultClient

	Toggles domain.Config // persistence_enabled, show_contacts_only, accept_friend_requests, message_retention_days
}
