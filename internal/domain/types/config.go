package types

// Config holds the process-wide toggles named in the persistence schema.
// Defaults: persistence off, contacts-only off, retention 30 days, cap 1000.
type Config struct {
	PersistenceEnabled    bool `mapstructure:"persistence_enabled"`
	ShowContactsOnly      bool `mapstructure:"show_contacts_only"`
	AcceptFriendRequests  bool `mapstructure:"accept_friend_requests"`
	MessageRetentionDays  int  `mapstructure:"message_retention_days"`
	MessageCap            int  `mapstructure:"message_cap"`
}

// DefaultConfig returns the spec-mandated defaults.
func DefaultConfig() Config {
	return Config{
		PersistenceEnabled:   false,
		ShowContactsOnly:     false,
		AcceptFriendRequests: true,
		MessageRetentionDays: 30,
		MessageCap:           1000,
	}
}
