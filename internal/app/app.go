package app

// App is the CLI's shared context: a thin façade over Wire exposing the
// pieces commands call directly, so handlers read appCtx.Conversation.Foo
// the way the teacher's commands read appCtx.IDs.Foo.
type App struct {
	*Wire
}

// New wraps wire as an App. Commands that only need one or two
// collaborators can still take them as plain parameters; New exists for
// the common case of a cobra root command building one shared context.
func New(wire *Wire) *App {
	return &App{Wire: wire}
}

// RequireUnlocked returns an error if Unlock/Generate hasn't completed
// the dependency graph yet.
func (a *App) RequireUnlocked() error {
	if a.Handshake == nil || a.Conversation == nil {
		return errNotUnlocked
	}
	return nil
}

var errNotUnlocked = domainErr("app: identity not unlocked; run init or pass -p")

type domainErr string

func (e domainErr) Error() string { return string(e) }
