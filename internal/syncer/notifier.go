package syncer

import "github.com/lovettlabs/contactsync/models"

// Notifier receives session state change notifications. The engine invokes
// it synchronously from whatever goroutine handled the triggering message,
// with no session lock held: a callback may read the session or the
// registry. Implementations that feed a UI must do their own marshalling
// onto the right thread, the engine never assumes one.
type Notifier interface {
	// SessionChanged reports that the named field of the given session
	// changed. The snapshot is a copy; mutating it has no effect on the
	// live session.
	SessionChanged(session models.DeviceSession, field string)
}

// NopNotifier discards all notifications. Used when no observer is wired.
type NopNotifier struct{}

func (NopNotifier) SessionChanged(models.DeviceSession, string) {}
