// Package notify shows the current song as a desktop notification.
// On platforms without a session bus every notification is a no-op.
package notify

// Notification is one desktop popup.
type Notification struct {
	Title   string
	Body    string
	Icon    string // icon name or image path
	Timeout int32  // ms, -1 = server default
}

// Notifier keeps at most one notification on screen: each Show replaces
// the previous one.
type Notifier interface {
	Show(n Notification) error
	// Dismiss closes the notification on screen, if any.
	Dismiss() error
}

const (
	appName      = "Code Radio"
	desktopEntry = "coderadio"
)
