//go:build !linux

package notify

type nopNotifier struct{}

// New returns a notifier that shows nothing.
func New() (Notifier, error) {
	return nopNotifier{}, nil
}

func (nopNotifier) Show(Notification) error { return nil }
func (nopNotifier) Dismiss() error          { return nil }
