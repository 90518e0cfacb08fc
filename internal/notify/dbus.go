//go:build linux

package notify

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = notifyDest + ".Notify"
	closeMethod  = notifyDest + ".CloseNotification"

	urgencyLow byte = 0
)

// busNotifier talks to the freedesktop notification daemon.
type busNotifier struct {
	obj dbus.BusObject

	mu sync.Mutex
	id uint32 // on screen, 0 when none
}

// New connects to the session bus.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return newBusNotifier(conn.Object(notifyDest, notifyPath)), nil
}

func newBusNotifier(obj dbus.BusObject) *busNotifier {
	return &busNotifier{obj: obj}
}

func (b *busNotifier) Show(n Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(urgencyLow),
		"desktop-entry": dbus.MakeVariant(desktopEntry),
	}

	// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout) -> id
	call := b.obj.Call(notifyMethod, 0,
		appName, b.id, n.Icon, n.Title, n.Body, []string{}, hints, n.Timeout)
	if call.Err != nil {
		return fmt.Errorf("notify: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("notify reply: %w", err)
	}
	b.id = id
	return nil
}

func (b *busNotifier) Dismiss() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.id == 0 {
		return nil
	}
	id := b.id
	b.id = 0
	if call := b.obj.Call(closeMethod, 0, id); call.Err != nil {
		return fmt.Errorf("close notification %d: %w", id, call.Err)
	}
	return nil
}
