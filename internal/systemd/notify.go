// Package systemd reports daemon state to the service manager.
package systemd

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify messages. Outside systemd every call is a no-op.
type Notifier struct {
	send func(state string) (bool, error)
}

// NewNotifier creates a notifier using $NOTIFY_SOCKET.
func NewNotifier() *Notifier {
	return &Notifier{send: func(state string) (bool, error) {
		return daemon.SdNotify(false, state)
	}}
}

// Ready tells systemd that startup finished.
func (n *Notifier) Ready() error {
	return n.notify(daemon.SdNotifyReady)
}

// Stopping tells systemd that shutdown began.
func (n *Notifier) Stopping() error {
	return n.notify(daemon.SdNotifyStopping)
}

// Status sets the one-line status shown by systemctl status.
func (n *Notifier) Status(format string, args ...any) error {
	return n.notify("STATUS=" + fmt.Sprintf(format, args...))
}

func (n *Notifier) notify(state string) error {
	if _, err := n.send(state); err != nil {
		return fmt.Errorf("sd_notify %q: %w", state, err)
	}
	return nil
}
