// Package systemd integrates with the service manager: readiness and
// watchdog notifications and a socket-activated HTTP listener. Everything
// is a no-op when not running under systemd.
package systemd

import (
	"fmt"
	"net"
	"time"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify messages.
type Notifier struct {
	notify func(state string) (bool, error)
}

// NewNotifier creates a notifier on the real NOTIFY_SOCKET.
func NewNotifier() *Notifier {
	return &Notifier{notify: func(state string) (bool, error) {
		return daemon.SdNotify(false, state)
	}}
}

func (n *Notifier) send(state, what string) error {
	if _, err := n.notify(state); err != nil {
		return fmt.Errorf("failed to send sd_notify %s: %w", what, err)
	}
	// not sent means not running under systemd; that is fine
	return nil
}

// Ready sends READY=1 notification to systemd
func (n *Notifier) Ready() error {
	return n.send(daemon.SdNotifyReady, "ready")
}

// Stopping sends STOPPING=1 notification to systemd
func (n *Notifier) Stopping() error {
	return n.send(daemon.SdNotifyStopping, "stopping")
}

// Watchdog sends WATCHDOG=1 notification to systemd
func (n *Notifier) Watchdog() error {
	return n.send(daemon.SdNotifyWatchdog, "watchdog")
}

// WatchdogInterval returns how often Watchdog should be called: half the
// configured WatchdogSec, or 0 when the watchdog is disabled.
func WatchdogInterval() time.Duration {
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil || d <= 0 {
		return 0
	}
	return d / 2
}

// HTTPListener returns the socket-activated listener named "http", or nil
// when the process was not socket activated.
func HTTPListener() (net.Listener, error) {
	if len(activation.Files(false)) == 0 {
		return nil, nil
	}
	named, err := activation.ListenersWithNames()
	if err != nil {
		return nil, fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if lns, ok := named["http"]; ok && len(lns) > 0 {
		return lns[0], nil
	}
	return nil, nil
}
