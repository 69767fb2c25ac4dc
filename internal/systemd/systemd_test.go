package systemd

import (
	"errors"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/stretchr/testify/assert"
)

func recordingNotifier(sent *[]string, err error) *Notifier {
	return &Notifier{notify: func(state string) (bool, error) {
		*sent = append(*sent, state)
		return err == nil, err
	}}
}

func TestNotifierStates(t *testing.T) {
	var sent []string
	n := recordingNotifier(&sent, nil)

	assert.NoError(t, n.Ready())
	assert.NoError(t, n.Watchdog())
	assert.NoError(t, n.Stopping())

	assert.Equal(t, []string{daemon.SdNotifyReady, daemon.SdNotifyWatchdog, daemon.SdNotifyStopping}, sent)
}

func TestNotifierError(t *testing.T) {
	var sent []string
	n := recordingNotifier(&sent, errors.New("socket gone"))

	err := n.Ready()
	assert.ErrorContains(t, err, "ready")
}

func TestOutsideSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	t.Setenv("WATCHDOG_USEC", "")
	t.Setenv("LISTEN_FDS", "")

	assert.NoError(t, NewNotifier().Ready())
	assert.Equal(t, time.Duration(0), WatchdogInterval())

	ln, err := HTTPListener()
	assert.NoError(t, err)
	assert.Nil(t, ln)
}

func TestWatchdogInterval(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "10000000")
	t.Setenv("WATCHDOG_PID", "")

	assert.Equal(t, 5*time.Second, WatchdogInterval())
}
