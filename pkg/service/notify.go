package service

import "github.com/coreos/go-systemd/v22/daemon"

// Notifier reports lifecycle changes to systemd. Outside a Type=notify unit
// it does nothing.
type Notifier struct {
	notify func(unsetEnv bool, state string) (bool, error)
}

// NewNotifier returns a notifier using $NOTIFY_SOCKET.
func NewNotifier() *Notifier {
	return &Notifier{notify: daemon.SdNotify}
}

// Ready tells systemd that startup finished.
func (n *Notifier) Ready() error {
	_, err := n.notify(false, daemon.SdNotifyReady)
	return err
}

// Stopping tells systemd that shutdown began.
func (n *Notifier) Stopping() error {
	_, err := n.notify(false, daemon.SdNotifyStopping)
	return err
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(text string) error {
	_, err := n.notify(false, "STATUS="+text)
	return err
}
