package service

import (
	"net"
	"strings"
	"testing"
)

func TestUnitContents(t *testing.T) {
	got := UnitContents("/usr/local/bin/worldconsole", "/etc/worldconsole/worldconsole.yaml")

	if !strings.Contains(got, "ExecStart=/usr/local/bin/worldconsole --headless --config /etc/worldconsole/worldconsole.yaml") {
		t.Error("unit file missing headless ExecStart")
	}
	if !strings.Contains(got, "Type=notify") {
		t.Error("unit file missing Type=notify")
	}
	if !strings.Contains(got, "Restart=on-failure") {
		t.Error("unit file missing Restart=on-failure")
	}
	if !strings.Contains(got, "[Install]") {
		t.Error("unit file missing [Install] section")
	}
}

func TestUnitPath(t *testing.T) {
	path, err := UnitPath()
	if err != nil {
		t.Fatalf("UnitPath() error: %v", err)
	}
	if !strings.HasSuffix(path, "systemd/user/worldconsole.service") {
		t.Errorf("UnitPath() = %q, want suffix systemd/user/worldconsole.service", path)
	}
}

func TestStatusUnreachable(t *testing.T) {
	got := Status("unix:/tmp/worldconsole-test-nonexistent.sock")
	if !strings.Contains(got, "listener: unreachable") {
		t.Errorf("Status() should report unreachable listener, got: %s", got)
	}
}

func TestStatusReachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	got := Status("tcp:" + ln.Addr().String())
	if !strings.Contains(got, "listener: reachable") {
		t.Errorf("Status() should report reachable listener, got: %s", got)
	}
}

func TestStatusBadAddress(t *testing.T) {
	got := Status("carrier-pigeon")
	if !strings.Contains(got, "listener: invalid listen address") {
		t.Errorf("Status() = %s", got)
	}
}

func TestNotifier(t *testing.T) {
	var states []string
	n := &Notifier{notify: func(_ bool, state string) (bool, error) {
		states = append(states, state)
		return true, nil
	}}
	n.Ready()
	n.Status("3 players")
	n.Stopping()

	want := []string{"READY=1", "STATUS=3 players", "STOPPING=1"}
	if strings.Join(states, ",") != strings.Join(want, ",") {
		t.Errorf("states = %v, want %v", states, want)
	}
}
