// Package service manages the worldconsole systemd user unit and reports
// readiness to systemd.
package service

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/modoterra/worldconsole/pkg/core"
)

const unitName = "worldconsole.service"

// UnitContents returns the unit file for running binaryPath headless with
// the config at configPath.
func UnitContents(binaryPath, configPath string) string {
	return fmt.Sprintf(`[Unit]
Description=worldconsole world server
Documentation=https://github.com/modoterra/worldconsole
After=network.target

[Service]
Type=notify
NotifyAccess=main
ExecStart=%s --headless --config %s
KillSignal=SIGTERM
TimeoutStopSec=60
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`, binaryPath, configPath)
}

// UnitPath returns the path to the systemd user unit file.
func UnitPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(configDir, "systemd", "user", unitName), nil
}

// Install writes the unit file for the running executable, reloads systemd,
// and enables and starts the service.
func Install(configPath string) error {
	binaryPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("cannot locate worldconsole binary: %w", err)
	}
	if binaryPath, err = filepath.EvalSymlinks(binaryPath); err != nil {
		return fmt.Errorf("cannot resolve worldconsole path: %w", err)
	}
	if configPath, err = filepath.Abs(configPath); err != nil {
		return fmt.Errorf("cannot resolve config path: %w", err)
	}

	unitPath, err := UnitPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(unitPath), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	if err := os.WriteFile(unitPath, []byte(UnitContents(binaryPath, configPath)), 0o644); err != nil {
		return fmt.Errorf("cannot write unit file: %w", err)
	}

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	return systemctl("enable", "--now", unitName)
}

// Uninstall stops and disables the service, removes the unit file, and
// reloads systemd.
func Uninstall() error {
	// Best effort: the unit may not be running.
	_ = systemctl("stop", unitName)
	_ = systemctl("disable", unitName)

	unitPath, err := UnitPath()
	if err != nil {
		return err
	}
	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove unit file: %w", err)
	}
	return systemctl("daemon-reload")
}

// Status returns a human-readable status of the game listener and the unit.
func Status(listenAddr string) string {
	var lines []string

	network, addr, err := core.ParseListenAddr(listenAddr)
	switch {
	case err != nil:
		lines = append(lines, "listener: "+err.Error())
	default:
		conn, dialErr := net.DialTimeout(network, addr, time.Second)
		if dialErr == nil {
			conn.Close()
			lines = append(lines, "listener: reachable ("+listenAddr+")")
		} else {
			lines = append(lines, "listener: unreachable ("+listenAddr+")")
		}
	}

	unitPath, err := UnitPath()
	if err == nil {
		if _, statErr := os.Stat(unitPath); statErr == nil {
			out, runErr := exec.Command("systemctl", "--user", "is-active", unitName).Output()
			state := strings.TrimSpace(string(out))
			if runErr != nil && state == "" {
				state = "unknown"
			}
			lines = append(lines, "systemd user service: "+state)
		} else {
			lines = append(lines, "systemd user service: not installed")
		}
	}

	return strings.Join(lines, "\n")
}

func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl --user %s: %w", strings.Join(args, " "), err)
	}
	return nil
}
