package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/modoterra/worldconsole/internal/buildinfo"
	"github.com/modoterra/worldconsole/pkg/config"
	"github.com/modoterra/worldconsole/pkg/console"
	"github.com/modoterra/worldconsole/pkg/service"
	"github.com/modoterra/worldconsole/pkg/transport/ndjson"
)

var (
	configPath   string
	flagListen   string
	flagSeed     int64
	flagSaveFile string
	flagHeadless bool
	flagLogFile  string
	flagLogLevel string
	flagTickRate time.Duration
)

// exitError carries a process exit code out of a command. A nil err means
// the diagnostic was already printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.err != nil {
				fmt.Fprintln(os.Stderr, "error:", ee.err)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(console.ExitStartup)
	}
}

var rootCmd = &cobra.Command{
	Use:           "worldconsole",
	Short:         "Operator console for the world server",
	Long:          "worldconsole runs the world server and gives its operator a live log view and a command line.",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runConsole,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to "+config.FileName+" (default "+config.FilePath(config.DefaultDir())+")")
	pf.StringVar(&flagListen, "listen", "", "game listener address (unix:/path or tcp:host:port)")

	f := rootCmd.Flags()
	f.Int64Var(&flagSeed, "seed", 0, "world seed for a new world")
	f.StringVar(&flagSaveFile, "save-file", "", "world save file")
	f.BoolVar(&flagHeadless, "headless", false, "run without the TUI; read commands from stdin")
	f.StringVar(&flagLogFile, "log-file", "", "also write logs to this rotating file")
	f.StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error")
	f.DurationVar(&flagTickRate, "tick-rate", 0, "server tick interval")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serviceCmd)
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.FilePath(config.DefaultDir())
}

// loadConfig reads the config file, applies flags set on cmd and validates
// the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(resolvedConfigPath())
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Server.Listen = flagListen
	}
	if flags.Changed("seed") {
		cfg.Server.Seed = flagSeed
	}
	if flags.Changed("save-file") {
		cfg.Server.SaveFile = flagSaveFile
	}
	if flags.Changed("log-file") {
		cfg.Log.File = flagLogFile
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if flags.Changed("tick-rate") {
		cfg.Console.TickRate = flagTickRate
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// --- Version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "worldconsole %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	},
}

// --- Ping / Status ---

func dialServer(cmd *cobra.Command) (*ndjson.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	client, err := ndjson.Dial(cfg.Server.Listen)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to world server at %s: %w", cfg.Server.Listen, err)
	}
	return client, nil
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the world server is answering",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := dialServer(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		defer cancel()

		pong, err := client.Ping(ctx)
		if err != nil {
			return err
		}
		if pong.Pong {
			fmt.Fprintf(cmd.OutOrStdout(), "pong ✓ (%s)\n", pong.Version)
		}
		return nil
	},
}

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running world's status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := dialServer(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		defer cancel()

		st, err := client.Status(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if statusJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}
		fmt.Fprintf(out, "%-12s %s\n", "WORLD TIME", st.WorldTime)
		fmt.Fprintf(out, "%-12s %s\n", "UPTIME", st.Uptime.Truncate(time.Second))
		fmt.Fprintf(out, "%-12s %d\n", "TICKS", st.Ticks)
		fmt.Fprintf(out, "%-12s %.1f\n", "TPS", st.TPS)
		fmt.Fprintf(out, "%-12s %d\n", "PLAYERS", st.Players)
		fmt.Fprintf(out, "%-12s %d\n", "ENTITIES", st.Entities)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

// --- Config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create and check configuration files",
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolvedConfigPath()
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Save(path, config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolvedConfigPath()
		if len(args) == 1 {
			path = args[0]
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		errs := config.Validate(cfg)
		if len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "  ✗ %s\n", e)
			}
			return &exitError{code: console.ExitStartup}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}

// --- Service ---

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the systemd user service",
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and enable the worldconsole user service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := service.Install(resolvedConfigPath()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "service installed and started")
		return nil
	},
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop, disable and remove the user service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := service.Uninstall(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "service removed")
		return nil
	},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service and listener status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), service.Status(cfg.Server.Listen))
		return nil
	},
}

func init() {
	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceUninstallCmd)
	serviceCmd.AddCommand(serviceStatusCmd)
}
