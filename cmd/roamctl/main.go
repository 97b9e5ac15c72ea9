package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"roamctl/internal/config"
)

const (
	defaultConfigPath = "/etc/roamctl/roamctl.yaml"
	defaultServerURL  = "http://127.0.0.1:8080"
)

type rootOptions struct {
	configPath string
	serverURL  string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "roamctl",
		Short: "roamctl - travel router control plane",
		Long: `roamctl runs the travel router's HTTP control plane and talks to it.

The serve command owns the hardware. Every other command is a thin client
of a running server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default "+defaultConfigPath+" when present)")
	root.PersistentFlags().StringVar(&opts.serverURL, "server", defaultServerURL, "roamctl server URL")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override")

	root.AddCommand(
		newServeCmd(opts),
		newStatusCmd(opts),
		newClientsCmd(opts),
		newWifiCmd(opts),
		newHotspotCmd(opts),
		newVPNCmd(opts),
		newRebootCmd(opts),
		newProbeCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// loadConfig reads the explicit config file, or the default one when it
// exists. Environment overrides and defaults always apply.
func loadConfig(opts *rootOptions) (config.Config, error) {
	path := opts.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	return cfg, nil
}
