package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"roamctl/internal/backend"
	"roamctl/internal/clients"
	"roamctl/internal/config"
	"roamctl/internal/controller"
	"roamctl/internal/execx"
	"roamctl/internal/logging"
	"roamctl/internal/metrics"
	"roamctl/internal/status"
	"roamctl/internal/store"
	"roamctl/internal/toggle"
	"roamctl/internal/wifi"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control plane",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			log, err := logging.New(cfg.LogLevel, os.Stderr)
			if err != nil {
				return err
			}

			sys, err := backend.NewSystem(cfg, execx.NewOSRunner(cfg.Backend.CommandTimeout), log)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m := metrics.New(reg)

			srv := controller.NewServer(controller.Deps{
				Backend:       sys,
				Status:        status.New(sys, log, m),
				Clients:       clients.NewInventory(sys, log),
				Wifi:          wifi.NewService(sys, log),
				Toggles:       toggle.New(sys, store.NewHotspotStore(cfg.Hotspot), cfg, log, m),
				Metrics:       m,
				Gatherer:      reg,
				Log:           log,
				RebootTimeout: 3 * cfg.Backend.CommandTimeout,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().
				Str("hotspot_profile", cfg.Hotspot.Profile).
				Str("vpn_interface", cfg.VPN.Interface).
				Str("probe", cfg.Probe.Method).
				Msg("roamctl starting")
			return srv.ListenAndServe(ctx, cfg.Listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address override")
	return cmd
}
