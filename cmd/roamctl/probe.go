package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"roamctl/internal/metrics"
	"roamctl/internal/netprobe"
)

func newProbeCmd(opts *rootOptions) *cobra.Command {
	var (
		count    int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Measure upstream reachability from this host",
		Long: `probe runs the configured reachability probe, then pings the probe
target and prints RTT statistics. When STUN servers are configured it also
reports the public address and NAT type.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			ctx := cmd.Context()

			prober, err := netprobe.New(cfg.Probe)
			if err != nil {
				return err
			}
			ok, err := prober.Probe(ctx)
			if err != nil {
				fmt.Fprintf(w, "%s probe failed: %v\n", cfg.Probe.Method, err)
			} else {
				fmt.Fprintf(w, "%s probe reachable=%t\n", cfg.Probe.Method, ok)
			}

			rtts, err := netprobe.NewICMP(cfg.Probe.Target, cfg.Probe.Timeout).Samples(ctx, count, interval)
			if err != nil {
				fmt.Fprintf(w, "ping %s failed: %v\n", cfg.Probe.Target, err)
			} else {
				s := metrics.Summarize(rtts, count)
				fmt.Fprintf(w, "ping %s sent=%d received=%d loss=%.2f%%\n", cfg.Probe.Target, s.Sent, s.Received, s.LossPct)
				if s.Received > 0 {
					fmt.Fprintf(w, "rtt avg=%.2fms p95=%.2fms min=%.2fms max=%.2fms jitter=%.2fms\n",
						s.AvgRTTMs, s.P95RTTMs, s.MinRTTMs, s.MaxRTTMs, s.AvgJitterMs)
				}
			}

			if len(cfg.Probe.STUNServers) > 0 {
				addr, natType, err := netprobe.Discover(ctx, cfg.Probe.STUNServers, cfg.Probe.Timeout)
				if err != nil {
					fmt.Fprintf(w, "stun failed: %v\n", err)
				} else {
					fmt.Fprintf(w, "public_addr=%s nat=%s\n", addr, natType)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 5, "number of echo requests")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "echo request interval")
	return cmd
}
