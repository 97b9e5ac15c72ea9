package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"roamctl/internal/api"
)

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity, hotspot, VPN and uptime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := api.NewClient(opts.serverURL).Status(cmd.Context())
			if err != nil {
				return err
			}
			internet := "down"
			if st.Internet {
				internet = "up"
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "internet:   %s\n", internet)
			fmt.Fprintf(w, "upstream:   %s\n", orDash(st.Connection))
			fmt.Fprintf(w, "hotspot:    %s\n", onOff(st.HotspotActive))
			fmt.Fprintf(w, "vpn:        %s\n", onOff(st.VPNActive))
			fmt.Fprintf(w, "uptime:     %s\n", st.Uptime)
			return nil
		},
	}
}

func newClientsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "List devices attached to the hotspot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := api.NewClient(opts.serverURL).Clients(cmd.Context())
			if err != nil {
				return err
			}
			if len(resp.Clients) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no clients")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "MAC\tIP\tHOSTNAME")
			for _, c := range resp.Clients {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.MAC, orDash(c.IP), orDash(c.Hostname))
			}
			return tw.Flush()
		},
	}
}

func newWifiCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wifi",
		Short: "Scan for and join upstream networks",
	}

	scan := &cobra.Command{
		Use:   "scan",
		Short: "List visible networks, strongest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := api.NewClient(opts.serverURL).ScanWifi(cmd.Context())
			if err != nil {
				return err
			}
			if len(resp.Networks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no networks")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SSID\tSIGNAL\tSECURITY")
			for _, n := range resp.Networks {
				signal := "-"
				if n.Signal != nil {
					signal = fmt.Sprintf("%d%%", *n.Signal)
				}
				security := n.Security
				if security == "" {
					security = "open"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", n.SSID, signal, security)
			}
			return tw.Flush()
		},
	}

	var password string
	connect := &cobra.Command{
		Use:   "connect <ssid>",
		Short: "Join an upstream network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.WifiConnectRequest{SSID: args[0], Password: password}
			if err := api.NewClient(opts.serverURL).ConnectWifi(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "connected to %q\n", args[0])
			return nil
		},
	}
	connect.Flags().StringVar(&password, "password", "", "network passphrase (empty for open networks)")

	cmd.AddCommand(scan, connect)
	return cmd
}

// printToggle reports the state after a toggle. A refused or failed toggle
// still carries the state the subsystem was left in.
func printToggle(w io.Writer, name string, resp api.ToggleResponse, err error) error {
	var opErr *api.OperationError
	if err != nil && !errors.As(err, &opErr) {
		return err
	}
	fmt.Fprintf(w, "%s: %s\n", name, onOff(resp.Active))
	return err
}

func newHotspotCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hotspot",
		Short: "Control the local access point",
	}

	toggle := &cobra.Command{
		Use:   "toggle",
		Short: "Turn the hotspot on or off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := api.NewClient(opts.serverURL).ToggleHotspot(cmd.Context())
			return printToggle(cmd.OutOrStdout(), "hotspot", resp, err)
		},
	}

	var ssid, password string
	configure := &cobra.Command{
		Use:   "config",
		Short: "Set the hotspot name and passphrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := api.HotspotConfigRequest{SSID: ssid, Password: password}
			if err := api.NewClient(opts.serverURL).SaveHotspot(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "hotspot config saved")
			return nil
		},
	}
	configure.Flags().StringVar(&ssid, "ssid", "", "network name (default keeps the configured one)")
	configure.Flags().StringVar(&password, "password", "", "WPA passphrase, 8 to 63 characters")
	_ = configure.MarkFlagRequired("password")

	cmd.AddCommand(toggle, configure)
	return cmd
}

func newVPNCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vpn",
		Short: "Control the WireGuard tunnel",
	}

	toggle := &cobra.Command{
		Use:   "toggle",
		Short: "Bring the tunnel up or down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := api.NewClient(opts.serverURL).ToggleVPN(cmd.Context())
			return printToggle(cmd.OutOrStdout(), "vpn", resp, err)
		},
	}

	configure := &cobra.Command{
		Use:   "config [file]",
		Short: "Upload a WireGuard config (reads stdin when file is omitted or -)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := readBlob(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			req := api.VPNConfigRequest{Config: blob}
			if err := api.NewClient(opts.serverURL).SaveVPNConfig(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "vpn config saved")
			return nil
		},
	}

	cmd.AddCommand(toggle, configure)
	return cmd
}

func readBlob(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func newRebootCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reboot",
		Short: "Reboot the router",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "Reboot the router? [y/N]: ")
				var answer string
				_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
				if strings.ToLower(strings.TrimSpace(answer)) != "y" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}
			if err := api.NewClient(opts.serverURL).Reboot(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reboot requested")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}
