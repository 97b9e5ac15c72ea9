package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen          = ":8080"
	DefaultLogLevel        = "info"
	DefaultCommandTimeout  = 10 * time.Second
	DefaultWifiInterface   = "wlan0"
	DefaultAPProfile       = "TravelRouter-AP"
	DefaultHotspotSSID     = "TravelRouter"
	DefaultCredentialsPath = "/etc/roamctl/hotspot.yaml"
	DefaultLeasesPath      = "/var/lib/dnsmasq/dnsmasq.leases"
	DefaultVPNInterface    = "wg0"
	DefaultVPNConfigPath   = "/etc/wireguard/wg0.conf"
	DefaultProbeMethod     = "icmp"
	DefaultProbeTarget     = "8.8.8.8"
	DefaultProbeTimeout    = 2 * time.Second
	DefaultDNSProbeName    = "connectivity-check.ubuntu.com"

	// MinPasswordLength is the WPA-PSK policy floor for hotspot passwords.
	MinPasswordLength = 8
)

// Config holds all daemon settings.
type Config struct {
	Listen   string        `yaml:"listen"`
	LogLevel string        `yaml:"log_level"`
	Backend  BackendConfig `yaml:"backend"`
	Hotspot  HotspotConfig `yaml:"hotspot"`
	VPN      VPNConfig     `yaml:"vpn"`
	Probe    ProbeConfig   `yaml:"probe"`
}

// BackendConfig tunes how external subsystems are invoked.
type BackendConfig struct {
	CommandTimeout time.Duration `yaml:"command_timeout"`
	LeasesPath     string        `yaml:"leases_path"`
}

// HotspotConfig describes the local access point.
type HotspotConfig struct {
	Interface       string `yaml:"interface"`
	Profile         string `yaml:"profile"`
	SSID            string `yaml:"ssid"`
	Password        string `yaml:"password,omitempty"`
	PasswordFile    string `yaml:"password_file,omitempty"`
	CredentialsPath string `yaml:"credentials_path"`
}

// VPNConfig describes the WireGuard tunnel.
type VPNConfig struct {
	Interface  string `yaml:"interface"`
	ConfigPath string `yaml:"config_path"`
}

// ProbeConfig selects how internet reachability is probed.
type ProbeConfig struct {
	Method      string        `yaml:"method"` // icmp|stun|dns
	Target      string        `yaml:"target"`
	STUNServers []string      `yaml:"stun_servers,omitempty"`
	DNSName     string        `yaml:"dns_name,omitempty"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Load reads and parses a YAML config file, then applies environment
// overrides and defaults. An empty path yields defaults plus environment.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		var err error
		cfg, err = loadFile(path)
		if err != nil {
			return Config{}, err
		}
	}

	ApplyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes a YAML config file to disk.
func Save(path string, cfg Config) error {
	ApplyDefaults(&cfg)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&cfg.Listen, "ROAMCTL_LISTEN")
	set(&cfg.LogLevel, "ROAMCTL_LOG_LEVEL")
	set(&cfg.Hotspot.SSID, "HOTSPOT_SSID")
	set(&cfg.Hotspot.Password, "HOTSPOT_PASSWORD")
	set(&cfg.Hotspot.PasswordFile, "HOTSPOT_PASSWORD_FILE")
	set(&cfg.VPN.Interface, "VPN_INTERFACE")
	set(&cfg.VPN.ConfigPath, "VPN_CONFIG_PATH")
}

// Validate performs minimal validation for required fields.
func Validate(cfg Config) error {
	if cfg.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if cfg.Hotspot.Profile == "" {
		return fmt.Errorf("hotspot.profile is required")
	}
	if cfg.VPN.Interface == "" {
		return fmt.Errorf("vpn.interface is required")
	}
	if !filepath.IsAbs(cfg.VPN.ConfigPath) {
		return fmt.Errorf("vpn.config_path must be absolute")
	}
	// wg-quick derives the interface name from the file name.
	if filepath.Base(cfg.VPN.ConfigPath) != cfg.VPN.Interface+".conf" {
		return fmt.Errorf("vpn.config_path must be named %s.conf", cfg.VPN.Interface)
	}
	switch cfg.Probe.Method {
	case "icmp", "dns":
	case "stun":
		if len(cfg.Probe.STUNServers) == 0 {
			return fmt.Errorf("probe.stun_servers is required for method stun")
		}
	default:
		return fmt.Errorf("probe.method %q is not one of icmp, stun, dns", cfg.Probe.Method)
	}
	return nil
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Backend.CommandTimeout <= 0 {
		cfg.Backend.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.Backend.LeasesPath == "" {
		cfg.Backend.LeasesPath = DefaultLeasesPath
	}
	if cfg.Hotspot.Interface == "" {
		cfg.Hotspot.Interface = DefaultWifiInterface
	}
	if cfg.Hotspot.Profile == "" {
		cfg.Hotspot.Profile = DefaultAPProfile
	}
	if cfg.Hotspot.SSID == "" {
		cfg.Hotspot.SSID = DefaultHotspotSSID
	}
	if cfg.Hotspot.CredentialsPath == "" {
		cfg.Hotspot.CredentialsPath = DefaultCredentialsPath
	}
	if cfg.VPN.Interface == "" {
		cfg.VPN.Interface = DefaultVPNInterface
	}
	if cfg.VPN.ConfigPath == "" {
		cfg.VPN.ConfigPath = filepath.Join(filepath.Dir(DefaultVPNConfigPath), cfg.VPN.Interface+".conf")
	}
	cfg.Probe.Method = strings.ToLower(strings.TrimSpace(cfg.Probe.Method))
	if cfg.Probe.Method == "" {
		cfg.Probe.Method = DefaultProbeMethod
	}
	if cfg.Probe.Target == "" {
		cfg.Probe.Target = DefaultProbeTarget
	}
	if cfg.Probe.DNSName == "" {
		cfg.Probe.DNSName = DefaultDNSProbeName
	}
	if cfg.Probe.Timeout <= 0 {
		cfg.Probe.Timeout = DefaultProbeTimeout
	}
}
