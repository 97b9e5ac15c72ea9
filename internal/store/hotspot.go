package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"roamctl/internal/config"
)

// HotspotCredentials is the last-saved access point identity.
type HotspotCredentials struct {
	UpdatedAt time.Time `yaml:"updated_at"`
	SSID      string    `yaml:"ssid"`
	Password  string    `yaml:"password"`
}

// HotspotStore persists credentials saved through the hotspot config
// operation and falls back to configured values when nothing was saved yet.
type HotspotStore struct {
	path     string
	fallback config.HotspotConfig
}

func NewHotspotStore(cfg config.HotspotConfig) *HotspotStore {
	return &HotspotStore{path: cfg.CredentialsPath, fallback: cfg}
}

// Load returns the saved credentials, or the configured SSID and password
// (the password file wins over an inline password) when none were saved.
// The files are read on every call so out-of-band edits take effect.
func (s *HotspotStore) Load() (HotspotCredentials, error) {
	saved, err := LoadHotspot(s.path)
	if err != nil {
		return HotspotCredentials{}, err
	}
	if saved != nil {
		if saved.SSID == "" {
			saved.SSID = s.fallback.SSID
		}
		return *saved, nil
	}

	creds := HotspotCredentials{SSID: s.fallback.SSID, Password: s.fallback.Password}
	if s.fallback.PasswordFile != "" {
		data, err := os.ReadFile(s.fallback.PasswordFile)
		switch {
		case err == nil:
			creds.Password = strings.TrimSpace(string(data))
		case errors.Is(err, fs.ErrNotExist):
		default:
			return HotspotCredentials{}, fmt.Errorf("read hotspot password file: %w", err)
		}
	}
	return creds, nil
}

// Save replaces the saved credentials.
func (s *HotspotStore) Save(creds HotspotCredentials) error {
	return SaveHotspot(s.path, &creds)
}

// LoadHotspot loads credentials from disk. If the file is missing, returns nil.
func LoadHotspot(path string) (*HotspotCredentials, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var creds HotspotCredentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &creds, nil
}

// SaveHotspot writes credentials to disk, readable by owner only.
func SaveHotspot(path string, creds *HotspotCredentials) error {
	if creds == nil {
		return nil
	}
	if path == "" {
		return fmt.Errorf("hotspot.credentials_path is required")
	}
	creds.UpdatedAt = time.Now().UTC()
	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
