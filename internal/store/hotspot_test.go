package store

import (
	"os"
	"path/filepath"
	"testing"

	"roamctl/internal/config"
)

func TestLoadHotspot_MissingFile_ReturnsNil(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	creds, err := LoadHotspot(filepath.Join(tmp, "hotspot.yaml"))
	if err != nil {
		t.Fatalf("LoadHotspot: %v", err)
	}
	if creds != nil {
		t.Fatalf("creds=%+v", creds)
	}
}

func TestSaveHotspot_RoundTrip(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	path := filepath.Join(tmp, "roamctl", "hotspot.yaml")

	in := &HotspotCredentials{SSID: "Van Life", Password: "hunter22"}
	if err := SaveHotspot(path, in); err != nil {
		t.Fatalf("SaveHotspot: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode=%o", info.Mode().Perm())
	}

	out, err := LoadHotspot(path)
	if err != nil {
		t.Fatalf("LoadHotspot: %v", err)
	}
	if out.SSID != "Van Life" || out.Password != "hunter22" {
		t.Fatalf("creds=%+v", out)
	}
	if out.UpdatedAt.IsZero() {
		t.Fatalf("updated_at not set")
	}
}

func TestHotspotStore_FallsBackToConfig(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	s := NewHotspotStore(config.HotspotConfig{
		SSID:            "TravelRouter",
		Password:        "inline-pass",
		CredentialsPath: filepath.Join(tmp, "hotspot.yaml"),
	})

	creds, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.SSID != "TravelRouter" || creds.Password != "inline-pass" {
		t.Fatalf("creds=%+v", creds)
	}
}

func TestHotspotStore_PasswordFileWinsAndIsReread(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	pwFile := filepath.Join(tmp, "ap.secret")
	if err := os.WriteFile(pwFile, []byte("from-file-1\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s := NewHotspotStore(config.HotspotConfig{
		SSID:            "TravelRouter",
		Password:        "inline-pass",
		PasswordFile:    pwFile,
		CredentialsPath: filepath.Join(tmp, "hotspot.yaml"),
	})

	creds, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.Password != "from-file-1" {
		t.Fatalf("password=%q", creds.Password)
	}

	if err := os.WriteFile(pwFile, []byte("from-file-2"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	creds, err = s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.Password != "from-file-2" {
		t.Fatalf("password file not reread: %q", creds.Password)
	}
}

func TestHotspotStore_SavedCredentialsWin(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	s := NewHotspotStore(config.HotspotConfig{
		SSID:            "TravelRouter",
		Password:        "inline-pass",
		CredentialsPath: filepath.Join(tmp, "hotspot.yaml"),
	})
	if err := s.Save(HotspotCredentials{SSID: "Saved", Password: "saved-pass"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	creds, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.SSID != "Saved" || creds.Password != "saved-pass" {
		t.Fatalf("creds=%+v", creds)
	}
}
