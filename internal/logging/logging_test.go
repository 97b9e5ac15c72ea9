package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q)=%v want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := New("warn", &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info().Msg("hidden")
	log.Warn().Str("probe", "vpn").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "shown" || entry["probe"] != "vpn" {
		t.Fatalf("entry=%v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("missing timestamp: %v", entry)
	}
}
