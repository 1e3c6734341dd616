package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "corpus-search.log")
	log, closer, err := New(Options{Path: path, Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug().Str("query", "session").Msg("Submitting query")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"query":"session"`) {
		t.Fatalf("log file missing entry: %s", data)
	}
}

func TestNewLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Options{Writer: &buf, Level: "warn"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}

	buf.Reset()
	log, _, _ = New(Options{Writer: &buf, Level: "warn", Verbose: true})
	log.Debug().Msg("verbose")
	if !strings.Contains(buf.String(), "verbose") {
		t.Fatalf("verbose did not force debug level: %q", buf.String())
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
