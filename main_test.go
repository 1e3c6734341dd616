package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	"corpus-search/internal/history"
)

type fakeInsights struct {
	*httptest.Server
	cleared atomic.Int32
}

func newFakeInsights(t *testing.T) *fakeInsights {
	t.Helper()
	f := &fakeInsights{}

	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/api/corpussearch", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[["` + req.URL.Query().Get("query") + `","sitzung"]]`))
	})
	r.Get("/api/nncorpussearch", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("id") == "" || q.Get("sl") == "" || q.Get("tl") == "" {
			http.Error(w, "missing model", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"vector":[0.5],"textInstance":"das haus","tensordistance":0.25}]`))
	})
	r.Post("/api/cleartensorindex", func(w http.ResponseWriter, req *http.Request) {
		f.cleared.Add(1)
	})

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

func testArgs(t *testing.T, server string, extra ...string) []string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CORPUS_SEARCH_CONFIG", "")
	args := []string{
		"-server", server,
		"-history", filepath.Join(home, "history.json"),
		"-log-file", filepath.Join(home, "corpus-search.log"),
	}
	return append(args, extra...)
}

func TestRunOneShotIndexSearch(t *testing.T) {
	srv := newFakeInsights(t)
	var stdout, stderr bytes.Buffer

	code := run(testArgs(t, srv.URL, "-q", "session"), strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "sitzung") {
		t.Fatalf("result not printed:\n%s", stdout.String())
	}
}

func TestRunOneShotNeuralNetNeedsModel(t *testing.T) {
	srv := newFakeInsights(t)
	var stdout, stderr bytes.Buffer

	code := run(testArgs(t, srv.URL, "-nn", "the house"), strings.NewReader(""), &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit code 1 without a model, got %d", code)
	}
	if !strings.Contains(stdout.String(), "model id") {
		t.Fatalf("missing model error not shown:\n%s", stdout.String())
	}

	stdout.Reset()
	code = run(testArgs(t, srv.URL, "-nn", "the house", "-model", "ende"), strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d:\n%s", code, stdout.String())
	}
	if !strings.Contains(stdout.String(), "das haus") {
		t.Fatalf("result not printed:\n%s", stdout.String())
	}
}

func TestRunOneShotClearIndex(t *testing.T) {
	srv := newFakeInsights(t)
	var stdout, stderr bytes.Buffer

	code := run(testArgs(t, srv.URL, "-clear-index"), strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if srv.cleared.Load() != 1 {
		t.Fatalf("cleared %d times", srv.cleared.Load())
	}
}

func TestRunPlainSessionAndRestore(t *testing.T) {
	srv := newFakeInsights(t)
	args := testArgs(t, srv.URL, "-plain")
	var stdout, stderr bytes.Buffer

	input := "session\n/history\n/exit\n"
	if code := run(args, strings.NewReader(input), &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "GET /api/corpussearch?query=session") {
		t.Fatalf("request not announced:\n%s", out)
	}
	if !strings.Contains(out, "sitzung") {
		t.Fatalf("result not printed:\n%s", out)
	}

	// a second run shows the stored result before any search
	stdout.Reset()
	if code := run(args, strings.NewReader("/refresh\n/exit\n"), &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(stdout.String(), "Previous result") {
		t.Fatalf("stored result not restored:\n%s", stdout.String())
	}

	// after /refresh nothing is restored
	stdout.Reset()
	if code := run(args, strings.NewReader("/exit\n"), &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if strings.Contains(stdout.String(), "Previous result") {
		t.Fatalf("result restored after refresh:\n%s", stdout.String())
	}

	data, err := os.ReadFile(args[3])
	if err != nil {
		t.Fatalf("history not written: %v", err)
	}
	if !strings.Contains(string(data), `"kind": "`+history.KindReset+`"`) {
		t.Fatalf("reset not recorded in history:\n%s", data)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(testArgs(t, "not-a-url", "-q", "x"), strings.NewReader(""), &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "Configuration error") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestPickMode(t *testing.T) {
	tests := []struct {
		name string
		opts options
		tty  bool
		want runMode
	}{
		{"tty defaults to tui", options{}, true, modeTUI},
		{"no tty falls back to plain", options{}, false, modePlain},
		{"plain flag", options{plain: true}, true, modePlain},
		{"query flag", options{query: "x"}, true, modeOneShot},
		{"clear flag", options{clearIndex: true}, false, modeOneShot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickMode(tt.opts, tt.tty); got != tt.want {
				t.Fatalf("pickMode = %v, want %v", got, tt.want)
			}
		})
	}
}
