package history

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"corpus-search/internal/corpus"
	"corpus-search/internal/view"
)

func TestManagerPersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	m := NewManager(path, 5)
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := m.AddEntry(Entry{Kind: "index", Query: "session", Response: json.RawMessage(`[["session","sitzung"]]`)}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if err := m.AddEntry(Entry{Kind: "index", Query: "ich", Error: "status 500"}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	firstSession := m.CurrentSession().ID

	reloaded := NewManager(path, 5)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.CurrentSession().ID == firstSession {
		t.Fatal("reload should start a new session")
	}
	if got := len(reloaded.RecentEntries(10)); got != 0 {
		t.Fatalf("new session has %d entries", got)
	}

	last := reloaded.LastSuccessful()
	if last == nil || last.Query != "session" {
		t.Fatalf("LastSuccessful = %+v", last)
	}
}

func TestLastSuccessfulStopsAtReset(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "history.json"), 5)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	_ = m.AddEntry(Entry{Kind: "index", Query: "a", Response: json.RawMessage(`[]`)})
	_ = m.AddEntry(Entry{Kind: KindReset})
	if got := m.LastSuccessful(); got != nil {
		t.Fatalf("expected nil after reset, got %+v", got)
	}
	_ = m.AddEntry(Entry{Kind: "neuralnet", Query: "b", Response: json.RawMessage(`[]`)})
	if got := m.LastSuccessful(); got == nil || got.Query != "b" {
		t.Fatalf("LastSuccessful = %+v", got)
	}
}

func TestRecentEntriesLimit(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "history.json"), 5)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	for _, q := range []string{"a", "b", "c"} {
		_ = m.AddEntry(Entry{Kind: "index", Query: q})
	}
	got := m.RecentEntries(2)
	if len(got) != 2 || got[0].Query != "b" || got[1].Query != "c" {
		t.Fatalf("RecentEntries(2) = %+v", got)
	}
}

func TestSessionsArePruned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	for i := 0; i < 4; i++ {
		m := NewManager(path, 2)
		if err := m.Load(); err != nil {
			t.Fatal(err)
		}
		if err := m.AddEntry(Entry{Kind: "index", Query: "q"}); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		t.Fatal(err)
	}
	if len(h.Sessions) != 2 {
		t.Fatalf("expected 2 sessions on disk, got %d", len(h.Sessions))
	}
}

func TestCorruptFileIsBackedUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	m := NewManager(path, 5)
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := os.Stat(path + ".backup"); err != nil {
		t.Fatalf("backup not written: %v", err)
	}
	if m.LastSuccessful() != nil {
		t.Fatal("corrupt history produced a result")
	}
}

func TestNullFileLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("null"), 0600); err != nil {
		t.Fatal(err)
	}
	m := NewManager(path, 5)
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.CurrentSession() == nil {
		t.Fatal("no session started")
	}
	if err := m.AddEntry(Entry{Kind: "index", Query: "session", Response: json.RawMessage(`[]`)}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if got := m.LastSuccessful(); got == nil || got.Query != "session" {
		t.Fatalf("LastSuccessful = %+v", got)
	}
}

func TestCurrentSessionIsACopy(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "history.json"), 5)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	_ = m.AddEntry(Entry{Kind: "index", Query: "a"})

	s := m.CurrentSession()
	s.Entries[0].Query = "changed"
	s.Entries = append(s.Entries, Entry{Kind: "index", Query: "b"})

	got := m.RecentEntries(10)
	if len(got) != 1 || got[0].Query != "a" {
		t.Fatalf("caller modified the manager's session: %+v", got)
	}
}

func TestRestoreInto(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "history.json"), 5)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}

	v := view.New(nil, zerolog.Nop())
	if m.RestoreInto(v) || v.DisplayResult() {
		t.Fatal("restored a result from empty history")
	}

	ticket := view.Ticket{Seq: 1, Kind: view.KindNeuralNet, Query: "the house", URL: "/api/nncorpussearch?query=the%20house"}
	_ = m.AddEntry(EntryFor(ticket, corpus.Response(`[{"textInstance":"das haus","tensordistance":0}]`), nil))
	_ = m.AddEntry(EntryFor(view.Ticket{Seq: 2, Kind: view.KindIndex, Query: "x"}, nil, errors.New("timeout")))

	if !m.RestoreInto(v) {
		t.Fatal("nothing restored")
	}
	if !v.DisplayResult() {
		t.Fatal("restored result not on display")
	}
	r := v.Result()
	if r.Query != "the house" || r.Kind != view.KindNeuralNet {
		t.Fatalf("restored %+v", r)
	}
	if v.NeuralNetQuery() != "the house" {
		t.Fatalf("neural-net query = %q", v.NeuralNetQuery())
	}
}
