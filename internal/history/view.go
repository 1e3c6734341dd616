package history

import (
	"encoding/json"
	"time"

	"corpus-search/internal/corpus"
	"corpus-search/internal/view"
)

// EntryFor builds the history entry for a finished submission
func EntryFor(t view.Ticket, resp corpus.Response, err error) Entry {
	e := Entry{
		Kind:      string(t.Kind),
		Query:     t.Query,
		URL:       t.URL,
		Timestamp: time.Now(),
	}
	if err != nil {
		e.Error = err.Error()
		return e
	}
	e.Response = json.RawMessage(resp)
	return e
}

// Result turns a stored entry back into a view result
func (e Entry) Result() *view.Result {
	if !e.Succeeded() {
		return nil
	}
	return &view.Result{
		Response:   corpus.Response(e.Response),
		Query:      e.Query,
		Kind:       view.Kind(e.Kind),
		ReceivedAt: e.Timestamp,
	}
}

// RestoreInto installs the newest stored result into v and attaches it
func (m *Manager) RestoreInto(v *view.View) bool {
	last := m.LastSuccessful()
	if last == nil {
		v.Attach()
		return false
	}
	v.Restore(last.Result())
	v.Attach()
	return true
}
