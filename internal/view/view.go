// Package view holds the state behind the corpus search view: the current
// queries, the last result and whether that result is on display.
package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"corpus-search/internal/corpus"
)

// Kind tells which endpoint produced a result
type Kind string

const (
	KindIndex     Kind = "index"
	KindNeuralNet Kind = "neuralnet"
	KindClear     Kind = "clear"
)

// Result is a server response together with the query that produced it
type Result struct {
	Response   corpus.Response `json:"response"`
	Query      string          `json:"query"`
	Kind       Kind            `json:"kind"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Searcher issues requests against the insights server
type Searcher interface {
	Search(ctx context.Context, query string) (corpus.Response, error)
	SearchNeuralNet(ctx context.Context, query string, model corpus.Model) (corpus.Response, error)
	ClearIndex(ctx context.Context) error
}

// Ticket identifies one submission. Responses carrying an outdated ticket
// are dropped.
type Ticket struct {
	Seq   uint64
	Kind  Kind
	Query string
	Model corpus.Model
	URL   string
}

// View is the corpus search view state. It is safe for concurrent use.
type View struct {
	searcher Searcher
	log      zerolog.Logger
	now      func() time.Time

	mu            sync.Mutex
	query         string
	nnQuery       string
	model         corpus.Model
	url           string
	result        *Result
	displayResult bool
	lastErr       error
	seq           uint64
	inFlight      uint64
}

// New creates a view that issues requests through searcher
func New(searcher Searcher, log zerolog.Logger) *View {
	return &View{
		searcher: searcher,
		log:      log,
		now:      time.Now,
	}
}

func (v *View) SetQuery(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = q
}

func (v *View) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

func (v *View) SetNeuralNetQuery(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nnQuery = q
}

func (v *View) NeuralNetQuery() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.nnQuery
}

func (v *View) SetModel(m corpus.Model) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.model = m
}

func (v *View) Model() corpus.Model {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.model
}

// URL returns the path of the most recent request
func (v *View) URL() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.url
}

// DisplayResult reports whether the result panel should be shown
func (v *View) DisplayResult() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.displayResult
}

// Result returns a copy of the stored result, or nil
func (v *View) Result() *Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.result == nil {
		return nil
	}
	r := *v.result
	return &r
}

// LastError returns the error of the most recent failed request
func (v *View) LastError() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// Pending reports whether a submission is waiting for its response
func (v *View) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inFlight != 0
}

// Begin records a submission of the given kind and hides the current result
// until the response arrives. The returned ticket must be handed back to
// HandleResponse or Fail.
func (v *View) Begin(kind Kind) Ticket {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.seq++
	t := Ticket{Seq: v.seq, Kind: kind}
	switch kind {
	case KindNeuralNet:
		t.Query = v.nnQuery
		t.Model = v.model
		t.URL = corpus.NeuralNetSearchURL(v.nnQuery, v.model)
		v.displayResult = false
	case KindClear:
		t.URL = corpus.ClearIndexPath
	default:
		t.Kind = KindIndex
		t.Query = v.query
		t.URL = corpus.IndexSearchURL(v.query)
		v.displayResult = false
	}
	v.url = t.URL
	if t.Kind != KindClear {
		v.inFlight = t.Seq
	}

	v.log.Debug().Uint64("seq", t.Seq).Str("kind", string(t.Kind)).Str("url", t.URL).Msg("Submitting query")
	return t
}

// HandleResponse stores the response as the current result and shows it.
// It returns false when the ticket was superseded and the response dropped.
func (v *View) HandleResponse(t Ticket, resp corpus.Response) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if t.Seq != v.inFlight {
		v.log.Debug().Uint64("seq", t.Seq).Uint64("current", v.inFlight).Msg("Dropping stale response")
		return false
	}

	v.inFlight = 0
	v.lastErr = nil
	v.result = &Result{
		Response:   resp,
		Query:      t.Query,
		Kind:       t.Kind,
		ReceivedAt: v.now(),
	}
	v.displayResult = true

	v.log.Debug().Uint64("seq", t.Seq).Str("query", t.Query).Int("bytes", len(resp)).Msg("Stored response")
	return true
}

// Fail records a failed request. The result stays hidden.
func (v *View) Fail(t Ticket, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if t.Kind != KindClear && t.Seq != v.inFlight {
		return false
	}
	if t.Kind != KindClear {
		v.inFlight = 0
	}
	v.lastErr = err
	v.log.Warn().Err(err).Uint64("seq", t.Seq).Str("url", t.URL).Msg("Request failed")
	return true
}

// SubmitIndexQuery runs a plain index search for the current query
func (v *View) SubmitIndexQuery(ctx context.Context) error {
	t := v.Begin(KindIndex)
	resp, err := v.searcher.Search(ctx, t.Query)
	if err != nil {
		v.Fail(t, err)
		return fmt.Errorf("index search: %w", err)
	}
	v.HandleResponse(t, resp)
	return nil
}

// SubmitNeuralNetQuery runs a neural-net search for the current neural-net
// query and model
func (v *View) SubmitNeuralNetQuery(ctx context.Context) error {
	t := v.Begin(KindNeuralNet)
	resp, err := v.searcher.SearchNeuralNet(ctx, t.Query, t.Model)
	if err != nil {
		v.Fail(t, err)
		return fmt.Errorf("neural-net search: %w", err)
	}
	v.HandleResponse(t, resp)
	return nil
}

// ClearIndex asks the server to drop its tensor index. The stored result is
// left alone.
func (v *View) ClearIndex(ctx context.Context) error {
	t := v.Begin(KindClear)
	v.log.Info().Msg("Clearing index")
	if err := v.searcher.ClearIndex(ctx); err != nil {
		v.Fail(t, err)
		return fmt.Errorf("clear index: %w", err)
	}
	return nil
}

// Restore installs a previously stored result without showing it. Call
// Attach to bring the display flag in line.
func (v *View) Restore(r *Result) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if r == nil {
		v.result = nil
		return
	}
	cp := *r
	v.result = &cp
	if cp.Kind == KindNeuralNet {
		v.nnQuery = cp.Query
	} else {
		v.query = cp.Query
	}
}

// Attach sets the display flag from whether a result is already stored
func (v *View) Attach() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.displayResult = v.result != nil
}

// Refresh clears the result and hides the result panel. Outstanding
// submissions are abandoned.
func (v *View) Refresh() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.log.Debug().Msg("Refresh")
	v.result = nil
	v.displayResult = false
	v.lastErr = nil
	v.inFlight = 0
}
