package ui

import (
	"strings"
	"testing"

	"corpus-search/internal/corpus"
	"corpus-search/internal/view"
)

func TestFormatResponse(t *testing.T) {
	tests := []struct {
		name     string
		result   view.Result
		contains []string
		excludes []string
	}{
		{
			name: "query target pairs",
			result: view.Result{
				Kind:     view.KindIndex,
				Query:    "session",
				Response: corpus.Response(`[["resumption of the session","wiederaufnahme der sitzungsperiode"],["a | b","c"]]`),
			},
			contains: []string{
				`Corpus matches for "session"`,
				"| # | Query | Target |",
				"| 1 | resumption of the session | wiederaufnahme der sitzungsperiode |",
				`| 2 | a \| b | c |`,
			},
		},
		{
			name: "source target objects with distance",
			result: view.Result{
				Kind:     view.KindIndex,
				Query:    "ich",
				Response: corpus.Response(`[{"sourcelang":"I","targetlang":"ich","distance":0.5}]`),
			},
			contains: []string{"| # | Source | Target | Distance |", "| 1 | I | ich | 0.5 |"},
		},
		{
			name: "graph state matches",
			result: view.Result{
				Kind:     view.KindNeuralNet,
				Query:    "the house",
				Response: corpus.Response(`[{"vector":[0.5,-1.25],"textInstance":"das haus","tensordistance":0.125}]`),
			},
			contains: []string{`Neural-net matches for "the house"`, "| 1 | das haus | 0.125 | [0.5, -1.25] |"},
		},
		{
			name:     "empty list",
			result:   view.Result{Query: "sghioghi", Response: corpus.Response(`[]`)},
			contains: []string{"_No matches_"},
		},
		{
			name:     "unknown object",
			result:   view.Result{Query: "x", Response: corpus.Response(`{"status":"ok","count":2}`)},
			contains: []string{"```json", `"status": "ok"`},
			excludes: []string{"| # |"},
		},
		{
			name:     "not json",
			result:   view.Result{Query: "x", Response: corpus.Response("plain words")},
			contains: []string{"```\nplain words\n```"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatResponse(tt.result)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("output unexpectedly contains %q:\n%s", unwanted, got)
				}
			}
		})
	}
}
