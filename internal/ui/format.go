package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"corpus-search/internal/corpus"
	"corpus-search/internal/view"
)

// FormatResponse renders a stored result as markdown. Known server shapes
// become tables; anything else is shown as indented JSON.
func FormatResponse(r view.Result) string {
	var sb strings.Builder

	switch r.Kind {
	case view.KindNeuralNet:
		sb.WriteString(fmt.Sprintf("## Neural-net matches for \"%s\"\n\n", r.Query))
	default:
		sb.WriteString(fmt.Sprintf("## Corpus matches for \"%s\"\n\n", r.Query))
	}

	sb.WriteString(formatBody(r.Response))
	return sb.String()
}

func formatBody(resp corpus.Response) string {
	var items []json.RawMessage
	if err := json.Unmarshal(resp, &items); err == nil {
		if len(items) == 0 {
			return "_No matches_\n"
		}
		if table, ok := pairTable(items); ok {
			return table
		}
		if table, ok := indexMatchTable(items); ok {
			return table
		}
		if table, ok := graphStateTable(items); ok {
			return table
		}
	}
	return rawJSON(resp)
}

// pairTable handles [[query, target], ...]
func pairTable(items []json.RawMessage) (string, bool) {
	var sb strings.Builder
	sb.WriteString("| # | Query | Target |\n|---|---|---|\n")
	for i, item := range items {
		var pair []string
		if err := json.Unmarshal(item, &pair); err != nil || len(pair) != 2 {
			return "", false
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", i+1, cell(pair[0]), cell(pair[1])))
	}
	return sb.String(), true
}

// indexMatchTable handles [{"sourcelang": ..., "targetlang": ..., "distance": ...}, ...]
func indexMatchTable(items []json.RawMessage) (string, bool) {
	matches := make([]corpus.IndexMatch, 0, len(items))
	withDistance := false
	for _, item := range items {
		var m corpus.IndexMatch
		if err := json.Unmarshal(item, &m); err != nil || (m.Source == "" && m.Target == "") {
			return "", false
		}
		if m.Distance != nil {
			withDistance = true
		}
		matches = append(matches, m)
	}

	var sb strings.Builder
	if withDistance {
		sb.WriteString("| # | Source | Target | Distance |\n|---|---|---|---|\n")
	} else {
		sb.WriteString("| # | Source | Target |\n|---|---|---|\n")
	}
	for i, m := range matches {
		if withDistance {
			dist := ""
			if m.Distance != nil {
				dist = fmt.Sprintf("%.4g", *m.Distance)
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n", i+1, cell(m.Source), cell(m.Target), dist))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", i+1, cell(m.Source), cell(m.Target)))
	}
	return sb.String(), true
}

// graphStateTable handles [{"vector": [...], "textInstance": ..., "tensordistance": ...}, ...]
func graphStateTable(items []json.RawMessage) (string, bool) {
	var sb strings.Builder
	sb.WriteString("| # | Text | Distance | Vector |\n|---|---|---|---|\n")
	for i, item := range items {
		var m corpus.GraphStateMatch
		if err := json.Unmarshal(item, &m); err != nil || m.TextInstance == "" {
			return "", false
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %.4g | %s |\n", i+1, cell(m.TextInstance), m.TensorDistance, formatVector(m.Vector)))
	}
	return sb.String(), true
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%.3g", f)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func rawJSON(resp corpus.Response) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, resp, "", "  "); err != nil {
		// not JSON at all, show it verbatim
		return "```\n" + strings.TrimRight(string(resp), "\n") + "\n```\n"
	}
	return "```json\n" + buf.String() + "\n```\n"
}

// cell makes a value safe to place inside a markdown table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.Join(strings.Fields(s), " ")
}
