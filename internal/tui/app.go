package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"corpus-search/internal/corpus"
	"corpus-search/internal/history"
	"corpus-search/internal/ui"
	"corpus-search/internal/view"
)

// Recorder receives every finished submission
type Recorder interface {
	AddEntry(e history.Entry) error
}

// App is the interactive corpus search view
type App struct {
	ctx      context.Context
	view     *view.View
	searcher view.Searcher
	recorder Recorder
	log      zerolog.Logger

	input    textinput.Model
	mode     view.Kind
	status   string
	started  time.Time
	width    int
	height   int
	rendered string
	renderer *glamour.TermRenderer
}

// New creates the TUI over an existing view
func New(ctx context.Context, v *view.View, searcher view.Searcher, recorder Recorder, log zerolog.Logger) *App {
	ti := textinput.New()
	ti.Placeholder = "search the corpus"
	ti.Prompt = "❯ "
	ti.CharLimit = 512
	ti.Focus()

	a := &App{
		ctx:      ctx,
		view:     v,
		searcher: searcher,
		recorder: recorder,
		log:      log,
		input:    ti,
		mode:     view.KindIndex,
		width:    80,
	}
	a.input.SetValue(v.Query())
	return a
}

func (a *App) Init() tea.Cmd {
	a.view.Attach()
	a.render()
	return textinput.Blink
}

type responseMsg struct {
	ticket view.Ticket
	resp   corpus.Response
}

type failedMsg struct {
	ticket view.Ticket
	err    error
}

type clearedMsg struct{}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.renderer = nil
		a.render()
		return a, nil
	case tea.KeyMsg:
		switch m.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "tab":
			a.toggleMode()
			return a, nil
		case "enter":
			return a, a.submit()
		case "ctrl+r":
			a.view.Refresh()
			a.rendered = ""
			a.status = "cleared"
			a.record(history.Entry{Kind: history.KindReset})
			return a, nil
		case "ctrl+x":
			a.status = "clearing index..."
			return a, a.clearIndexCmd(a.view.Begin(view.KindClear))
		}
	case responseMsg:
		if a.view.HandleResponse(m.ticket, m.resp) {
			a.record(history.EntryFor(m.ticket, m.resp, nil))
			a.status = fmt.Sprintf("%d bytes in %s", len(m.resp), time.Since(a.started).Round(time.Millisecond))
			a.render()
		}
		return a, nil
	case failedMsg:
		if a.view.Fail(m.ticket, m.err) {
			a.record(history.EntryFor(m.ticket, nil, m.err))
			a.status = "error: " + m.err.Error()
		}
		return a, nil
	case clearedMsg:
		a.status = "index cleared"
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) toggleMode() {
	a.syncQuery()
	if a.mode == view.KindIndex {
		a.mode = view.KindNeuralNet
		a.input.SetValue(a.view.NeuralNetQuery())
		a.input.Placeholder = "search the neural-net index"
	} else {
		a.mode = view.KindIndex
		a.input.SetValue(a.view.Query())
		a.input.Placeholder = "search the corpus"
	}
	a.input.CursorEnd()
}

func (a *App) syncQuery() {
	if a.mode == view.KindNeuralNet {
		a.view.SetNeuralNetQuery(a.input.Value())
	} else {
		a.view.SetQuery(a.input.Value())
	}
}

func (a *App) submit() tea.Cmd {
	a.syncQuery()
	if strings.TrimSpace(a.input.Value()) == "" {
		a.status = "type a query first"
		return nil
	}
	if a.mode == view.KindNeuralNet && a.view.Model().ID == "" {
		a.status = "no model configured for neural-net search"
		return nil
	}

	t := a.view.Begin(a.mode)
	a.started = time.Now()
	a.rendered = ""
	a.status = "searching..."
	return a.searchCmd(t)
}

func (a *App) searchCmd(t view.Ticket) tea.Cmd {
	return func() tea.Msg {
		var resp corpus.Response
		var err error
		if t.Kind == view.KindNeuralNet {
			resp, err = a.searcher.SearchNeuralNet(a.ctx, t.Query, t.Model)
		} else {
			resp, err = a.searcher.Search(a.ctx, t.Query)
		}
		if err != nil {
			return failedMsg{ticket: t, err: err}
		}
		return responseMsg{ticket: t, resp: resp}
	}
}

func (a *App) clearIndexCmd(t view.Ticket) tea.Cmd {
	return func() tea.Msg {
		if err := a.searcher.ClearIndex(a.ctx); err != nil {
			return failedMsg{ticket: t, err: fmt.Errorf("clear index: %w", err)}
		}
		return clearedMsg{}
	}
}

func (a *App) record(e history.Entry) {
	if a.recorder == nil {
		return
	}
	if err := a.recorder.AddEntry(e); err != nil {
		a.log.Warn().Err(err).Msg("Failed to save history")
	}
}

// render caches the formatted result so View stays cheap
func (a *App) render() {
	r := a.view.Result()
	if r == nil {
		a.rendered = ""
		return
	}
	md := ui.FormatResponse(*r)
	if a.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(max(a.width-10, 20)),
		)
		if err != nil {
			a.log.Warn().Err(err).Msg("Failed to create markdown renderer")
		}
		a.renderer = r
	}
	a.rendered = md
	if a.renderer != nil {
		if out, err := a.renderer.Render(md); err == nil {
			a.rendered = out
		}
	}
}

func (a *App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("corpus search"))
	b.WriteString("  ")
	b.WriteString(modeStyle.Render(a.modeLabel()))
	b.WriteString("\n\n")
	b.WriteString(a.input.View())
	b.WriteString("\n")

	if url := a.view.URL(); url != "" {
		b.WriteString(dimStyle.Render(corpus.RequestMethod(url) + " " + url))
		b.WriteString("\n")
	}

	if a.view.DisplayResult() && a.rendered != "" {
		b.WriteString(resultStyle.Width(max(a.width-4, 20)).Render(strings.TrimRight(a.rendered, "\n")))
		b.WriteString("\n")
	}

	status := a.status
	if status == "" {
		status = "enter search · tab mode · ctrl+r reset · ctrl+x clear index · esc quit"
	}
	b.WriteString(statusStyle.Render(status))
	return b.String()
}

func (a *App) modeLabel() string {
	if a.mode == view.KindNeuralNet {
		m := a.view.Model()
		return fmt.Sprintf("neural-net %s (%s→%s)", m.ID, m.SourceLanguage.Code, m.TargetLanguage.Code)
	}
	return "index"
}

// styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	modeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 2)
	resultStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
