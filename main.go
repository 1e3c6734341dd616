package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"corpus-search/internal/config"
	"corpus-search/internal/corpus"
	"corpus-search/internal/history"
	"corpus-search/internal/logging"
	"corpus-search/internal/terminal"
	"corpus-search/internal/tui"
	"corpus-search/internal/ui"
	"corpus-search/internal/view"
)

// runMode selects the front end
type runMode int

const (
	modeTUI runMode = iota
	modePlain
	modeOneShot
)

// options are the flags that are not part of the persistent configuration
type options struct {
	plain      bool
	query      string
	nnQuery    string
	clearIndex bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}

	opts, err := parseFlags(cfg, args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}

	mode := pickMode(opts, terminal.IsTerminal())

	logOpts := logging.Options{Path: cfg.LogPath, Level: cfg.LogLevel, Verbose: cfg.Verbose}
	if mode == modeOneShot && cfg.Verbose {
		logOpts.Path = ""
		logOpts.Writer = stderr
	}
	log, logCloser, err := logging.New(logOpts)
	if err != nil {
		fmt.Fprintf(stderr, "Logging error: %v\n", err)
		return 1
	}
	defer logCloser.Close()

	client := corpus.NewClient(cfg.ServerURL, cfg.Timeout,
		corpus.WithUserAgent(cfg.UserAgent),
		corpus.WithMaxResponseSize(cfg.MaxResponseSize),
		corpus.WithLogger(log.With().Str("component", "client").Logger()),
	)
	searchView := view.New(client, log.With().Str("component", "view").Logger())
	searchView.SetModel(cfg.Model)

	historyMgr := history.NewManager(cfg.HistoryPath, cfg.MaxHistorySize)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	width, _ := terminal.Size()
	display := ui.NewEnhancedDisplay(stdout, width, mode != modeOneShot && terminal.IsTerminal(), log.With().Str("component", "display").Logger())

	log.Info().Str("server", cfg.ServerURL).Str("model", cfg.Model.ID).Int("mode", int(mode)).Msg("Starting corpus-search")

	switch mode {
	case modeOneShot:
		return runOneShot(ctx, cfg, opts, searchView, display)
	case modePlain:
		loadHistory(historyMgr, searchView, display, log)
		return runPlain(ctx, cfg, client, searchView, historyMgr, display, terminal.NewReader(stdin))
	default:
		loadHistory(historyMgr, searchView, display, log)
		app := tui.New(ctx, searchView, client, historyMgr, log.With().Str("component", "tui").Logger())
		p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
}

// parseFlags overrides the loaded configuration with command-line flags
func parseFlags(cfg *config.Config, args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("corpus-search", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Insights server URL")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Request timeout")
	fs.StringVar(&cfg.Model.ID, "model", cfg.Model.ID, "Model id for neural-net search")
	fs.StringVar(&cfg.Model.SourceLanguage.Code, "sl", cfg.Model.SourceLanguage.Code, "Source language code")
	fs.StringVar(&cfg.Model.TargetLanguage.Code, "tl", cfg.Model.TargetLanguage.Code, "Target language code")
	fs.StringVar(&cfg.HistoryPath, "history", cfg.HistoryPath, "History file path")
	fs.StringVar(&cfg.LogPath, "log-file", cfg.LogPath, "Log file path")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Enable verbose logging")

	fs.BoolVar(&opts.plain, "plain", false, "Use the line-based interface instead of the TUI")
	fs.StringVar(&opts.query, "q", "", "Run one index search and exit")
	fs.StringVar(&opts.nnQuery, "nn", "", "Run one neural-net search and exit")
	fs.BoolVar(&opts.clearIndex, "clear-index", false, "Clear the server's tensor index and exit")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func pickMode(opts options, tty bool) runMode {
	switch {
	case opts.query != "" || opts.nnQuery != "" || opts.clearIndex:
		return modeOneShot
	case opts.plain || !tty:
		return modePlain
	default:
		return modeTUI
	}
}

func loadHistory(historyMgr *history.Manager, v *view.View, display *ui.EnhancedDisplay, log zerolog.Logger) {
	if err := historyMgr.Load(); err != nil {
		display.PrintWarning(fmt.Sprintf("Failed to load history: %v", err))
		log.Warn().Err(err).Msg("Failed to load history")
		v.Attach()
		return
	}
	if historyMgr.RestoreInto(v) {
		log.Debug().Str("query", v.Result().Query).Msg("Restored previous result")
	}
}

// runOneShot performs the requested operations once and prints the result
func runOneShot(ctx context.Context, cfg *config.Config, opts options, v *view.View, display *ui.EnhancedDisplay) int {
	if opts.clearIndex {
		display.PrintSearchActivity(corpus.ClearIndexPath)
		if err := v.ClearIndex(ctx); err != nil {
			display.PrintError(err)
			return 1
		}
		display.PrintSuccess("Index cleared")
	}

	if opts.query != "" {
		v.SetQuery(opts.query)
		start := time.Now()
		if err := v.SubmitIndexQuery(ctx); err != nil {
			display.PrintError(err)
			return 1
		}
		display.PrintResult(v, time.Since(start))
	}

	if opts.nnQuery != "" {
		if err := cfg.ValidateModel(); err != nil {
			display.PrintError(err)
			return 1
		}
		v.SetNeuralNetQuery(opts.nnQuery)
		start := time.Now()
		if err := v.SubmitNeuralNetQuery(ctx); err != nil {
			display.PrintError(err)
			return 1
		}
		display.PrintResult(v, time.Since(start))
	}

	return 0
}

// runPlain is the line-based search loop
func runPlain(ctx context.Context, cfg *config.Config, client *corpus.Client, v *view.View, historyMgr *history.Manager, display *ui.EnhancedDisplay, input *terminal.Reader) int {
	display.PrintWelcome(cfg.ServerURL, cfg.Model.ID)

	if err := client.HealthCheck(ctx); err != nil {
		display.PrintWarning(fmt.Sprintf("Server check failed: %v", err))
	}

	if v.DisplayResult() {
		display.PrintInfo("Previous result:")
		display.PrintResult(v, 0)
	}

	for ctx.Err() == nil {
		display.PrintPrompt()
		line, err := input.ReadLine()
		if err != nil {
			break
		}

		cmd := terminal.ParseCommand(line)
		switch cmd.Name {
		case "exit", "quit":
			display.PrintGoodbye()
			return 0
		case "refresh":
			v.Refresh()
			record(historyMgr, history.Entry{Kind: history.KindReset}, display)
			display.PrintInfo("Result cleared")
			continue
		case "history":
			display.PrintHistory(historyMgr.RecentEntries(20))
			continue
		case "clear-index":
			display.PrintSearchActivity(corpus.ClearIndexPath)
			if err := v.ClearIndex(ctx); err != nil {
				display.PrintError(err)
				continue
			}
			display.PrintSuccess("Index cleared")
			continue
		case "nn":
			if err := cfg.ValidateModel(); err != nil {
				display.PrintError(err)
				continue
			}
			if cmd.Arg == "" {
				continue
			}
			v.SetNeuralNetQuery(cmd.Arg)
			search(ctx, v, historyMgr, display, view.KindNeuralNet)
			continue
		case "":
		default:
			display.PrintWarning(fmt.Sprintf("Unknown command /%s", cmd.Name))
			continue
		}

		if cmd.Arg == "" {
			continue
		}
		v.SetQuery(cmd.Arg)
		search(ctx, v, historyMgr, display, view.KindIndex)
	}

	display.PrintGoodbye()
	return 0
}

// search submits the current query of the given kind and prints the outcome
func search(ctx context.Context, v *view.View, historyMgr *history.Manager, display *ui.EnhancedDisplay, kind view.Kind) {
	start := time.Now()
	var err error
	if kind == view.KindNeuralNet {
		display.PrintSearchActivity(corpus.NeuralNetSearchURL(v.NeuralNetQuery(), v.Model()))
		err = v.SubmitNeuralNetQuery(ctx)
	} else {
		display.PrintSearchActivity(corpus.IndexSearchURL(v.Query()))
		err = v.SubmitIndexQuery(ctx)
	}

	ticket := view.Ticket{Kind: kind, URL: v.URL()}
	if kind == view.KindNeuralNet {
		ticket.Query = v.NeuralNetQuery()
	} else {
		ticket.Query = v.Query()
	}

	if err != nil {
		record(historyMgr, history.EntryFor(ticket, nil, err), display)
		display.PrintError(err)
		return
	}

	var resp corpus.Response
	if r := v.Result(); r != nil {
		resp = r.Response
	}
	record(historyMgr, history.EntryFor(ticket, resp, nil), display)
	display.PrintResult(v, time.Since(start))
}

func record(historyMgr *history.Manager, e history.Entry, display *ui.EnhancedDisplay) {
	if err := historyMgr.AddEntry(e); err != nil {
		display.PrintWarning(fmt.Sprintf("Failed to save history: %v", err))
	}
}
