package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/phuslu/log"
	"golang.org/x/term"

	"github.com/altinukshini/bk-tui/internal/api"
	"github.com/altinukshini/bk-tui/internal/cache"
	"github.com/altinukshini/bk-tui/internal/config"
	"github.com/altinukshini/bk-tui/internal/logs"
	"github.com/altinukshini/bk-tui/internal/timefmt"
	"github.com/altinukshini/bk-tui/internal/tui"
	"github.com/altinukshini/bk-tui/internal/ui"
)

var version = "dev"

// logCacheEntries bounds how many processed job logs stay in memory.
const logCacheEntries = 64

func init() {
	if version != "dev" {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
}

func main() {
	org := flag.String("org", "", "Buildkite organization slug")
	pipeline := flag.String("pipeline", "", "Open this pipeline's builds on start")
	configPath := flag.String("config", "", "Config file (default: user config dir)")
	poll := flag.Duration("poll", 0, "Refresh interval for idle views")
	utc := flag.Bool("utc", false, "Show dates in UTC")
	logFile := flag.String("log-file", "", "Write diagnostics to this file")
	logLevel := flag.String("log-level", "", "trace, debug, info, warn or error")
	logsInput := flag.String("logs", "", "Classify a raw job log FILE (- for stdin) and exit")
	writeConfig := flag.Bool("write-config", false, "Save the resolved config file and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("bk-tui", version)
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *org != "" {
		cfg.Org = *org
	}
	if *pipeline != "" {
		cfg.Pipeline = *pipeline
	}
	if *poll > 0 {
		cfg.PollInterval = config.Duration{Duration: *poll}
	}
	if *utc {
		cfg.UTC = true
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	setupLogger(cfg, *logsInput != "")

	if *logsInput != "" {
		if err := printLogs(*logsInput, os.Stdout, cfg.UTC); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Set org in %s, BUILDKITE_ORG or -org\n", path)
		os.Exit(1)
	}

	if *writeConfig {
		if err := config.Save(path, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", path)
		return
	}

	client, err := api.NewClient(cfg.BaseURL, cfg.Org, api.WithToken(cfg.Token))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("org", cfg.Org).Str("pipeline", cfg.Pipeline).Str("version", version).Msg("starting bk-tui")

	app := tui.NewApp(cfg, client, cache.NewLogCache(logCacheEntries), timefmt.SystemClock)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogger points the default logger at the configured file. Without one,
// the TUI discards diagnostics since it owns the terminal, while -logs mode
// reports warnings on stderr.
func setupLogger(cfg config.Config, cli bool) {
	level := log.ParseLevel(cfg.LogLevel)
	switch {
	case cfg.LogFile != "":
		log.DefaultLogger = log.Logger{
			Level: level,
			Writer: &log.FileWriter{
				Filename:   cfg.LogFile,
				FileMode:   0o600,
				MaxSize:    10 * 1024 * 1024,
				MaxBackups: 3,
				LocalTime:  !cfg.UTC,
			},
		}
	case cli:
		log.DefaultLogger = log.Logger{
			Level:  max(level, log.WarnLevel),
			Writer: &log.ConsoleWriter{Writer: os.Stderr},
		}
	default:
		log.DefaultLogger = log.Logger{
			Level:  level,
			Writer: log.IOWriter{Writer: io.Discard},
		}
	}
}

// printLogs classifies a raw job log and writes one line per entry. Colors
// are used only when out is a terminal.
func printLogs(input string, out *os.File, utc bool) error {
	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		r = f
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}

	started := time.Now()
	lines := logs.ProcessContent(string(content))
	log.Debug().Int("lines", len(lines)).Dur("took", time.Since(started)).Msg("processed log")

	color := term.IsTerminal(int(out.Fd()))
	w := bufio.NewWriter(out)
	for _, l := range lines {
		text := l.Content
		if l.Timestamp != "" {
			text = l.Timestamp + " " + text
		}
		if color {
			text = ui.LogStyle(l.Type).Render(text)
		} else {
			text = fmt.Sprintf("%-7s %s", l.Type, text)
		}
		fmt.Fprintln(w, text)
	}
	return w.Flush()
}
