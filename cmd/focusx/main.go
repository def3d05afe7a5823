// Command focusx replays recorded pick traces and runs an interactive gaze demo.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/comalice/focusx/internal/config"
	"github.com/comalice/focusx/internal/production"
	"github.com/comalice/focusx/internal/report"
	"github.com/comalice/focusx/internal/scene"
	"github.com/comalice/focusx/internal/script"
	"github.com/comalice/focusx/internal/trace"
	"github.com/comalice/focusx/internal/tui"
)

// Version information (set via ldflags during build).
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type globals struct {
	configPath string
	logLevel   string
	logFormat  string
}

func run(args []string, stdout, stderr io.Writer) int {
	var g globals
	fs := flag.NewFlagSet("focusx", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&g.configPath, "config", "", "Path to configuration file (default $FOCUSX_CONFIG or ~/.config/focusx/config.toml)")
	fs.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&g.logFormat, "log-format", "", "Log format (text, json)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "focusx - gaze focus dispatcher tools\n\n")
		fmt.Fprintf(stderr, "Usage: focusx [options] <command> [command options]\n\n")
		fmt.Fprintf(stderr, "Commands:\n")
		fmt.Fprintf(stderr, "  replay   Replay a YAML pick trace and print a report\n")
		fmt.Fprintf(stderr, "  demo     Interactive terminal demo (mouse = gaze)\n")
		fmt.Fprintf(stderr, "  config   Print the effective configuration as TOML\n")
		fmt.Fprintf(stderr, "  version  Print the version\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd == "version" {
		fmt.Fprintf(stdout, "focusx %s\n", version)
		return 0
	}

	cfg, err := config.Load(g.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "replay":
		return runReplay(ctx, cfg, rest, stdout, stderr)
	case "demo":
		return runDemo(ctx, cfg, rest, stderr)
	case "config":
		data, err := config.Encode(cfg)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		stdout.Write(data)
		return 0
	}
	fmt.Fprintf(stderr, "Error: unknown command %q\n\n", cmd)
	fs.Usage()
	return 2
}

func runReplay(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dot := fs.Bool("dot", false, "Print the focus chart as Graphviz DOT instead of the report")
	snapDir := fs.String("snapshot", "", "Save the final snapshot to this directory")
	snapFormat := fs.String("format", "json", "Snapshot format (json, yaml)")
	timeline := fs.Bool("timeline", false, "Include every event in the report")
	sustained := fs.Bool("sustained", false, "Include sustained events in the timeline")
	events := fs.Bool("events", false, "Log every focus event")
	scriptPath := fs.String("script", "", "Lua script supplying callbacks")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: focusx replay [options] trace.yaml\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)
	log := config.NewLogger(cfg.Log, stderr)

	tr, err := trace.Load(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	threshold := cfg.Focus.DwellThreshold
	opts := trace.Options{Logger: log, SnapshotID: id, Threshold: &threshold}
	if *events {
		opts.Publisher = production.NewLogPublisher(log)
	}
	if *scriptPath != "" {
		beh, err := script.LoadFile(*scriptPath, script.WithLogger(log))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer beh.Close()
		opts.Callbacks = beh.Callbacks
		opts.OnFrame = beh.SetFrame
	}

	res, err := trace.Replay(ctx, tr, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *snapDir != "" {
		p, err := production.NewPersister(*snapFormat, *snapDir)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if err := p.Save(ctx, res.Snapshot); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		log.Info("snapshot saved", "dir", *snapDir, "id", id, "format", *snapFormat)
	}

	if *dot {
		v := &production.DOTVisualizer{}
		fmt.Fprint(stdout, v.ExportDispatcher(res.Dispatcher))
		return 0
	}
	fmt.Fprintln(stdout, report.Render(filepath.Base(path), res.Events, res.Snapshot,
		report.Options{Timeline: *timeline, Sustained: *sustained}))
	return 0
}

func runDemo(ctx context.Context, cfg config.Config, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	scriptPath := fs.String("script", cfg.Demo.Script, "Lua script supplying panel callbacks")
	logFile := fs.String("log-file", "", "Write logs to this file (the screen is in use)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(stderr, "Error: open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		log = config.NewLogger(cfg.Log, f)
	}

	opts := tui.Options{Config: cfg, Logger: log}
	if *scriptPath != "" {
		beh, err := script.LoadFile(*scriptPath, script.WithLogger(log))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer beh.Close()
		opts.Behavior = beh
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := tui.New(screen, scene.Demo(), opts).Run(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
