// Command miccheck records a short clip from the default microphone and
// plays it back.
//
//	miccheck [-debug] [-config path]          interactive TUI
//	miccheck record [-duration seconds]       record one clip
//	miccheck play                             play the last clip
//	miccheck device                           show the default input device
//	miccheck config                           write the default config if missing
//	miccheck delete                           remove the last clip
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Danondso/miccheck/internal/chime"
	"github.com/Danondso/miccheck/internal/config"
	"github.com/Danondso/miccheck/internal/device"
	"github.com/Danondso/miccheck/internal/orchestrator"
	"github.com/Danondso/miccheck/internal/player"
	"github.com/Danondso/miccheck/internal/tui"
)

func main() {
	os.Exit(run())
}

func run() int {
	debug := flag.Bool("debug", false, "enable debug logging to stderr")
	cfgPath := flag.String("config", config.DefaultPath(), "path to config file")
	flag.Parse()

	// Set up debug logger
	var dbg *log.Logger
	if *debug {
		dbg = log.New(os.Stderr, "[DEBUG] ", log.Ltime|log.Lmicroseconds)
	} else {
		dbg = log.New(io.Discard, "", 0)
	}

	// Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	tui.RegisterCustomThemes(cfg.CustomThemes)

	// Initialize PortAudio for device lookup (Linux suppresses ALSA/JACK stderr noise)
	if err := device.Init(); err != nil {
		dbg.Printf("portaudio init: %v", err)
	} else {
		defer func() { _ = device.Terminate() }()
		dbg.Printf("portaudio initialized")
	}

	orch := newOrchestrator(cfg, dbg, *debug)

	switch flag.Arg(0) {
	case "record":
		return runRecord(orch, flag.Args()[1:])
	case "play":
		return runPlay(orch)
	case "device":
		return runDevice()
	case "config":
		return runConfig(*cfgPath)
	case "delete":
		if err := orch.DeleteRecording(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("Recording deleted")
		return 0
	case "":
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want record, play, device, config or delete)\n", flag.Arg(0))
		return 2
	}

	// Create chime player
	chimePlayer, err := chime.New(cfg.Audio.ChimeSuccess, cfg.Audio.ChimeFailure, cfg.Audio.ChimeEnabled, dbg)
	if err != nil {
		log.Fatalf("create chime player: %v", err)
	}

	// Create TUI model and program
	model := tui.NewModel(cfg, orch, chimePlayer, dbg, *debug)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// When debug is enabled, redirect logger output into the TUI debug panel
	if *debug {
		dbg.SetOutput(tui.NewLogWriter(p))
	}

	// Run TUI
	if _, err := p.Run(); err != nil {
		log.Fatalf("TUI error: %v", err)
	}

	// Clean shutdown
	_ = orch.Stop()
	return 0
}

// newOrchestrator wires the host to the recorder. A recorder that cannot be
// located is not fatal here: device lookup and playback still work, and
// recording reports the start failure.
func newOrchestrator(cfg *config.Config, dbg *log.Logger, debug bool) *orchestrator.Orchestrator {
	bin, err := orchestrator.ResolveBinary(cfg.Audio.RecorderPath)
	if err != nil {
		dbg.Printf("recorder lookup: %v", err)
		bin = orchestrator.RecorderBinary
	}
	dbg.Printf("recorder binary: %s", bin)

	return &orchestrator.Orchestrator{
		BinaryPath: bin,
		OutputPath: orchestrator.ArtifactPath(cfg.DataDir()),
		Duration:   cfg.Audio.DurationSec,
		Logger:     dbg,
		Debug:      debug,
		Player:     player.New(cfg.Audio.Player, cfg.Audio.PlayCommand, cfg.Audio.Volume, dbg),
		DeviceName: device.Name,
	}
}

func runRecord(orch *orchestrator.Orchestrator, args []string) int {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	duration := fs.Float64("duration", orch.DefaultDuration(), "clip length in seconds")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Preparing %gs recording...\n", *duration)
	path, err := orch.Record(ctx, *duration, func() {
		fmt.Println("Recording... speak now")
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Saved %s\n", path)
	return 0
}

func runPlay(orch *orchestrator.Orchestrator) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		_ = orch.Stop()
	}()

	fmt.Printf("Playing %s\n", orch.RecordingPath())
	if err := orch.Play(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runDevice() int {
	info := device.Describe(context.Background())
	fmt.Printf("Input device: %s\n", info.Name)
	if !info.Available {
		fmt.Println("Status:       unavailable")
		return 1
	}
	fmt.Printf("Status:       available\n")
	fmt.Printf("Native rate:  %.0f Hz\n", info.SampleRate)
	fmt.Printf("Channels:     %d\n", info.Channels)
	return 0
}

// runConfig writes a default config file at path unless one exists.
func runConfig(path string) int {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists: %s\n", path)
		return 0
	}
	if err := config.Save(path, config.Default()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: write config: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote default config to %s\n", path)
	return 0
}
