// Command mic-recorder captures one clip from the default input device.
//
//	mic-recorder <output-path> <duration-seconds>
//
// It prints RECORDING once capture is live and OK after the file is written.
// Failures print "ERROR: <message>" to stderr and exit 1, or 2 when
// microphone access was denied.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Danondso/miccheck/internal/device"
	"github.com/Danondso/miccheck/internal/failure"
	"github.com/Danondso/miccheck/internal/recorder"
)

const debugEnv = "MIC_RECORDER_DEBUG"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var dbg *log.Logger
	if os.Getenv(debugEnv) == "1" {
		dbg = log.New(os.Stderr, "[RECORDER] ", log.Ltime|log.Lmicroseconds)
	} else {
		dbg = log.New(io.Discard, "", 0)
	}

	req, err := recorder.ParseArgs(args)
	if err != nil {
		return report(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PortAudio (Linux suppresses ALSA/JACK stderr noise)
	if err := device.Init(); err != nil {
		return report(failure.Wrap(failure.KindHardwarePrepareFailed, "Failed to prepare recording", err))
	}
	defer func() { _ = device.Terminate() }()
	dbg.Printf("portaudio initialized")

	runner := &recorder.Runner{
		Open: func() (recorder.Device, error) {
			return recorder.NewPortAudioDevice(dbg)
		},
		Permissions: recorder.SystemPermissions{},
		Stdout:      os.Stdout,
		Logger:      dbg,
	}
	if err := runner.Run(ctx, req); err != nil {
		return report(err)
	}
	return 0
}

func report(err error) int {
	fmt.Fprintf(os.Stderr, "%s %s\n", recorder.ErrorTag, err)
	return failure.ExitCode(err)
}
