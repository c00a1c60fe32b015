package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Danondso/miccheck/internal/failure"
)

// stopGrace is how long a terminated player may take to exit before it is killed.
const stopGrace = 2 * time.Second

// Command implements Player by shelling out to an external command. The
// command string may contain {input}, replaced with the quoted file path,
// and {volume}, replaced with the volume as a decimal in [0, 1].
type Command struct {
	command string
	volume  float64
	logger  *log.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stopped bool
}

// NewCommand creates a command-based player.
func NewCommand(command string, volume float64, logger *log.Logger) *Command {
	return &Command{
		command: command,
		volume:  ClampVolume(volume),
		logger:  logger,
	}
}

// Play runs the command for path and waits for it to exit. A missing file
// fails before anything is spawned.
func (c *Command) Play(ctx context.Context, path string) error {
	if err := checkFile(path); err != nil {
		return err
	}

	cmdStr := expand(c.command, path, c.volume)
	if strings.TrimSpace(cmdStr) == "" {
		return failure.New(failure.KindPlaybackFailed, "No playback command configured")
	}

	c.mu.Lock()
	if c.cmd != nil {
		c.mu.Unlock()
		return failure.New(failure.KindPlaybackFailed, "Playback already in progress")
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", cmdStr)
	// Own process group so Stop reaches the player, not just the shell.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = stopGrace
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.logf("playback command: %s", cmdStr)
	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		return failure.Wrap(failure.KindPlaybackFailed, "Failed to start playback", err)
	}
	c.cmd = cmd
	c.stopped = false
	c.mu.Unlock()

	start := time.Now()
	err := cmd.Wait()

	c.mu.Lock()
	stopped := c.stopped
	c.cmd = nil
	c.stopped = false
	c.mu.Unlock()

	c.logf("playback finished: latency=%s stopped=%v err=%v", time.Since(start).Round(time.Millisecond), stopped, err)

	switch {
	case err == nil, stopped:
		return nil
	case ctx.Err() != nil:
		return failure.Wrap(failure.KindPlaybackFailed, "Playback interrupted", ctx.Err())
	}
	msg := "Playback failed"
	if detail := lastLine(stderr.String()); detail != "" {
		msg = fmt.Sprintf("Playback failed: %s", detail)
	}
	return failure.Wrap(failure.KindPlaybackFailed, msg, err)
}

// Stop terminates the running player, if any. Only a termination requested
// here is treated as a clean finish by Play.
func (c *Command) Stop() error {
	c.mu.Lock()
	if c.cmd == nil || c.cmd.Process == nil {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	pid := c.cmd.Process.Pid
	c.mu.Unlock()

	c.logf("playback stop: pid %d", pid)
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		c.logf("playback stop signal error (may be already stopped): %v", err)
	}
	return nil
}

// Playing reports whether a player process is running.
func (c *Command) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cmd != nil
}

func (c *Command) logf(format string, v ...any) {
	if c.logger != nil {
		c.logger.Printf(format, v...)
	}
}

func expand(command, path string, volume float64) string {
	r := strings.NewReplacer(
		"{input}", shellQuote(path),
		"{volume}", strconv.FormatFloat(volume, 'f', 2, 64),
	)
	return r.Replace(command)
}

// shellQuote wraps s in single quotes for sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
