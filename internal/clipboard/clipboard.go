// Package clipboard copies text to the desktop clipboard.
package clipboard

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	atclip "github.com/atotto/clipboard"
)

// wlCopy is the Wayland clipboard tool.
var wlCopy = "wl-copy"

const copyTimeout = 5 * time.Second

// isWayland returns true if the session is running under Wayland.
func isWayland() bool {
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

// Copy writes text to the clipboard. Under Wayland it uses wl-copy, which
// X11 tools cannot reach; everywhere else (X11 via xclip/xsel, macOS via
// pbcopy) it goes through atotto/clipboard.
func Copy(text string) error {
	if isWayland() {
		err := copyWayland(text)
		if err == nil || atclip.Unsupported {
			return err
		}
	}
	if atclip.Unsupported {
		return fmt.Errorf("no clipboard utility found (install xclip, xsel or wl-clipboard)")
	}
	if err := atclip.WriteAll(text); err != nil {
		return fmt.Errorf("write to clipboard: %w", err)
	}
	return nil
}

func copyWayland(text string) error {
	if _, err := exec.LookPath(wlCopy); err != nil {
		return fmt.Errorf("wl-copy not found: %w (install with: apt install wl-clipboard)", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), copyTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, wlCopy)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wl-copy: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
