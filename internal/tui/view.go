package tui

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Panel geometry. The border takes one column per side and the padding
// two, and lipgloss Width() excludes the border.
const (
	panelWidth         = 80
	panelWidthForStyle = panelWidth - 2
	panelContentWidth  = panelWidth - 6
)

// View renders the TUI.
func (m Model) View() string {
	var b strings.Builder

	// Title, centered with color bars extending to panel edges
	titleText := "  MIC CHECK  "
	barTotal := panelContentWidth - len(titleText)
	barLeft := barTotal / 2
	barRight := barTotal - barLeft
	title := strings.Repeat("▓", barLeft) + titleText + strings.Repeat("▓", barRight)
	b.WriteString(st.title.Render(title))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	b.WriteString(st.label.Render("Status:  "))
	b.WriteString(m.renderBadge())
	if m.State == StateRecording || m.State == StatePlaying {
		b.WriteString(st.body.Render("  "))
		b.WriteString(m.renderProgress())
	}
	b.WriteString("\n\n")

	b.WriteString(st.label.Render("Last recording:"))
	b.WriteString("\n")
	b.WriteString(m.renderRecording())
	b.WriteString("\n\n")

	b.WriteString(st.help.Render(m.helpText()))
	b.WriteString("\n")
	if m.Notice != "" {
		b.WriteString(st.detail.Render(m.Notice))
	} else {
		b.WriteString(st.muted.Render("Press q to quit"))
	}

	// Debug sub-panel (inside main panel)
	if m.DebugMode || len(m.DebugEntries) > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.renderDebugPanel())
	}

	return st.panel.Width(panelWidthForStyle).Render(b.String())
}

func (m Model) helpText() string {
	switch m.State {
	case StatePreparing, StateRecording:
		return "Recording in progress..."
	case StatePlaying:
		return "enter/s stop  t theme"
	case StateReady:
		return "enter/p play  r record again  d delete  c copy path  t theme  f refresh"
	default:
		return "enter/r record  t theme  f refresh"
	}
}

func (m Model) renderRecording() string {
	if m.State == StatePreparing || m.State == StateRecording || !m.Host.HasRecording() {
		return st.body.Render("(none yet)")
	}
	var b strings.Builder
	b.WriteString(st.body.Render(m.Host.RecordingPath()))
	if m.Level == nil {
		return b.String()
	}
	lvl := *m.Level
	b.WriteString("\n")
	b.WriteString(st.detail.Render(fmt.Sprintf("%.1fs  peak %s  rms %s",
		lvl.Duration.Seconds(), formatDBFS(lvl.PeakDBFS()), formatDBFS(lvl.RMSDBFS()))))
	if lvl.Silent() {
		b.WriteString("\n")
		b.WriteString(st.warning.Render("No signal detected. Check that the microphone is not muted."))
	}
	return b.String()
}

func formatDBFS(v float64) string {
	if math.IsInf(v, -1) {
		return "-inf dBFS"
	}
	return fmt.Sprintf("%.1f dBFS", v)
}

const debugPanelMaxLines = 5

// Debug table column widths. Row content must fit within panelContentWidth.
const (
	colTimeWidth     = 15
	colCategoryWidth = 10
	colSepWidth      = 3 // " │ "
	colMsgWidth      = panelContentWidth - colTimeWidth - colCategoryWidth - colSepWidth*2
)

func (m Model) renderDebugPanel() string {
	sep := st.muted.Render(" │ ")
	rule := st.muted.Render(strings.Repeat("─", panelContentWidth))

	var db strings.Builder

	// Title + divider
	db.WriteString(st.debugHeader.Render("Debug"))
	db.WriteString("\n")
	db.WriteString(rule)
	db.WriteString("\n")

	// Header row
	db.WriteString(
		st.debugHeader.Width(colTimeWidth).Render("TIME") +
			sep +
			st.debugHeader.Width(colCategoryWidth).Render("TYPE") +
			sep +
			st.debugHeader.Width(colMsgWidth).Render("MESSAGE"))
	db.WriteString("\n")
	db.WriteString(rule)

	// Data rows
	entries := m.DebugEntries
	if len(entries) > debugPanelMaxLines {
		entries = entries[len(entries)-debugPanelMaxLines:]
	}
	for _, entry := range entries {
		timeStr := entry.Time
		if len(timeStr) > colTimeWidth {
			timeStr = timeStr[:colTimeWidth]
		}

		cat := entry.Category
		if len(cat) > colCategoryWidth {
			cat = cat[:colCategoryWidth]
		}

		msg := entry.Message
		if len(msg) > colMsgWidth {
			msg = msg[:colMsgWidth-3] + "..."
		}

		db.WriteString("\n")
		db.WriteString(
			st.muted.Width(colTimeWidth).Render(timeStr) +
				sep +
				st.debugCategory.Width(colCategoryWidth).Render(cat) +
				sep +
				st.muted.Width(colMsgWidth).Render(msg))
	}

	return db.String()
}

const progressWidth = 20

// renderProgress draws elapsed time against the clip length.
func (m Model) renderProgress() string {
	total := time.Duration(m.Duration * float64(time.Second))
	ratio := 0.0
	if total > 0 {
		ratio = float64(m.Elapsed) / float64(total)
	}
	filled := int(math.Round(ratio * float64(progressWidth)))
	if filled > progressWidth {
		filled = progressWidth
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressWidth-filled)
	label := fmt.Sprintf("  %.1fs / %gs", m.Elapsed.Seconds(), m.Duration)
	return st.progress.Render(bar) + st.muted.Render(label)
}

func (m Model) renderStatusBar() string {
	clip := st.muted.Render(fmt.Sprintf("  Clip: %gs  Theme: %s", m.Duration, m.ThemeName))
	if !m.deviceChecked {
		return st.muted.Render("Mic: ...") + clip
	}
	var mic string
	if m.DeviceName != "" && m.DeviceName != unknownDevice {
		mic = st.micOK.Render("✓") + st.muted.Render(" ("+m.DeviceName+")")
	} else {
		mic = st.micBad.Render("✗") + st.muted.Render(" ("+unknownDevice+")")
	}
	return st.muted.Render("Mic: ") + mic + clip
}

// unknownDevice matches the lookup fallback name.
const unknownDevice = "Unknown Device"

var badgeLabels = map[State]string{
	StateIdle:      "● Idle",
	StatePreparing: "● Preparing...",
	StateRecording: "● Recording...",
	StateReady:     "● Ready",
	StatePlaying:   "● Playing...",
}

func (m Model) renderBadge() string {
	style := st.badges[m.State]
	if m.State != StateError {
		return style.Render(badgeLabels[m.State])
	}
	errText := m.LastError
	if len(errText) > 60 {
		errText = errText[:60] + "..."
	}
	return style.Render("● Error: " + errText)
}
