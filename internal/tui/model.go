package tui

import (
	"context"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Danondso/miccheck/internal/chime"
	"github.com/Danondso/miccheck/internal/clipboard"
	"github.com/Danondso/miccheck/internal/config"
	"github.com/Danondso/miccheck/internal/recorder"
)

// Host is the recording and playback surface the TUI drives.
type Host interface {
	InputDevice(ctx context.Context) string
	Record(ctx context.Context, duration float64, onStarted func()) (string, error)
	Play(ctx context.Context) error
	Stop() error
	HasRecording() bool
	DeleteRecording() error
	DefaultDuration() float64
	RecordingPath() string
}

// State represents the application state.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StateRecording
	StateReady
	StatePlaying
	StateError
)

// Messages sent through the Bubble Tea update loop.

// RecordingStartedMsg is sent once the recorder reports capture is live.
type RecordingStartedMsg struct{}

// RecordingDoneMsg carries a finished recording and its measured level.
type RecordingDoneMsg struct {
	Path     string
	Level    recorder.Level
	LevelErr error
}

// RecordingFailedMsg carries a failed recording attempt.
type RecordingFailedMsg struct {
	Err error
}

// PlaybackDoneMsg is sent when playback ends; Err is nil after Stop.
type PlaybackDoneMsg struct {
	Err error
}

// DeviceMsg carries the result of an input device lookup. Manual lookups
// do not reschedule the periodic check.
type DeviceMsg struct {
	Name   string
	Manual bool
}

type errorTimeoutMsg struct{}

type elapsedTickMsg struct{}

type deviceTickMsg struct{}

// DebugEntry is a structured debug log entry.
type DebugEntry struct {
	Time     string // e.g. "11:27:53"
	Category string // e.g. "record", "playback", "device"
	Message  string // the log message
}

// DebugLogMsg carries a structured debug log entry into the TUI.
type DebugLogMsg struct {
	Entry DebugEntry
}

const maxDebugLines = 50

// Model is the Bubble Tea model for the mic check TUI.
type Model struct {
	State        State
	Host         Host
	Chime        *chime.Player
	Config       *config.Config
	Logger       *log.Logger
	DebugMode    bool
	DebugEntries []DebugEntry

	Duration      float64
	DeviceName    string
	deviceChecked bool

	LastError string
	Notice    string
	Level     *recorder.Level
	Elapsed   time.Duration
	startedAt time.Time
	events    chan tea.Msg

	ThemeName string

	// Analyze and CopyToClipboard default to recorder.Analyze and clipboard.Copy.
	Analyze         func(path string) (recorder.Level, error)
	CopyToClipboard func(text string) error
}

// NewModel creates a new TUI model.
func NewModel(cfg *config.Config, host Host, c *chime.Player, logger *log.Logger, debug bool) Model {
	theme := LoadTheme(cfg.Theme)
	applyTheme(theme)
	m := Model{
		State:           StateIdle,
		Host:            host,
		Chime:           c,
		Config:          cfg,
		Logger:          logger,
		DebugMode:       debug,
		Duration:        host.DefaultDuration(),
		ThemeName:       strings.ToLower(theme.Name),
		Analyze:         recorder.Analyze,
		CopyToClipboard: clipboard.Copy,
	}
	if host.HasRecording() {
		m.State = StateReady
		if lvl, err := m.Analyze(host.RecordingPath()); err == nil {
			m.Level = &lvl
		}
	}
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return m.deviceCheckCmd(false)
}

// busy reports whether a recording or playback is in flight.
func (m Model) busy() bool {
	return m.State == StatePreparing || m.State == StateRecording || m.State == StatePlaying
}

// restingState is where the model returns after an action or error clears.
func (m Model) restingState() State {
	if m.Host.HasRecording() {
		return StateReady
	}
	return StateIdle
}

// Update handles messages and transitions state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case RecordingStartedMsg:
		if m.State != StatePreparing {
			return m, nil
		}
		m.State = StateRecording
		m.startedAt = time.Now()
		m.Elapsed = 0
		return m, elapsedTickCmd()

	case elapsedTickMsg:
		if m.State == StateRecording || m.State == StatePlaying {
			m.Elapsed = time.Since(m.startedAt)
			return m, elapsedTickCmd()
		}
		return m, nil

	case RecordingDoneMsg:
		m.State = StateReady
		m.events = nil
		m.Elapsed = 0
		if msg.LevelErr != nil {
			m.Logger.Printf("record level analysis failed: %v", msg.LevelErr)
			m.Level = nil
		} else {
			lvl := msg.Level
			m.Level = &lvl
		}
		m.Logger.Printf("record saved: %s", msg.Path)
		if m.Chime != nil {
			m.Chime.PlaySuccess()
		}
		return m, nil

	case RecordingFailedMsg:
		m.events = nil
		m.Elapsed = 0
		m.Level = nil
		if m.Chime != nil {
			m.Chime.PlayFailure()
		}
		return m.fail(msg.Err)

	case PlaybackDoneMsg:
		m.Elapsed = 0
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		m.State = m.restingState()
		return m, nil

	case DeviceMsg:
		m.DeviceName = msg.Name
		m.deviceChecked = true
		m.Logger.Printf("device: %s", msg.Name)
		if msg.Manual {
			return m, nil
		}
		return m, scheduleDeviceRecheck()

	case deviceTickMsg:
		return m, m.deviceCheckCmd(false)

	case errorTimeoutMsg:
		if m.State == StateError {
			m.State = m.restingState()
			m.LastError = ""
		}

	case DebugLogMsg:
		m.DebugEntries = append(m.DebugEntries, msg.Entry)
		if len(m.DebugEntries) > maxDebugLines {
			m.DebugEntries = m.DebugEntries[len(m.DebugEntries)-maxDebugLines:]
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.Notice = ""
	switch msg.String() {
	case "q", "ctrl+c":
		if m.State == StatePlaying {
			_ = m.Host.Stop()
		}
		return m, tea.Quit

	case "enter", " ":
		switch m.State {
		case StateReady:
			return m.startPlayback()
		case StatePlaying:
			return m.stopPlayback()
		case StateIdle, StateError:
			return m.startRecording()
		}

	case "r":
		if !m.busy() {
			return m.startRecording()
		}

	case "p":
		if !m.busy() && m.Host.HasRecording() {
			return m.startPlayback()
		}

	case "s", "esc":
		if m.State == StatePlaying {
			return m.stopPlayback()
		}

	case "d":
		if m.busy() {
			return m, nil
		}
		if err := m.Host.DeleteRecording(); err != nil {
			return m.fail(err)
		}
		m.Logger.Printf("record deleted: %s", m.Host.RecordingPath())
		m.Level = nil
		m.State = StateIdle
		m.Notice = "Recording deleted"

	case "c":
		if !m.Host.HasRecording() {
			m.Notice = "No recording to copy"
			return m, nil
		}
		if err := m.CopyToClipboard(m.Host.RecordingPath()); err != nil {
			m.Logger.Printf("clipboard copy failed: %v", err)
			m.Notice = "Clipboard unavailable"
			return m, nil
		}
		m.Notice = "Copied recording path"

	case "t":
		next := NextTheme(m.ThemeName)
		applyTheme(next)
		m.ThemeName = strings.ToLower(next.Name)

	case "f":
		m.deviceChecked = false
		return m, m.deviceCheckCmd(true)
	}
	return m, nil
}

func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	m.State = StateError
	m.LastError = err.Error()
	m.Logger.Printf("record error: %v", err)
	return m, scheduleErrorTimeout()
}

func (m Model) startRecording() (tea.Model, tea.Cmd) {
	m.State = StatePreparing
	m.LastError = ""
	m.Level = nil
	m.Elapsed = 0
	m.events = make(chan tea.Msg, 1)
	return m, tea.Batch(m.recordCmd(), listen(m.events))
}

// recordCmd runs one recording. The started notification travels on
// events so it can reach the update loop while Record is still blocking.
func (m Model) recordCmd() tea.Cmd {
	host, duration, analyze, events := m.Host, m.Duration, m.Analyze, m.events
	return func() tea.Msg {
		defer close(events)
		path, err := host.Record(context.Background(), duration, func() {
			select {
			case events <- RecordingStartedMsg{}:
			default:
			}
		})
		if err != nil {
			return RecordingFailedMsg{Err: err}
		}
		lvl, lerr := analyze(path)
		return RecordingDoneMsg{Path: path, Level: lvl, LevelErr: lerr}
	}
}

// listen waits for the next background event; a closed channel yields nil.
func listen(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) startPlayback() (tea.Model, tea.Cmd) {
	m.State = StatePlaying
	m.LastError = ""
	m.startedAt = time.Now()
	m.Elapsed = 0
	host := m.Host
	play := func() tea.Msg {
		return PlaybackDoneMsg{Err: host.Play(context.Background())}
	}
	return m, tea.Batch(play, elapsedTickCmd())
}

func (m Model) stopPlayback() (tea.Model, tea.Cmd) {
	host, logger := m.Host, m.Logger
	return m, func() tea.Msg {
		if err := host.Stop(); err != nil {
			logger.Printf("playback stop error: %v", err)
		}
		return nil
	}
}

func scheduleErrorTimeout() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return errorTimeoutMsg{}
	})
}

const elapsedTickInterval = 100 * time.Millisecond

func elapsedTickCmd() tea.Cmd {
	return tea.Tick(elapsedTickInterval, func(time.Time) tea.Msg {
		return elapsedTickMsg{}
	})
}

const deviceRecheckInterval = 30 * time.Second

func (m Model) deviceCheckCmd(manual bool) tea.Cmd {
	host := m.Host
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return DeviceMsg{Name: host.InputDevice(ctx), Manual: manual}
	}
}

func scheduleDeviceRecheck() tea.Cmd {
	return tea.Tick(deviceRecheckInterval, func(time.Time) tea.Msg {
		return deviceTickMsg{}
	})
}
