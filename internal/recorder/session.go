package recorder

import "fmt"

// Session tracks the recorder's progress through a single invocation.
// Each flag can only move from false to true, and only in order; the first
// terminal error sticks.
type Session struct {
	hardwareReady   bool
	captureStarted  bool
	captureFinished bool
	terminalErr     error
}

// MarkHardwareReady records that the device has been prepared.
func (s *Session) MarkHardwareReady() error {
	return s.advance(&s.hardwareReady, true, "hardware ready")
}

// MarkCaptureStarted records that capture is live (after the settle delay).
func (s *Session) MarkCaptureStarted() error {
	return s.advance(&s.captureStarted, s.hardwareReady, "capture started")
}

// MarkCaptureFinished records that the completion callback has fired.
func (s *Session) MarkCaptureFinished() error {
	return s.advance(&s.captureFinished, s.captureStarted, "capture finished")
}

func (s *Session) advance(flag *bool, prereq bool, name string) error {
	if s.terminalErr != nil {
		return fmt.Errorf("session: %s after failure: %w", name, s.terminalErr)
	}
	if *flag {
		return fmt.Errorf("session: %s already set", name)
	}
	if !prereq {
		return fmt.Errorf("session: %s out of order", name)
	}
	*flag = true
	return nil
}

// Fail records the terminal error. Only the first call has any effect; the
// recorded error is returned either way.
func (s *Session) Fail(err error) error {
	if s.terminalErr == nil {
		s.terminalErr = err
	}
	return s.terminalErr
}

// Err returns the terminal error, if any.
func (s *Session) Err() error { return s.terminalErr }

func (s *Session) HardwareReady() bool   { return s.hardwareReady }
func (s *Session) CaptureStarted() bool  { return s.captureStarted }
func (s *Session) CaptureFinished() bool { return s.captureFinished }
