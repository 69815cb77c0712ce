package engine

import (
	"fmt"
	"time"

	"focustrack/internal/domain"
)

// Mode is the live countdown mode of a session.
type Mode string

const (
	ModeFocus Mode = "focus"
	ModeBreak Mode = "break"
)

// Event signals what a tick caused beyond the ordinary countdown step.
type Event int

const (
	EventNone Event = iota
	// EventBreakFinished fires when a break runs out; the machine has
	// already switched back to focus and stopped, waiting for an explicit
	// resume.
	EventBreakFinished
	// EventCompleted fires when the focus budget reaches zero. The session
	// is terminal; Result holds the final totals.
	EventCompleted
)

// Result carries a finished session's totals to reconciliation.
type Result struct {
	FocusSeconds int
	UsedBreaks   int
	BreakLog     []domain.BreakRecord
}

// Machine is the session state machine. It owns all mutable session state
// and advances only through explicit operations and an externally driven
// one-second Tick. It is not safe for concurrent use; the controller
// serializes access.
//
// The focus countdown is continuous across breaks: taking a break snapshots
// it and finishing the break restores it, so focusRemaining is monotonically
// non-increasing for the whole session. Accumulated focus is folded as the
// delta between total elapsed focus and what was folded before, which keeps
// it non-decreasing, capped at the budget, and immune to double-counting no
// matter how many breaks interleave.
type Machine struct {
	cfg   Config
	clock Clock

	mode           Mode
	running        bool
	focusRemaining int
	breakRemaining int
	savedFocus     int // focus countdown at the moment the current break began
	folded         int // focus seconds already accumulated
	remainingBreak int
	usedBreaks     int
	breakStart     time.Time // stamp of the in-progress break, zero otherwise
	breakLog       []domain.BreakRecord
	done           bool
	result         *Result
}

// NewMachine creates a fresh machine in focus mode, paused.
func NewMachine(cfg Config, clock Clock) *Machine {
	if clock == nil {
		clock = SystemClock()
	}
	return &Machine{
		cfg:            cfg,
		clock:          clock,
		mode:           ModeFocus,
		focusRemaining: cfg.FocusSeconds,
		savedFocus:     cfg.FocusSeconds,
		remainingBreak: cfg.BreakBudget,
	}
}

// Config returns the locked session configuration.
func (m *Machine) Config() Config { return m.cfg }

// Mode returns the current mode.
func (m *Machine) Mode() Mode { return m.mode }

// Running reports whether the countdown is ticking.
func (m *Machine) Running() bool { return m.running }

// Done reports whether the session has reached its terminal state.
func (m *Machine) Done() bool { return m.done }

// Remaining returns the countdown for the current mode.
func (m *Machine) Remaining() int {
	if m.mode == ModeBreak {
		return m.breakRemaining
	}
	return m.focusRemaining
}

// AccumulatedFocus returns the focus seconds consumed so far, counting
// completed folds only (the current running stint folds on the next
// transition).
func (m *Machine) AccumulatedFocus() int { return m.folded }

// RemainingBreaks returns the unspent break budget.
func (m *Machine) RemainingBreaks() int { return m.remainingBreak }

// UsedBreaks returns the number of breaks taken.
func (m *Machine) UsedBreaks() int { return m.usedBreaks }

// BreakLog returns the append-only break log.
func (m *Machine) BreakLog() []domain.BreakRecord { return m.breakLog }

// Result returns the final totals, or nil while the session is live.
func (m *Machine) Result() *Result { return m.result }

// fold moves any focus time elapsed since the last fold into the
// accumulator.
func (m *Machine) fold() {
	elapsed := m.cfg.FocusSeconds - m.focusRemaining
	if elapsed > m.folded {
		m.folded = elapsed
	}
}

// Start begins ticking in focus mode. Starting an already running machine
// is a no-op.
func (m *Machine) Start() error {
	if m.done {
		return fmt.Errorf("%w: session already completed", domain.ErrInvalidTransition)
	}
	if m.mode != ModeFocus {
		return fmt.Errorf("%w: start is only valid in focus mode", domain.ErrInvalidTransition)
	}
	m.running = true
	return nil
}

// Pause stops the focus countdown.
func (m *Machine) Pause() error {
	if m.done || m.mode != ModeFocus || !m.running {
		return fmt.Errorf("%w: pause requires a running focus countdown", domain.ErrInvalidTransition)
	}
	m.running = false
	return nil
}

// TakeBreak switches to break mode, consuming one break from the budget.
// The break countdown starts immediately.
func (m *Machine) TakeBreak() error {
	if m.done || m.mode != ModeFocus {
		return fmt.Errorf("%w: breaks can only start from focus mode", domain.ErrInvalidTransition)
	}
	if m.remainingBreak <= 0 {
		return fmt.Errorf("%w: break budget exhausted", domain.ErrInvalidTransition)
	}
	m.fold()
	m.savedFocus = m.focusRemaining
	m.remainingBreak--
	m.usedBreaks++
	m.mode = ModeBreak
	m.breakRemaining = m.cfg.BreakSeconds
	m.breakStart = m.clock.Now()
	m.running = true
	return nil
}

// SkipBreak abandons the current break immediately, logging a skipped
// record, and auto-resumes focus.
func (m *Machine) SkipBreak() error {
	if m.done || m.mode != ModeBreak {
		return fmt.Errorf("%w: no break to skip", domain.ErrInvalidTransition)
	}
	m.breakLog = append(m.breakLog, domain.BreakRecord{
		StartedAt:        m.breakStart,
		DurationSeconds:  0,
		FocusBeforeBreak: m.savedFocus,
		Kind:             domain.BreakSkipped,
	})
	m.restoreFocus(true)
	return nil
}

// PauseBreak stops the break countdown without altering any counters.
func (m *Machine) PauseBreak() error {
	if m.done || m.mode != ModeBreak || !m.running {
		return fmt.Errorf("%w: no running break to pause", domain.ErrInvalidTransition)
	}
	m.running = false
	return nil
}

// ResumeBreak restarts a paused break countdown.
func (m *Machine) ResumeBreak() error {
	if m.done || m.mode != ModeBreak || m.running {
		return fmt.Errorf("%w: no paused break to resume", domain.ErrInvalidTransition)
	}
	m.running = true
	return nil
}

// ReturnToFocus cuts the current break short, logging the elapsed break
// time as a completed record, and auto-resumes focus.
func (m *Machine) ReturnToFocus() error {
	if m.done || m.mode != ModeBreak {
		return fmt.Errorf("%w: not in break mode", domain.ErrInvalidTransition)
	}
	now := m.clock.Now()
	m.breakLog = append(m.breakLog, domain.BreakRecord{
		StartedAt:        m.breakStart,
		EndedAt:          &now,
		DurationSeconds:  m.cfg.BreakSeconds - m.breakRemaining,
		FocusBeforeBreak: m.savedFocus,
		Kind:             domain.BreakCompleted,
	})
	m.restoreFocus(true)
	return nil
}

// Tick advances the active countdown by one second. Ticks while paused or
// after completion are ignored.
func (m *Machine) Tick() Event {
	if !m.running || m.done {
		return EventNone
	}

	if m.mode == ModeFocus {
		m.focusRemaining--
		if m.focusRemaining > 0 {
			return EventNone
		}
		m.focusRemaining = 0
		m.fold()
		m.finish()
		return EventCompleted
	}

	m.breakRemaining--
	if m.breakRemaining > 0 {
		return EventNone
	}
	now := m.clock.Now()
	m.breakLog = append(m.breakLog, domain.BreakRecord{
		StartedAt:        m.breakStart,
		EndedAt:          &now,
		DurationSeconds:  m.cfg.BreakSeconds,
		FocusBeforeBreak: m.savedFocus,
		Kind:             domain.BreakCompleted,
	})
	// The user resumes focus explicitly after a full break.
	m.restoreFocus(false)
	return EventBreakFinished
}

// End terminates the session from any live state. An in-progress break is
// abandoned without a log entry; only timeouts, skips and early returns
// produce break records.
func (m *Machine) End() (*Result, error) {
	if m.done {
		return nil, fmt.Errorf("%w: session already completed", domain.ErrInvalidTransition)
	}
	if m.mode == ModeFocus {
		m.fold()
	}
	m.finish()
	return m.result, nil
}

func (m *Machine) restoreFocus(autoResume bool) {
	m.mode = ModeFocus
	m.focusRemaining = m.savedFocus
	m.breakRemaining = 0
	m.breakStart = time.Time{}
	m.running = autoResume
}

func (m *Machine) finish() {
	m.running = false
	m.done = true
	m.result = &Result{
		FocusSeconds: m.folded,
		UsedBreaks:   m.usedBreaks,
		BreakLog:     m.breakLog,
	}
}
