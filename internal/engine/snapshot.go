package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"focustrack/internal/domain"
)

// Position is where the timer widget sits on screen. It rides along in the
// snapshot for the UI's benefit and has no bearing on session correctness.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snapshot is the full serialized state of a live session: enough to
// restore the machine exactly where it left off after a crash or restart.
type Snapshot struct {
	Config          Config               `json:"config"`
	Mode            Mode                 `json:"mode"`
	Running         bool                 `json:"running"`
	FocusRemaining  int                  `json:"focus_remaining"`
	BreakRemaining  int                  `json:"break_remaining"`
	SavedFocus      int                  `json:"saved_focus"`
	Accumulated     int                  `json:"accumulated"`
	RemainingBreaks int                  `json:"remaining_breaks"`
	UsedBreaks      int                  `json:"used_breaks"`
	BreakStart      time.Time            `json:"break_start"`
	BreakLog        []domain.BreakRecord `json:"break_log"`
	IdempotencyKey  string               `json:"idempotency_key"`
	HistoryID       int64                `json:"history_id"`
	Position        Position             `json:"position"`
	SavedAt         time.Time            `json:"saved_at"`
}

// Snapshot captures the machine's current state.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		Config:          m.cfg,
		Mode:            m.mode,
		Running:         m.running,
		FocusRemaining:  m.focusRemaining,
		BreakRemaining:  m.breakRemaining,
		SavedFocus:      m.savedFocus,
		Accumulated:     m.folded,
		RemainingBreaks: m.remainingBreak,
		UsedBreaks:      m.usedBreaks,
		BreakStart:      m.breakStart,
		BreakLog:        m.breakLog,
	}
}

// NewMachineFromSnapshot rebuilds a machine from a snapshot. The restored
// machine is always paused; the user resumes explicitly.
func NewMachineFromSnapshot(snap Snapshot, clock Clock) *Machine {
	if clock == nil {
		clock = SystemClock()
	}
	return &Machine{
		cfg:            snap.Config,
		clock:          clock,
		mode:           snap.Mode,
		running:        false,
		focusRemaining: snap.FocusRemaining,
		breakRemaining: snap.BreakRemaining,
		savedFocus:     snap.SavedFocus,
		folded:         snap.Accumulated,
		remainingBreak: snap.RemainingBreaks,
		usedBreaks:     snap.UsedBreaks,
		breakStart:     snap.BreakStart,
		breakLog:       snap.BreakLog,
	}
}

// SnapshotStore mirrors session state to one durable slot per activity, so
// an interrupted client can be resumed or safely discarded. Slots live
// under a dot directory in the user's home by default.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates a store rooted at dir, creating it if needed.
// An empty dir defaults to ~/.focustrack.
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".focustrack")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &SnapshotStore{dir: dir}, nil
}

func (s *SnapshotStore) slotPath(activityID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("session-%d.json", activityID))
}

// Save writes the snapshot for an activity, replacing any previous one.
func (s *SnapshotStore) Save(activityID int64, snap Snapshot) error {
	snap.SavedAt = time.Now().UTC()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.slotPath(activityID), data, 0644)
}

// Load reads the snapshot for an activity. Returns nil with no error when
// the slot is empty.
func (s *SnapshotStore) Load(activityID int64) (*Snapshot, error) {
	data, err := os.ReadFile(s.slotPath(activityID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Clear deletes the snapshot slot for an activity.
func (s *SnapshotStore) Clear(activityID int64) error {
	if err := os.Remove(s.slotPath(activityID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
