package climate

import (
	"sync"
	"time"
)

// State is a copy of the session fields
type State struct {
	RoomTemperature   float64
	Power             Power
	Mode              Mode
	TargetTemperature float64 // 0 means no meaningful target while in auto

	SyncError    string // last synchronization failure, empty after a success
	CommandError string // last command failure, empty after a successful command
	Loading      bool   // true until the first synchronization completes
	SyncedAt     time.Time
}

// Session is the single mutable climate record shared by the synchronizer and the commander.
// Every mutation is one atomic apply under the lock; overlapping callers resolve last-write-wins.
type Session struct {
	mu    sync.Mutex
	state State
	subs  map[chan struct{}]struct{}
}

// NewSession creates a session in its loading state
func NewSession() *Session {
	return &Session{
		state: State{
			Power:   PowerOff,
			Mode:    ModeAuto,
			Loading: true,
		},
		subs: make(map[chan struct{}]struct{}),
	}
}

// State returns a copy of the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel signalled after every change. Signals coalesce;
// readers call State for the current value. The returned func unsubscribes.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
}

func (s *Session) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.mu.Unlock()
}

// ApplySnapshot replaces the synchronized fields and clears the sync error
func (s *Session) ApplySnapshot(snap Snapshot, at time.Time) {
	s.update(func(st *State) {
		st.RoomTemperature = snap.RoomTemperature
		st.Power = snap.Power
		st.Mode = snap.Mode
		st.TargetTemperature = snap.TargetTemperature
		st.SyncError = ""
		st.Loading = false
		st.SyncedAt = at
	})
}

// FailSync records a synchronization failure, keeping last-known values
func (s *Session) FailSync(msg string) {
	s.update(func(st *State) {
		st.SyncError = msg
		st.Loading = false
	})
}

// SetPower records a confirmed power change
func (s *Session) SetPower(p Power) {
	s.update(func(st *State) {
		st.Power = p
		st.CommandError = ""
	})
}

// SetMode records a confirmed mode change; a mode command always powers the unit on
func (s *Session) SetMode(m Mode) {
	s.update(func(st *State) {
		st.Mode = m
		st.Power = PowerOn
		st.CommandError = ""
	})
}

// SetTarget stores a target temperature and returns the previous one
func (s *Session) SetTarget(t float64) (prev float64) {
	s.update(func(st *State) {
		prev = st.TargetTemperature
		st.TargetTemperature = t
	})
	return prev
}

// RestoreTarget puts prev back only when the target still holds the optimistic value,
// so a newer step or a sync landing in between is not overwritten.
func (s *Session) RestoreTarget(prev, optimistic float64) bool {
	restored := false
	s.update(func(st *State) {
		if st.TargetTemperature == optimistic {
			st.TargetTemperature = prev
			restored = true
		}
	})
	return restored
}

// SetCommandError records a command failure, or clears it when msg is empty
func (s *Session) SetCommandError(msg string) {
	s.update(func(st *State) {
		st.CommandError = msg
	})
}
