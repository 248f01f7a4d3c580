package race

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// LapTarget is the number of completed laps that wins the race.
const LapTarget = 3

// Session is the shared race state injected into every controller of one race.
// The finished latch is set at most once and never cleared.
type Session struct {
	id string

	finished atomic.Bool

	mu         sync.Mutex
	winner     string
	finishedAt time.Time
}

func NewSession() *Session {
	return &Session{id: uuid.NewString()}
}

func (s *Session) ID() string { return s.id }

// Finished reports whether some agent has already won.
func (s *Session) Finished() bool { return s.finished.Load() }

// TryFinish records agent as the winner if nobody has won yet. Exactly one caller over the
// lifetime of the session gets true.
func (s *Session) TryFinish(agent string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished.Load() {
		return false
	}
	s.winner = agent
	s.finishedAt = time.Now().UTC()
	s.finished.Store(true)
	return true
}

// Winner returns the winning agent once the race has finished.
func (s *Session) Winner() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner, s.finished.Load()
}

func (s *Session) FinishedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishedAt
}
