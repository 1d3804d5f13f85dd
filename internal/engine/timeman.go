package engine

import (
	"sync/atomic"
	"time"

	"github.com/hailam/chessai/internal/board"
)

// UCILimits contains UCI time control parameters.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime (remaining time for each color)
	Inc       [2]time.Duration // winc, binc (increment per move)
	MovesToGo int              // moves until next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time per move (overrides other time controls)
	Depth     int              // maximum search depth
	Infinite  bool             // search until stopped
}

// MoveBudget converts a clock situation into a time limit for one move.
// Zero means no limit.
func (l UCILimits) MoveBudget(us board.Color) time.Duration {
	if l.MoveTime > 0 {
		return l.MoveTime
	}
	if l.Infinite || l.Time[us] == 0 {
		return 0
	}

	timeLeft := l.Time[us]
	mtg := l.MovesToGo
	if mtg <= 0 {
		mtg = 30
	}
	budget := timeLeft/time.Duration(mtg) + l.Inc[us]*9/10

	// Never use more than 80% of what is left.
	if limit := timeLeft * 8 / 10; budget > limit {
		budget = limit
	}
	if budget < 10*time.Millisecond {
		budget = 10 * time.Millisecond
	}
	return budget
}

// TimeManager tracks the deadline and the stop request of one search. It
// is polled from every search goroutine.
type TimeManager struct {
	startTime time.Time
	deadline  time.Time // zero means no deadline
	stopped   atomic.Bool
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init starts the clock for a new search. A non-positive limit means no
// deadline.
func (tm *TimeManager) Init(limit time.Duration) {
	tm.startTime = time.Now()
	tm.deadline = time.Time{}
	if limit > 0 {
		tm.deadline = tm.startTime.Add(limit)
	}
	tm.stopped.Store(false)
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// Stop asks every search goroutine to unwind.
func (tm *TimeManager) Stop() {
	tm.stopped.Store(true)
}

// Stopped reports whether the search was stopped or ran out of time. Once
// the deadline has passed the stop flag is latched.
func (tm *TimeManager) Stopped() bool {
	if tm.stopped.Load() {
		return true
	}
	if !tm.deadline.IsZero() && !time.Now().Before(tm.deadline) {
		tm.stopped.Store(true)
		return true
	}
	return false
}
