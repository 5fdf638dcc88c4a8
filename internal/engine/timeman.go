package engine

import (
	"context"
	"time"
)

// TimeManager bounds one search by wall clock, iteration count and the
// caller's context. Checks happen only between iterations.
type TimeManager struct {
	startTime     time.Time
	maximumTime   time.Duration // 0 = no clock limit
	maxIterations int           // 0 = no iteration limit
}

// NewTimeManager starts the clock for a search.
func NewTimeManager(limit time.Duration, iterations int) *TimeManager {
	tm := &TimeManager{
		startTime:     time.Now(),
		maximumTime:   limit,
		maxIterations: iterations,
	}
	// Never run unbounded.
	if tm.maximumTime <= 0 && tm.maxIterations <= 0 {
		tm.maximumTime = DefaultTimeLimit
	}
	return tm
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// ShouldStop reports whether the search must stop before starting
// iteration number done+1.
func (tm *TimeManager) ShouldStop(ctx context.Context, done int) bool {
	if tm.maxIterations > 0 && done >= tm.maxIterations {
		return true
	}
	if tm.maximumTime > 0 && tm.Elapsed() >= tm.maximumTime {
		return true
	}
	return ctx.Err() != nil
}

// ClockLimits contains UCI clock parameters.
type ClockLimits struct {
	Time      time.Duration // remaining time for the side to move
	Inc       time.Duration // increment per move
	MovesToGo int           // moves until next time control (0 = sudden death)
}

// AllocateMoveTime turns a game clock into a per-move budget.
// ply is the current game ply (half-move number).
func AllocateMoveTime(limits ClockLimits, ply int) time.Duration {
	if limits.Time <= 0 {
		return 0
	}

	mtg := limits.MovesToGo
	if mtg == 0 {
		// Sudden death: expect fewer remaining moves as the game goes on.
		mtg = 50 - ply/4
		if mtg < 10 {
			mtg = 10
		}
		if mtg > 50 {
			mtg = 50
		}
	}

	budget := limits.Time/time.Duration(mtg) + limits.Inc*9/10
	if ply < 8 {
		budget = budget * 85 / 100
	}

	// Never use more than 95% of remaining time
	if limit := limits.Time * 95 / 100; budget > limit {
		budget = limit
	}
	if budget < 10*time.Millisecond {
		budget = 10 * time.Millisecond
	}
	return budget
}
