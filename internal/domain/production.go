package domain

import "time"

// ProductionReport is a derived view of idle production at a point in time
type ProductionReport struct {
	ElapsedSeconds int64     `json:"elapsed_seconds"`
	CurrentPower   int64     `json:"current_power"`
	AccruedPoints  int64     `json:"accrued_points"`
	At             time.Time `json:"at"`
}

// ElapsedSeconds returns whole seconds between start and now, never negative
func ElapsedSeconds(start, now time.Time) int64 {
	secs := int64(now.Sub(start) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// PowerAt returns the power of the latest epoch whose FromSeconds <= t.
// Epochs must be ordered by FromSeconds. Before the first epoch the rate is 0.
func PowerAt(epochs []ProductionEpoch, t int64) int64 {
	var power int64
	for _, e := range epochs {
		if e.FromSeconds > t {
			break
		}
		power = e.Power
	}
	return power
}

// AccruedPoints integrates the piecewise-constant schedule over [t0, t1].
func AccruedPoints(epochs []ProductionEpoch, t0, t1 int64) int64 {
	if t1 <= t0 {
		return 0
	}

	var total int64
	for i, e := range epochs {
		segStart := e.FromSeconds
		segEnd := t1
		if i+1 < len(epochs) && epochs[i+1].FromSeconds < segEnd {
			segEnd = epochs[i+1].FromSeconds
		}
		if segStart < t0 {
			segStart = t0
		}
		if segEnd > segStart {
			total += e.Power * (segEnd - segStart)
		}
	}
	return total
}

// Production builds a ProductionReport for the state at the given instant
func (s PlayerState) Production(now time.Time) ProductionReport {
	elapsed := ElapsedSeconds(s.StartAt, now)
	return ProductionReport{
		ElapsedSeconds: elapsed,
		CurrentPower:   PowerAt(s.UpgradeTimes, elapsed),
		AccruedPoints:  AccruedPoints(s.UpgradeTimes, 0, elapsed),
		At:             now,
	}
}
