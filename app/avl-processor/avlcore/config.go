// Package avlcore matches AVL reports to scheduled block positions, tracks
// per-vehicle predictability, and computes real-time schedule adherence.
package avlcore

import "time"

// Config holds the tunables named in the spec's configuration table.
// Snapshotted per AVL report per the "snapshot discipline" in the
// concurrency model -- callers should copy a Config rather than share a
// mutable one across reports.
type Config struct {
	// TerminalDistanceForRouteMatching is the minimum distance in meters from
	// a trip's terminal required to allow a route-assignment match.
	TerminalDistanceForRouteMatching float64
	// MaxBadMatchesInARow is the bad match streak threshold before a vehicle
	// becomes unpredictable.
	MaxBadMatchesInARow int
	// AllowableLateAtTerminalForLoggingEvent triggers NOT_LEAVING_TERMINAL.
	AllowableLateAtTerminalForLoggingEvent time.Duration
	// MaxScheduleAdherenceEarly/Late are the sanity bounds on adherence.
	MaxScheduleAdherenceEarly time.Duration
	MaxScheduleAdherenceLate  time.Duration
	// SpatialMatchRadius/LayoverMatchRadius are the C2 spatial gates, meters.
	SpatialMatchRadius  float64
	LayoverMatchRadius  float64
	// HeadingToleranceDeg is the C2 heading gate, degrees.
	HeadingToleranceDeg float64
	// OnlyNeedArrivalDepartures is carried in the configuration only: this
	// package does not persist AVL reports and no code reads the flag.
	OnlyNeedArrivalDepartures bool
	// LookaheadMeters bounds how far forward an already-matched vehicle's
	// spatial walk may proceed from its previous match.
	LookaheadMeters float64
	// BacktrackToleranceMeters absorbs GPS jitter behind the previous match.
	BacktrackToleranceMeters float64
	// MaxStaleAge marks a vehicle unpredictable once its last report exceeds this age.
	MaxStaleAge time.Duration
	// AssignmentProblemCooldown is how long a failed assignment id is
	// skipped before the orchestrator will retry matching against it again.
	AssignmentProblemCooldown time.Duration
}

// DefaultConfig returns reasonable defaults, the same order of magnitude as
// the teacher's own `GTFS.EarlyTolerance`/`ExpirePositionSeconds` defaults.
func DefaultConfig() Config {
	return Config{
		TerminalDistanceForRouteMatching:       150,
		MaxBadMatchesInARow:                    3,
		AllowableLateAtTerminalForLoggingEvent: 2 * time.Minute,
		MaxScheduleAdherenceEarly:              15 * time.Minute,
		MaxScheduleAdherenceLate:               90 * time.Minute,
		SpatialMatchRadius:                     80,
		LayoverMatchRadius:                     300,
		HeadingToleranceDeg:                    45,
		LookaheadMeters:                        2000,
		BacktrackToleranceMeters:               50,
		MaxStaleAge:                            15 * time.Minute,
		AssignmentProblemCooldown:              time.Minute,
	}
}
