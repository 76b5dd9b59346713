package avl

import "fmt"

// SpatialMatch is a candidate position for a vehicle along a block, found by
// the spatial matcher (C2) without regard to schedule.
type SpatialMatch struct {
	VehicleId              string
	BlockId                string
	TripIndex              int
	StopPathIndex          int
	SegmentIndex           int
	DistanceToSegment      float64 // meters, match quality
	DistanceAlongSegment   float64 // meters, position within the segment
	DistanceAlongTrip      float64 // meters, cumulative distance along the trip
	AtLayover              bool
	ProblemMatchDueToLackOfHeadingInfo bool
}

func (m *SpatialMatch) String() string {
	return fmt.Sprintf("SpatialMatch{block:%s trip:%d stopPath:%d segment:%d distTo:%.1f distAlong:%.1f}",
		m.BlockId, m.TripIndex, m.StopPathIndex, m.SegmentIndex, m.DistanceToSegment, m.DistanceAlongSegment)
}

// resolveTrip returns the Block and Trip this match points into, given the
// live BlockSet. Returns nil, nil if the block no longer exists (e.g. a stale
// match survived a schedule rollover), and a nil Trip if the trip index is
// out of range.
func (m *SpatialMatch) resolveTrip(blocks *BlockSet) (*Block, *Trip) {
	block := blocks.Block(m.BlockId)
	if block == nil {
		return nil, nil
	}
	trip := block.TripByIndex(m.TripIndex)
	return block, trip
}

// TemporalDifference is a signed millisecond schedule offset. Positive means
// early (scheduled time is later than actual); negative means late.
type TemporalDifference struct {
	Millis int64
}

func ZeroTemporalDifference() TemporalDifference { return TemporalDifference{} }

// IsWithinBounds reports whether this difference is at most maxEarlyMillis
// early and at most maxLateMillis late (both bounds inclusive). It is a pure
// method with no vehicle context: every vehicle is held to the bounds the
// caller passes.
func (d TemporalDifference) IsWithinBounds(maxEarlyMillis, maxLateMillis int64) bool {
	if d.Millis > 0 {
		return d.Millis <= maxEarlyMillis
	}
	return -d.Millis <= maxLateMillis
}

func (d TemporalDifference) String() string {
	if d.Millis >= 0 {
		return fmt.Sprintf("%dms early", d.Millis)
	}
	return fmt.Sprintf("%dms late", -d.Millis)
}

// VehicleAtStopInfo is populated on a TemporalMatch when the spatial match
// lies within the configured stop radius of a stop.
type VehicleAtStopInfo struct {
	StopId        string
	ScheduledTime ScheduleTime
	IsWaitStop    bool
	AtEndOfBlock  bool
}

// TemporalMatch is a SpatialMatch disambiguated against the schedule.
type TemporalMatch struct {
	SpatialMatch
	Difference TemporalDifference
	AtStop     *VehicleAtStopInfo
}
