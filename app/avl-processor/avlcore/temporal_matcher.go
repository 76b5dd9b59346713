package avlcore

import (
	"github.com/transitcast/core/business/data/avl"
)

// bestTemporalMatch chooses among candidates for an already-predictable
// vehicle by comparing elapsed real time since the previous match to the
// expected schedule travel time to each candidate. Ties favor the smaller
// spatial distance.
func bestTemporalMatch(cfg Config, blocks *avl.BlockSet, state *avl.VehicleState,
	candidates []avl.SpatialMatch, reportSeconds int64) *avl.TemporalMatch {

	if state.Match == nil || len(candidates) == 0 {
		return nil
	}
	prevBlock, prevTrip := state.Match.resolveTrip(blocks)
	if prevBlock == nil || prevTrip == nil {
		return nil
	}
	prevTimeSeconds := reportTimeOf(state.LastReport)

	var best *avl.SpatialMatch
	var bestScore int64 = -1
	for i := range candidates {
		c := &candidates[i]
		if c.ProblemMatchDueToLackOfHeadingInfo {
			continue
		}
		expected := expectedTravelSeconds(prevTrip, &state.Match.SpatialMatch, c)
		elapsed := reportSeconds - prevTimeSeconds
		score := abs64(elapsed - expected)
		if best == nil || score < bestScore ||
			(score == bestScore && c.DistanceToSegment < best.DistanceToSegment) {
			best = c
			bestScore = score
		}
	}
	if best == nil {
		return nil
	}
	return finalizeTemporalMatch(cfg, blocks, *best, reportSeconds)
}

// bestTemporalMatchComparedToSchedule chooses among candidates for a vehicle
// being matched to a new, unassigned position by comparing each candidate's
// absolute schedule adherence. Ties favor in-trip over pre-trip candidates,
// then smaller spatial distance.
func bestTemporalMatchComparedToSchedule(cfg Config, blocks *avl.BlockSet,
	candidates []avl.SpatialMatch, report *avl.Report) *avl.TemporalMatch {

	if len(candidates) == 0 {
		return nil
	}
	reportSeconds := report.TimeSeconds()

	var best *avl.SpatialMatch
	var bestMatch *avl.TemporalMatch
	var bestScore int64 = -1
	for i := range candidates {
		c := &candidates[i]
		tm := finalizeTemporalMatch(cfg, blocks, *c, reportSeconds)
		if tm == nil {
			continue
		}
		score := abs64(tm.Difference.Millis)
		betterTie := false
		if best != nil && score == bestScore {
			betterTie = preferInTripOverPreTrip(c, best) ||
				(!preferInTripOverPreTrip(best, c) && c.DistanceToSegment < best.DistanceToSegment)
		}
		if best == nil || score < bestScore || betterTie {
			best = c
			bestMatch = tm
			bestScore = score
		}
	}
	return bestMatch
}

// preferInTripOverPreTrip reports whether candidate should be preferred over
// other because it sits past its trip's first stop while other does not.
func preferInTripOverPreTrip(candidate, other *avl.SpatialMatch) bool {
	candidateInTrip := candidate.StopPathIndex > 0 || candidate.DistanceAlongSegment > 0
	otherInTrip := other.StopPathIndex > 0 || other.DistanceAlongSegment > 0
	return candidateInTrip && !otherInTrip
}

// matchToLayoverStopEvenIfOffRoute is the last-resort match: pick the trip
// whose first stop (layover terminal) is closest to the AVL point, within a
// wide terminal radius. Returns nil if every trip exceeds the radius.
func matchToLayoverStopEvenIfOffRoute(cfg Config, report *avl.Report, trips []*avl.Trip) *avl.Trip {
	var best *avl.Trip
	bestDist := cfg.LayoverMatchRadius
	for _, trip := range trips {
		if len(trip.StopPaths) == 0 || len(trip.StopPaths[0].Shape) == 0 {
			continue
		}
		terminal := trip.StopPaths[0].Shape[0]
		dist := avl.PointDistance(terminal.Lat, terminal.Lon, report.Latitude, report.Longitude)
		if dist <= bestDist {
			best = trip
			bestDist = dist
		}
	}
	return best
}

// expectedTravelSeconds sums scheduled segment travel time between a
// previous and a candidate SpatialMatch position within the same trip.
func expectedTravelSeconds(trip *avl.Trip, from, to *avl.SpatialMatch) int64 {
	if from.StopPathIndex < 0 || from.StopPathIndex >= len(trip.StopPaths) {
		return 0
	}
	if to.StopPathIndex < from.StopPathIndex {
		return 0
	}
	fromSP := &trip.StopPaths[from.StopPathIndex]
	toSP := &trip.StopPaths[to.StopPathIndex]
	fromRef := fromSP.scheduledReferenceSeconds()
	toRef := toSP.scheduledReferenceSeconds()
	return int64(toRef - fromRef)
}

func reportTimeOf(r *avl.Report) int64 {
	if r == nil {
		return 0
	}
	return r.TimeSeconds()
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
