package avlcore

import (
	"github.com/transitcast/core/business/data/avl"
)

// findMatches is the C2 entry point. previous is nil for an unmatched
// vehicle, in which case the walk is unconstrained over candidateTrips. An
// already-matched vehicle's walk is constrained to proceed forward along
// the block -- its own trip plus whichever subsequent trips candidateTrips
// supplies -- within the remaining lookahead budget.
func findMatches(cfg Config, block *avl.Block, candidateTrips []*avl.Trip,
	previous *avl.SpatialMatch, report *avl.Report) []avl.SpatialMatch {

	if previous != nil && previous.BlockId == block.Id {
		return constrainedBlockWalk(cfg, block, candidateTrips, previous, report)
	}

	var results []avl.SpatialMatch
	for _, trip := range candidateTrips {
		tripIndex := tripIndexOf(block, trip)
		if tripIndex < 0 {
			continue
		}
		results = append(results, matchesWithinTrip(cfg, block, trip, tripIndex,
			0, 0, -1.0, false, report)...)
	}
	return results
}

// constrainedBlockWalk continues an already-matched vehicle's walk forward
// from its previous match, crossing from one trip into the next trip of the
// block (each starting fresh at stop path 0) as the remaining lookahead
// budget allows, so a vehicle finishing trip i of a multi-trip block still
// has candidates on trip i+1 rather than going unmatched until end of block.
func constrainedBlockWalk(cfg Config, block *avl.Block, candidateTrips []*avl.Trip,
	previous *avl.SpatialMatch, report *avl.Report) []avl.SpatialMatch {

	var results []avl.SpatialMatch
	remaining := cfg.LookaheadMeters
	for _, trip := range candidateTrips {
		if remaining <= 0 {
			break
		}
		tripIndex := tripIndexOf(block, trip)
		if tripIndex < 0 || tripIndex < previous.TripIndex {
			continue
		}

		startStopPath, startSegment, startAlong := 0, 0, -1.0
		if tripIndex == previous.TripIndex {
			startStopPath, startSegment = previous.StopPathIndex, previous.SegmentIndex
			startAlong = previous.DistanceAlongSegment
		}

		tripCfg := cfg
		tripCfg.LookaheadMeters = remaining
		matches, traveled := matchesWithinTripBudgeted(tripCfg, block, trip, tripIndex,
			startStopPath, startSegment, startAlong, true, report)
		results = append(results, matches...)
		remaining -= traveled
	}
	return results
}

// matchesWithinTrip walks the stop paths/segments of trip starting at
// (startStopPath, startSegment), honoring the lookahead/backtrack bounds when
// constrained is true (i.e. the vehicle was already matched).
func matchesWithinTrip(cfg Config, block *avl.Block, trip *avl.Trip, tripIndex int,
	startStopPath, startSegment int, startAlong float64, constrained bool, report *avl.Report) []avl.SpatialMatch {

	results, _ := matchesWithinTripBudgeted(cfg, block, trip, tripIndex,
		startStopPath, startSegment, startAlong, constrained, report)
	return results
}

// matchesWithinTripBudgeted is matchesWithinTrip plus the distance traveled
// along the trip since startStopPath/startSegment, so a caller walking
// across trip boundaries (constrainedBlockWalk) can carry the remaining
// lookahead budget from one trip into the next.
func matchesWithinTripBudgeted(cfg Config, block *avl.Block, trip *avl.Trip, tripIndex int,
	startStopPath, startSegment int, startAlong float64, constrained bool, report *avl.Report) ([]avl.SpatialMatch, float64) {

	var results []avl.SpatialMatch
	traveledSinceStart := 0.0
	backtrackBudget := cfg.BacktrackToleranceMeters

	for spIdx := startStopPath; spIdx < len(trip.StopPaths); spIdx++ {
		sp := &trip.StopPaths[spIdx]
		segStart := 0
		if spIdx == startStopPath {
			segStart = startSegment
		}
		for segIdx := segStart; segIdx+1 <= len(sp.Shape)-1 && len(sp.Shape) > 1; segIdx++ {
			a, b := sp.Shape[segIdx], sp.Shape[segIdx+1]
			distTo, distAlong := avl.DistanceToSegment(a.Lat, a.Lon, b.Lat, b.Lon, report.Latitude, report.Longitude)

			if constrained && spIdx == startStopPath && segIdx == startSegment && distAlong < startAlong {
				behind := startAlong - distAlong
				if behind > backtrackBudget {
					continue
				}
			}

			atLayover := spIdx == 0 || spIdx == trip.LastStopPathIndex()
			radius := cfg.SpatialMatchRadius
			if atLayover {
				radius = cfg.LayoverMatchRadius
			}
			if distTo <= radius {
				alongTrip := distAlong
				if spIdx > 0 {
					alongTrip += trip.StopPaths[spIdx-1].DistanceTraveled
				}
				for i := 0; i < segIdx; i++ {
					alongTrip += sp.SegmentLength(i)
				}
				m := avl.SpatialMatch{
					VehicleId:            report.VehicleId,
					BlockId:              block.Id,
					TripIndex:            tripIndex,
					StopPathIndex:        spIdx,
					SegmentIndex:         segIdx,
					DistanceToSegment:    distTo,
					DistanceAlongSegment: distAlong,
					DistanceAlongTrip:    alongTrip,
					AtLayover:            atLayover,
				}
				applyHeadingGate(&m, &cfg, a, b, report)
				results = append(results, m)
			}

			segLen := sp.SegmentLength(segIdx)
			traveledSinceStart += segLen
			if constrained && traveledSinceStart > cfg.LookaheadMeters {
				return results, traveledSinceStart
			}
		}
	}
	return results, traveledSinceStart
}

// applyHeadingGate marks m as a problem match when the vehicle isn't at a
// layover, reports a heading, and that heading disagrees with the segment's
// bearing by more than the configured tolerance. The orchestrator decides
// whether to reject a flagged match.
func applyHeadingGate(m *avl.SpatialMatch, cfg *Config, a, b avl.Point, report *avl.Report) {
	if m.AtLayover || report.Heading == nil {
		return
	}
	segmentBearing := avl.Bearing(a.Lat, a.Lon, b.Lat, b.Lon)
	if avl.BearingDifference(*report.Heading, segmentBearing) > cfg.HeadingToleranceDeg {
		m.ProblemMatchDueToLackOfHeadingInfo = true
	}
}

func tripIndexOf(block *avl.Block, trip *avl.Trip) int {
	for i := range block.Trips {
		if &block.Trips[i] == trip || block.Trips[i].TripId == trip.TripId {
			return i
		}
	}
	return -1
}
