package avlcore

import (
	"time"

	"github.com/transitcast/core/business/data/avl"
	"github.com/transitcast/core/business/data/gtfs"
)

// epochSeconds resolves a schedule time expressed in seconds-since-midnight
// to a calendar instant near avlTime, handling day wrap near midnight (a
// late-night trip's 25:30:00 stop resolves to 1:30am the *next* calendar
// day). Adapted from gtfs.MakeScheduleTime / gtfs.Get12AmTime, which already
// solve exactly this for the static schedule loader.
func epochSeconds(scheduleSeconds int, avlTime time.Time) time.Time {
	midnight := gtfs.Get12AmTime(avlTime)
	candidate := gtfs.MakeScheduleTime(midnight, scheduleSeconds)

	// scheduleSeconds may describe a time on the previous or next service
	// day; pick whichever midnight anchor lands closest to avlTime.
	best := candidate
	bestDiff := absDuration(avlTime.Sub(candidate))
	for _, dayOffset := range []int{-1, 1} {
		altMidnight := midnight.AddDate(0, 0, dayOffset)
		alt := gtfs.MakeScheduleTime(altMidnight, scheduleSeconds)
		if d := absDuration(avlTime.Sub(alt)); d < bestDiff {
			best, bestDiff = alt, d
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// finalizeTemporalMatch populates the AtStop / Difference fields of a
// candidate SpatialMatch against the live schedule, at reportSeconds.
// Returns nil if the match's block/trip can no longer be resolved.
func finalizeTemporalMatch(cfg Config, blocks *avl.BlockSet, m avl.SpatialMatch, reportSeconds int64) *avl.TemporalMatch {
	block := blocks.Block(m.BlockId)
	if block == nil {
		return nil
	}
	trip := block.TripByIndex(m.TripIndex)
	if trip == nil {
		return nil
	}
	avlTime := time.Unix(reportSeconds, 0).UTC()

	tm := &avl.TemporalMatch{SpatialMatch: m}
	tm.AtStop = atStopInfo(cfg, block, trip, m)
	tm.Difference = scheduleAdherenceAt(blocks.ServiceDate, trip, m, tm.AtStop, avlTime)
	return tm
}

// atStopInfo reports the stop the match is at when its spatial distance into
// the stop path is within the layover radius, carrying whether it is a wait
// stop (a layover/terminal holding for scheduled departure) and whether this
// is the final stop of the block's final trip.
func atStopInfo(cfg Config, block *avl.Block, trip *avl.Trip, m avl.SpatialMatch) *avl.VehicleAtStopInfo {
	if m.DistanceToSegment > cfg.LayoverMatchRadius && !m.AtLayover {
		return nil
	}
	sp := &trip.StopPaths[m.StopPathIndex]
	isWaitStop := m.StopPathIndex == 0 || m.AtLayover
	atEndOfBlock := m.AtLayover && m.StopPathIndex == trip.LastStopPathIndex() &&
		m.TripIndex == len(block.Trips)-1
	return &avl.VehicleAtStopInfo{
		StopId:        sp.StopId,
		ScheduledTime: sp.ScheduledTime,
		IsWaitStop:    isWaitStop,
		AtEndOfBlock:  atEndOfBlock,
	}
}

// scheduleAdherenceAt computes §4.5's TemporalDifference for a candidate
// position: wait-stop, non-wait-stop-at-stop, or next-upcoming-stop cases.
func scheduleAdherenceAt(serviceDate time.Time, trip *avl.Trip, m avl.SpatialMatch,
	atStop *avl.VehicleAtStopInfo, avlTime time.Time) avl.TemporalDifference {

	if atStop != nil && atStop.ScheduledTime.HasDeparture() {
		departEpoch := epochSeconds(*atStop.ScheduledTime.Departure, avlTime)
		if atStop.IsWaitStop {
			if avlTime.Before(departEpoch) {
				return avl.ZeroTemporalDifference()
			}
			return avl.TemporalDifference{Millis: departEpoch.Sub(avlTime).Milliseconds()}
		}
		return avl.TemporalDifference{Millis: departEpoch.Sub(avlTime).Milliseconds()}
	}

	nextIdx, nextSP := nextStopWithScheduleTime(trip, m.StopPathIndex)
	if nextSP == nil {
		return avl.TemporalDifference{} // no upcoming scheduled stop: the match carries a zero difference
	}
	expected := expectedTravelMillisTo(trip, m, nextIdx)
	scheduleSeconds := nextSP.scheduledReferenceSeconds()
	scheduledEpoch := epochSeconds(scheduleSeconds, avlTime)
	expectedArrival := avlTime.Add(time.Duration(expected) * time.Millisecond)
	return avl.TemporalDifference{Millis: scheduledEpoch.Sub(expectedArrival).Milliseconds()}
}

// nextStopWithScheduleTime finds the next stop path at or after fromIndex
// that carries a scheduled time (non-timepoint stops carry none).
func nextStopWithScheduleTime(trip *avl.Trip, fromIndex int) (int, *avl.StopPath) {
	for i := fromIndex; i < len(trip.StopPaths); i++ {
		sp := &trip.StopPaths[i]
		if sp.ScheduledTime.HasArrival() || sp.ScheduledTime.HasDeparture() {
			return i, sp
		}
	}
	return -1, nil
}

// expectedTravelMillisTo estimates travel time in milliseconds from m's
// position to the stop path at toIndex, adding that stop's dwell time when
// its schedule reference is a departure.
func expectedTravelMillisTo(trip *avl.Trip, m avl.SpatialMatch, toIndex int) int64 {
	if toIndex < m.StopPathIndex {
		return 0
	}
	toSP := &trip.StopPaths[toIndex]
	remaining := toSP.DistanceTraveled - m.DistanceAlongTrip
	if remaining < 0 {
		remaining = 0
	}
	schedMillisForSegment := segmentScheduleMillis(trip, m.StopPathIndex, toIndex)
	segDistance := toSP.DistanceTraveled
	if m.StopPathIndex > 0 {
		segDistance -= trip.StopPaths[m.StopPathIndex-1].DistanceTraveled
	}
	var millis int64
	if segDistance > 0 {
		millis = int64(float64(schedMillisForSegment) * (remaining / segDistance))
	}
	if toSP.ScheduledTime.Departure != nil {
		millis += toSP.Travel.DwellMillis
	}
	return millis
}

// segmentScheduleMillis is the scheduled travel time, in milliseconds,
// between the stop path preceding fromIndex and toIndex.
func segmentScheduleMillis(trip *avl.Trip, fromIndex, toIndex int) int64 {
	var fromRef int
	if fromIndex > 0 {
		fromRef = trip.StopPaths[fromIndex-1].scheduledReferenceSeconds()
	} else {
		fromRef = trip.StartTime
	}
	toRef := trip.StopPaths[toIndex].scheduledReferenceSeconds()
	return int64(toRef-fromRef) * 1000
}

// generate implements §4.5 `generate(vehicleState)`: nil if the vehicle is
// not predictable or has no match, otherwise the match's Difference. A match
// with no upcoming scheduled stop holds a zero Difference, and generate
// returns that zero rather than nil.
func generate(state *avl.VehicleState) *avl.TemporalDifference {
	if !state.Predictable || state.Match == nil {
		return nil
	}
	diff := state.Match.Difference
	return &diff
}

// generateEffectiveScheduleDifference implements §4.5
// `generate_effective_schedule_difference`: always defined for a matched
// vehicle, via the three position cases (before trip start/at first stop,
// at a stop or end of stop path, or interpolated between stops).
func generateEffectiveScheduleDifference(blocks *avl.BlockSet, state *avl.VehicleState) *avl.TemporalDifference {
	if state.Match == nil {
		return nil
	}
	_, trip := state.Match.resolveTrip(blocks)
	if trip == nil {
		return nil
	}
	avlTime := time.Unix(reportTimeOf(state.LastReport), 0).UTC()
	m := state.Match.SpatialMatch

	// case 1: before trip start or at the first stop (layover)
	if m.StopPathIndex == 0 {
		sched := trip.FirstStopTime()
		sec := schedTimeSeconds(sched)
		diff := avlTime.Sub(epochSeconds(sec, avlTime)).Milliseconds()
		return &avl.TemporalDifference{Millis: diff}
	}

	sp := &trip.StopPaths[m.StopPathIndex]
	atStopOrEndOfSegment := m.DistanceAlongSegment <= 0 || m.SegmentIndex >= len(sp.Shape)-2
	if atStopOrEndOfSegment {
		sec := sp.scheduledReferenceSeconds()
		diff := avlTime.Sub(epochSeconds(sec, avlTime)).Milliseconds()
		return &avl.TemporalDifference{Millis: diff}
	}

	// case 3: interpolate between the previous and this stop's scheduled time
	prevSP := &trip.StopPaths[m.StopPathIndex-1]
	prevDist := prevSP.DistanceTraveled
	nextDist := sp.DistanceTraveled
	curDist := prevSP.DistanceTraveled + m.DistanceAlongSegment
	var ratio float64
	if nextDist > prevDist {
		ratio = (curDist - prevDist) / (nextDist - prevDist)
	}
	fromSec := float64(prevSP.scheduledReferenceSeconds())
	toSec := float64(sp.scheduledReferenceSeconds())
	effectiveSec := fromSec + (toSec-fromSec)*ratio
	effectiveEpoch := epochSeconds(int(effectiveSec), avlTime)
	diff := avlTime.Sub(effectiveEpoch).Milliseconds()
	return &avl.TemporalDifference{Millis: diff}
}

func schedTimeSeconds(s avl.ScheduleTime) int {
	if s.Departure != nil {
		return *s.Departure
	}
	if s.Arrival != nil {
		return *s.Arrival
	}
	return 0
}

// isSane reports whether diff falls within cfg's sanity bounds -- outside
// triggers a re-match in the orchestrator's branch (b).
func isSane(cfg Config, diff avl.TemporalDifference) bool {
	return diff.IsWithinBounds(cfg.MaxScheduleAdherenceEarly.Milliseconds(), cfg.MaxScheduleAdherenceLate.Milliseconds())
}
