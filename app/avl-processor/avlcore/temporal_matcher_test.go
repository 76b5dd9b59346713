package avlcore

import (
	"testing"
	"time"

	"github.com/transitcast/core/business/data/avl"
)

func testServiceDate() time.Time {
	return time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
}

func intp(v int) *int { return &v }

func scheduledTrip(tripId string, departures ...int) avl.Trip {
	paths := make([]avl.StopPath, len(departures))
	for i, d := range departures {
		paths[i] = avl.StopPath{StopId: "s", ScheduledTime: avl.ScheduleTime{Departure: intp(d)}}
	}
	return avl.Trip{TripId: tripId, StartTime: departures[0], StopPaths: paths}
}

func TestExpectedTravelSeconds(t *testing.T) {
	trip := scheduledTrip("t1", 0, 300, 900)
	from := &avl.SpatialMatch{StopPathIndex: 0}
	to := &avl.SpatialMatch{StopPathIndex: 2}
	if got := expectedTravelSeconds(&trip, from, to); got != 900 {
		t.Errorf("expected 900 seconds of scheduled travel, got %d", got)
	}

	// a candidate behind the previous match's stop path contributes nothing.
	backwards := &avl.SpatialMatch{StopPathIndex: 0}
	if got := expectedTravelSeconds(&trip, to, backwards); got != 0 {
		t.Errorf("expected 0 for a candidate behind the previous stop path, got %d", got)
	}
}

func TestBestTemporalMatch_PicksClosestElapsedTime(t *testing.T) {
	cfg := DefaultConfig()
	trip := scheduledTrip("t1", 0, 300, 900)
	block := avl.NewBlock("b1", "weekday", 0, 3600, []avl.Trip{trip})
	blocks := avl.NewBlockSet(testServiceDate(), []*avl.Block{block})

	state := avl.NewVehicleState("v1")
	state.SetMatch(&avl.TemporalMatch{SpatialMatch: avl.SpatialMatch{BlockId: "b1", TripIndex: 0, StopPathIndex: 0}})
	state.LastReport = &avl.Report{EpochMillis: 0}

	near := avl.SpatialMatch{BlockId: "b1", TripIndex: 0, StopPathIndex: 1, DistanceToSegment: 5}
	far := avl.SpatialMatch{BlockId: "b1", TripIndex: 0, StopPathIndex: 2, DistanceToSegment: 5}
	// 300 seconds elapsed matches stop path 1's scheduled travel (300s) exactly.
	got := bestTemporalMatch(cfg, blocks, state, []avl.SpatialMatch{far, near}, 300)
	if got == nil {
		t.Fatalf("expected a match")
	}
	if got.StopPathIndex != 1 {
		t.Errorf("expected the candidate with the closest elapsed/expected travel time, got stop path %d", got.StopPathIndex)
	}
}

func TestBestTemporalMatch_SkipsHeadingProblemCandidates(t *testing.T) {
	cfg := DefaultConfig()
	trip := scheduledTrip("t1", 0, 300)
	block := avl.NewBlock("b1", "weekday", 0, 3600, []avl.Trip{trip})
	blocks := avl.NewBlockSet(testServiceDate(), []*avl.Block{block})

	state := avl.NewVehicleState("v1")
	state.SetMatch(&avl.TemporalMatch{SpatialMatch: avl.SpatialMatch{BlockId: "b1", TripIndex: 0, StopPathIndex: 0}})
	state.LastReport = &avl.Report{EpochMillis: 0}

	flagged := avl.SpatialMatch{BlockId: "b1", TripIndex: 0, StopPathIndex: 1, ProblemMatchDueToLackOfHeadingInfo: true}
	got := bestTemporalMatch(cfg, blocks, state, []avl.SpatialMatch{flagged}, 300)
	if got != nil {
		t.Errorf("expected heading-flagged candidates to be excluded entirely, got %+v", got)
	}
}

func TestBestTemporalMatchComparedToSchedule_PrefersInTripOverPreTrip(t *testing.T) {
	cfg := DefaultConfig()
	trip := scheduledTrip("t1", 0, 300)
	block := avl.NewBlock("b1", "weekday", 0, 3600, []avl.Trip{trip})
	blocks := avl.NewBlockSet(testServiceDate(), []*avl.Block{block})

	preTrip := avl.SpatialMatch{BlockId: "b1", TripIndex: 0, StopPathIndex: 0, DistanceAlongSegment: 0}
	inTrip := avl.SpatialMatch{BlockId: "b1", TripIndex: 0, StopPathIndex: 1, DistanceAlongSegment: 0}

	report := &avl.Report{EpochMillis: 150_000} // halfway between the two stops' scheduled times: a genuine adherence tie
	got := bestTemporalMatchComparedToSchedule(cfg, blocks, []avl.SpatialMatch{preTrip, inTrip}, report)
	if got == nil {
		t.Fatalf("expected a match")
	}
	if got.StopPathIndex != inTrip.StopPathIndex {
		t.Errorf("expected the in-trip candidate to be preferred on a tie, got stop path %d", got.StopPathIndex)
	}
}

func TestMatchToLayoverStopEvenIfOffRoute(t *testing.T) {
	cfg := DefaultConfig()
	near := avl.Trip{TripId: "near", StopPaths: []avl.StopPath{{Shape: []avl.Point{{Lat: 0, Lon: 0}}}}}
	far := avl.Trip{TripId: "far", StopPaths: []avl.StopPath{{Shape: []avl.Point{{Lat: 10, Lon: 10}}}}}

	report := &avl.Report{Latitude: 0.0001, Longitude: 0.0001}
	got := matchToLayoverStopEvenIfOffRoute(cfg, report, []*avl.Trip{&far, &near})
	if got == nil || got.TripId != "near" {
		t.Fatalf("expected to match the nearer terminal, got %v", got)
	}

	farAway := &avl.Report{Latitude: 50, Longitude: 50}
	if got := matchToLayoverStopEvenIfOffRoute(cfg, farAway, []*avl.Trip{&near, &far}); got != nil {
		t.Errorf("expected no match when every terminal exceeds the layover radius, got %v", got)
	}
}

func TestAbs64(t *testing.T) {
	if abs64(-5) != 5 {
		t.Errorf("expected abs64(-5) == 5")
	}
	if abs64(5) != 5 {
		t.Errorf("expected abs64(5) == 5")
	}
}
