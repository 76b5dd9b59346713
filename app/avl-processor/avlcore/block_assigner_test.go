package avlcore

import (
	"testing"
	"time"

	"github.com/transitcast/core/business/data/avl"
)

// fakeSchedule is a canned avl.Schedule for exercising resolveAssignment
// without a database.
type fakeSchedule struct {
	serviceIds    []string
	blocksById    map[string]*avl.Block
	blocksByTrip  map[string]*avl.Block
	blocksByRoute map[string][]*avl.Block
	err           error
}

func (f *fakeSchedule) BlocksForRoute(serviceId, routeId string) ([]*avl.Block, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.blocksByRoute[serviceId+"/"+routeId], nil
}

func (f *fakeSchedule) BlockById(blockId string, serviceIds []string) (*avl.Block, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.blocksById[blockId], nil
}

func (f *fakeSchedule) BlockByTripId(tripId string, serviceIds []string) (*avl.Block, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.blocksByTrip[tripId], nil
}

func (f *fakeSchedule) ServiceIdsFor(at time.Time) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.serviceIds, nil
}

func TestResolveAssignment_NoAssignmentReturnsNil(t *testing.T) {
	report := &avl.Report{AssignmentType: avl.AssignmentNone}
	blocks, err := resolveAssignment(&fakeSchedule{}, report, time.Now())
	if err != nil || blocks != nil {
		t.Fatalf("expected nil, nil for an unassigned report, got %v, %v", blocks, err)
	}
}

func TestResolveAssignment_ByBlock(t *testing.T) {
	block := avl.NewBlock("b1", "weekday", 0, 3600, nil)
	schedule := &fakeSchedule{
		serviceIds: []string{"weekday"},
		blocksById: map[string]*avl.Block{"b1": block},
	}
	assignmentId := "b1"
	report := &avl.Report{AssignmentType: avl.AssignmentBlock, AssignmentId: &assignmentId}

	blocks, err := resolveAssignment(schedule, report, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 1 || blocks[0] != block {
		t.Fatalf("expected the single resolved block, got %v", blocks)
	}
}

func TestResolveAssignment_ByTrip(t *testing.T) {
	block := avl.NewBlock("b1", "weekday", 0, 3600, nil)
	schedule := &fakeSchedule{
		serviceIds:   []string{"weekday"},
		blocksByTrip: map[string]*avl.Block{"t1": block},
	}
	assignmentId := "t1"
	report := &avl.Report{AssignmentType: avl.AssignmentTrip, AssignmentId: &assignmentId}

	blocks, err := resolveAssignment(schedule, report, time.Now())
	if err != nil || len(blocks) != 1 || blocks[0] != block {
		t.Fatalf("expected the block containing the assigned trip, got %v, %v", blocks, err)
	}
}

func TestResolveAssignment_ByRoute(t *testing.T) {
	block1 := avl.NewBlock("b1", "weekday", 0, 3600, nil)
	block2 := avl.NewBlock("b2", "weekend", 0, 3600, nil)
	schedule := &fakeSchedule{
		serviceIds: []string{"weekday", "weekend"},
		blocksByRoute: map[string][]*avl.Block{
			"weekday/r1": {block1},
			"weekend/r1": {block2},
		},
	}
	assignmentId := "r1"
	report := &avl.Report{AssignmentType: avl.AssignmentRoute, AssignmentId: &assignmentId}

	blocks, err := resolveAssignment(schedule, report, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected blocks from every active service id, got %d", len(blocks))
	}
}

func TestResolveAssignment_NoActiveServiceIds(t *testing.T) {
	schedule := &fakeSchedule{serviceIds: nil}
	assignmentId := "b1"
	report := &avl.Report{AssignmentType: avl.AssignmentBlock, AssignmentId: &assignmentId}

	blocks, err := resolveAssignment(schedule, report, time.Now())
	if err != nil || blocks != nil {
		t.Fatalf("expected nil, nil when no service ids are active, got %v, %v", blocks, err)
	}
}

func TestCandidateTripsFor_FiltersByRouteAssignment(t *testing.T) {
	trips := []avl.Trip{
		{TripId: "t1", RouteId: "r1", StartTime: 0, StopPaths: []avl.StopPath{{ScheduledTime: avl.ScheduleTime{Departure: intp(600)}}}},
		{TripId: "t2", RouteId: "r2", StartTime: 0, StopPaths: []avl.StopPath{{ScheduledTime: avl.ScheduleTime{Departure: intp(600)}}}},
	}
	block := avl.NewBlock("b1", "weekday", 0, 3600, trips)

	assignmentId := "r1"
	report := &avl.Report{AssignmentType: avl.AssignmentRoute, AssignmentId: &assignmentId}
	candidates := candidateTripsFor(block, report, 300)

	if len(candidates) != 1 || candidates[0].TripId != "t1" {
		t.Fatalf("expected only the route-matching trip, got %+v", candidates)
	}
}

func TestCandidateTripsFor_NonRouteAssignmentReturnsAllActive(t *testing.T) {
	trips := []avl.Trip{
		{TripId: "t1", RouteId: "r1", StartTime: 0, StopPaths: []avl.StopPath{{ScheduledTime: avl.ScheduleTime{Departure: intp(600)}}}},
	}
	block := avl.NewBlock("b1", "weekday", 0, 3600, trips)

	assignmentId := "b1"
	report := &avl.Report{AssignmentType: avl.AssignmentBlock, AssignmentId: &assignmentId}
	candidates := candidateTripsFor(block, report, 300)

	if len(candidates) != 1 {
		t.Fatalf("expected the single active trip, got %+v", candidates)
	}
}
