package avlcore

import (
	"fmt"
	"time"

	"github.com/transitcast/core/business/data/avl"
)

// resolveAssignment implements C4: turning a Report's assignment_id /
// assignment_type into the set of blocks and candidate trips eligible for
// spatial matching. A BLOCK assignment resolves to exactly one block; a
// TRIP assignment resolves to the block containing that trip; a ROUTE
// assignment enumerates every block presently active for that route, since
// the vehicle could be running any of several blocks assigned to it.
func resolveAssignment(schedule avl.Schedule, report *avl.Report, at time.Time) ([]*avl.Block, error) {
	if !report.HasValidAssignment() {
		return nil, nil
	}
	serviceIds, err := schedule.ServiceIdsFor(at)
	if err != nil {
		return nil, fmt.Errorf("resolving service ids: %w", err)
	}
	if len(serviceIds) == 0 {
		return nil, nil
	}

	switch report.AssignmentType {
	case avl.AssignmentBlock:
		block, err := schedule.BlockById(*report.AssignmentId, serviceIds)
		if err != nil {
			return nil, fmt.Errorf("resolving block %s: %w", *report.AssignmentId, err)
		}
		if block == nil {
			return nil, nil
		}
		return []*avl.Block{block}, nil

	case avl.AssignmentTrip:
		block, err := schedule.BlockByTripId(*report.AssignmentId, serviceIds)
		if err != nil {
			return nil, fmt.Errorf("resolving trip %s: %w", *report.AssignmentId, err)
		}
		if block == nil {
			return nil, nil
		}
		return []*avl.Block{block}, nil

	case avl.AssignmentRoute:
		var blocks []*avl.Block
		for _, serviceId := range serviceIds {
			routeBlocks, err := schedule.BlocksForRoute(serviceId, *report.AssignmentId)
			if err != nil {
				return nil, fmt.Errorf("resolving route %s/%s: %w", serviceId, *report.AssignmentId, err)
			}
			blocks = append(blocks, routeBlocks...)
		}
		return blocks, nil
	}
	return nil, nil
}

// candidateTripsFor narrows a resolved block down to the trips worth
// spatially matching against: every trip currently active at reportSeconds,
// per §4.2. When the assignment was by ROUTE, only trips of that route are
// offered, and the vehicle must be outside TerminalDistanceForRouteMatching
// of the trip's own terminal for a route match to apply at all (handled by
// the caller, since it requires the spatial candidate, not just the trip).
func candidateTripsFor(block *avl.Block, report *avl.Report, reportSeconds int) []*avl.Trip {
	active := block.TripsCurrentlyActive(reportSeconds)
	if report.AssignmentType != avl.AssignmentRoute || report.AssignmentId == nil {
		return active
	}
	var filtered []*avl.Trip
	for _, t := range active {
		if t.RouteId == *report.AssignmentId {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
