// Package avl holds the data model shared by the AVL processing core: the
// incoming position report, the static block/trip schedule it is matched
// against, the match results, and the per-vehicle state those results feed.
package avl

import "fmt"

// AssignmentType describes how an AvlReport's assignment_id should be resolved.
type AssignmentType int

const (
	AssignmentNone AssignmentType = iota
	AssignmentBlock
	AssignmentRoute
	AssignmentTrip
)

func (a AssignmentType) String() string {
	switch a {
	case AssignmentBlock:
		return "BLOCK"
	case AssignmentRoute:
		return "ROUTE"
	case AssignmentTrip:
		return "TRIP"
	}
	return "NONE"
}

// Report is a single AVL fix for a vehicle. Immutable once accepted by the
// orchestrator.
type Report struct {
	VehicleId      string
	EpochMillis    int64
	Latitude       float64
	Longitude      float64
	Heading        *float64
	Speed          *float64
	AssignmentId   *string
	AssignmentType AssignmentType
}

// TimeSeconds returns the report's timestamp in seconds, the unit the rest of the
// core (schedule times, TemporalDifference) works in.
func (r *Report) TimeSeconds() int64 {
	return r.EpochMillis / 1000
}

func (r *Report) HasValidAssignment() bool {
	return r.AssignmentType != AssignmentNone && r.AssignmentId != nil && *r.AssignmentId != ""
}

func (r *Report) String() string {
	return fmt.Sprintf("Report{vehicle:%s epochMs:%d lat:%f lon:%f assignment:%s/%v}",
		r.VehicleId, r.EpochMillis, r.Latitude, r.Longitude, r.AssignmentType, r.AssignmentId)
}
