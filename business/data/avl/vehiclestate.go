package avl

import (
	"sync"
	"time"
)

// AssignmentMethod records how a vehicle acquired its current block, so the
// orchestrator can tell a schedule-based placeholder apart from a real match.
type AssignmentMethod int

const (
	AssignmentMethodNone AssignmentMethod = iota
	AssignmentMethodBlock
	AssignmentMethodRoute
	AssignmentMethodLayover
	AssignmentMethodScheduleBased
)

// UnassignReason is recorded on VehicleState whenever its block is cleared,
// and carried into the VehicleEvent that announces it.
type UnassignReason int

const (
	UnassignNone UnassignReason = iota
	UnassignCouldNotMatch
	UnassignAssignmentTerminated
	UnassignAssignmentGrabbed
)

func (r UnassignReason) String() string {
	switch r {
	case UnassignCouldNotMatch:
		return "COULD_NOT_MATCH"
	case UnassignAssignmentTerminated:
		return "ASSIGNMENT_TERMINATED"
	case UnassignAssignmentGrabbed:
		return "ASSIGNMENT_GRABBED"
	}
	return "NONE"
}

// VehicleState is the owned, mutable record of everything known about a
// vehicle. A VehicleState's mutex is the sole authority over its fields --
// every read or write outside of Snapshot must hold it.
type VehicleState struct {
	mu sync.Mutex

	VehicleId          string
	LastReport         *Report
	Match              *TemporalMatch
	BlockId            string
	AssignmentId       string
	AssignmentMethod   AssignmentMethod
	Predictable        bool
	BadMatchCount      int
	SchedAdherence     *TemporalDifference
	IsSchedBasedPreds  bool
	LastUnassignReason UnassignReason

	// problematicAssignmentId/problematicUntil implement the spec's
	// open-ended "previous_assignment_problematic" check: the default
	// policy is to skip rematch against the same failed assignment id
	// until a short cooldown elapses, rather than retrying every report.
	problematicAssignmentId string
	problematicUntil        time.Time
}

func NewVehicleState(vehicleId string) *VehicleState {
	return &VehicleState{VehicleId: vehicleId}
}

// Lock/Unlock expose the per-vehicle mutex to the orchestrator, which holds
// it across the entire per-report pipeline (matching, adherence, publish,
// end-of-block recursion) per the spec's concurrency model.
func (v *VehicleState) Lock()   { v.mu.Lock() }
func (v *VehicleState) Unlock() { v.mu.Unlock() }

// TryLock reports whether the lock was acquired without blocking, used by
// the exclusive-block sweep to acquire multiple vehicles' locks in a fixed
// order without risking deadlock against a reversed acquisition elsewhere.
func (v *VehicleState) TryLock() bool { return v.mu.TryLock() }

// SetMatch installs a new match. Passing nil forces Predictable false, per
// the invariant that predictable implies a non-nil match and block.
func (v *VehicleState) SetMatch(m *TemporalMatch) {
	v.Match = m
	if m == nil {
		v.Predictable = false
	}
}

// SetBlock installs a new block/assignment-method pair and resets the bad
// match counter, since a freshly (re)assigned vehicle has no match history yet.
func (v *VehicleState) SetBlock(blockId string, method AssignmentMethod) {
	v.BlockId = blockId
	v.AssignmentMethod = method
	v.BadMatchCount = 0
}

// UnsetBlock clears the block assignment and match, recording why.
func (v *VehicleState) UnsetBlock(reason UnassignReason) {
	v.BlockId = ""
	v.AssignmentMethod = AssignmentMethodNone
	v.LastUnassignReason = reason
	v.SetMatch(nil)
}

// RecordGoodMatch stores m and resets the bad match streak.
func (v *VehicleState) RecordGoodMatch(m *TemporalMatch) {
	v.SetMatch(m)
	v.BadMatchCount = 0
	v.Predictable = m != nil
}

// RecordBadMatch increments the bad match streak and reports whether it has
// now exceeded maxBadMatches, in which case the caller must unset the block
// with UnassignCouldNotMatch.
func (v *VehicleState) RecordBadMatch(maxBadMatches int) (exceeded bool) {
	v.BadMatchCount++
	return v.BadMatchCount > maxBadMatches
}

// MarkAssignmentProblematic records assignmentId as not to be retried until
// cooldown elapses, per the default policy for previous_assignment_problematic.
func (v *VehicleState) MarkAssignmentProblematic(assignmentId string, now time.Time, cooldown time.Duration) {
	v.problematicAssignmentId = assignmentId
	v.problematicUntil = now.Add(cooldown)
}

// IsAssignmentProblematic reports whether assignmentId was recently marked
// problematic and its cooldown has not yet elapsed.
func (v *VehicleState) IsAssignmentProblematic(assignmentId string, now time.Time) bool {
	if assignmentId == "" || v.problematicAssignmentId != assignmentId {
		return false
	}
	return now.Before(v.problematicUntil)
}

// IsStale reports whether LastReport is older than maxAge as of now.
func (v *VehicleState) IsStale(now time.Time, maxAge time.Duration) bool {
	if v.LastReport == nil {
		return false
	}
	age := now.Sub(time.UnixMilli(v.LastReport.EpochMillis))
	return age > maxAge
}

// Snapshot returns an immutable value copy safe to hand to a cache reader
// without requiring the reader to synchronize with the orchestrator.
type Snapshot struct {
	VehicleId        string
	BlockId          string
	AssignmentMethod AssignmentMethod
	Predictable      bool
	BadMatchCount    int
	SchedAdherence   *TemporalDifference
	Match            *TemporalMatch
	LastReport       *Report
}

func (v *VehicleState) Snapshot() Snapshot {
	return Snapshot{
		VehicleId:        v.VehicleId,
		BlockId:          v.BlockId,
		AssignmentMethod: v.AssignmentMethod,
		Predictable:      v.Predictable,
		BadMatchCount:    v.BadMatchCount,
		SchedAdherence:   v.SchedAdherence,
		Match:            v.Match,
		LastReport:       v.LastReport,
	}
}
