package avl

import (
	"testing"
	"time"
)

func TestRecordBadMatch_ExceedsAfterThreshold(t *testing.T) {
	v := NewVehicleState("v1")
	const maxBadMatches = 3

	for i := 0; i < maxBadMatches; i++ {
		if exceeded := v.RecordBadMatch(maxBadMatches); exceeded {
			t.Fatalf("bad match %d should not have exceeded threshold %d", i+1, maxBadMatches)
		}
	}
	if exceeded := v.RecordBadMatch(maxBadMatches); !exceeded {
		t.Fatalf("expected bad match streak to exceed threshold %d on the %dth consecutive miss",
			maxBadMatches, maxBadMatches+1)
	}
}

func TestRecordGoodMatch_ResetsStreak(t *testing.T) {
	v := NewVehicleState("v1")
	v.RecordBadMatch(3)
	v.RecordBadMatch(3)
	v.RecordGoodMatch(&TemporalMatch{})
	if v.BadMatchCount != 0 {
		t.Errorf("expected bad match count reset to 0, got %d", v.BadMatchCount)
	}
	if !v.Predictable {
		t.Errorf("expected vehicle to be predictable after a good match")
	}
}

func TestSetMatch_NilForcesUnpredictable(t *testing.T) {
	v := NewVehicleState("v1")
	v.Predictable = true
	v.SetMatch(nil)
	if v.Predictable {
		t.Errorf("expected predictable false after SetMatch(nil)")
	}
}

func TestIsAssignmentProblematic_CooldownExpires(t *testing.T) {
	v := NewVehicleState("v1")
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	v.MarkAssignmentProblematic("a1", now, time.Minute)

	if !v.IsAssignmentProblematic("a1", now.Add(30*time.Second)) {
		t.Errorf("expected assignment to still be problematic inside the cooldown window")
	}
	if v.IsAssignmentProblematic("a1", now.Add(90*time.Second)) {
		t.Errorf("expected assignment to no longer be problematic after the cooldown elapses")
	}
	if v.IsAssignmentProblematic("a2", now.Add(10*time.Second)) {
		t.Errorf("expected a different assignment id to never be considered problematic")
	}
}

func TestIsStale(t *testing.T) {
	v := NewVehicleState("v1")
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	if v.IsStale(now, time.Minute) {
		t.Errorf("expected a vehicle with no report yet to never be considered stale")
	}

	v.LastReport = &Report{EpochMillis: now.Add(-5 * time.Minute).UnixMilli()}
	if !v.IsStale(now, time.Minute) {
		t.Errorf("expected a 5 minute old report to be stale against a 1 minute bound")
	}
	if v.IsStale(now, 10*time.Minute) {
		t.Errorf("expected a 5 minute old report to not be stale against a 10 minute bound")
	}
}
