package avlcore

import (
	"testing"
	"time"

	"github.com/transitcast/core/business/data/avl"
)

func TestVehicleStateStore_GetOrCreate(t *testing.T) {
	store := NewVehicleStateStore()
	v1 := store.GetOrCreate("v1")
	if v1 == nil || v1.VehicleId != "v1" {
		t.Fatalf("expected a new VehicleState for v1, got %v", v1)
	}
	v1Again := store.GetOrCreate("v1")
	if v1Again != v1 {
		t.Errorf("expected GetOrCreate to return the same instance on a second call")
	}
	if got := store.Get("missing"); got != nil {
		t.Errorf("expected Get of an unknown vehicle to return nil, got %v", got)
	}
}

func TestVehicleStateStore_VehiclesOnBlock(t *testing.T) {
	store := NewVehicleStateStore()
	a := store.GetOrCreate("a")
	a.BlockId = "b1"
	b := store.GetOrCreate("b")
	b.BlockId = "b1"
	c := store.GetOrCreate("c")
	c.BlockId = "b2"

	others := store.VehiclesOnBlock("b1", "a")
	if len(others) != 1 || others[0].VehicleId != "b" {
		t.Fatalf("expected only vehicle b excluding a, got %+v", others)
	}
}

func TestVehicleStateStore_SweepStaleVehicles(t *testing.T) {
	store := NewVehicleStateStore()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	stale := store.GetOrCreate("stale")
	stale.LastReport = &avl.Report{EpochMillis: now.Add(-time.Hour).UnixMilli()}
	stale.Predictable = true
	stale.BlockId = "b1"

	fresh := store.GetOrCreate("fresh")
	fresh.LastReport = &avl.Report{EpochMillis: now.Add(-time.Second).UnixMilli()}
	fresh.Predictable = true
	fresh.BlockId = "b1"

	store.SweepStaleVehicles(now, time.Minute)

	if stale.BlockId != "" || stale.Predictable {
		t.Errorf("expected the stale vehicle to be unassigned and unpredictable, got block=%q predictable=%v",
			stale.BlockId, stale.Predictable)
	}
	if stale.LastUnassignReason != avl.UnassignCouldNotMatch {
		t.Errorf("expected UnassignCouldNotMatch as the reason, got %v", stale.LastUnassignReason)
	}
	if fresh.BlockId != "b1" || !fresh.Predictable {
		t.Errorf("expected the fresh vehicle to be left alone, got block=%q predictable=%v",
			fresh.BlockId, fresh.Predictable)
	}
}

func TestWithOrderedLocks_AcquiresAllInAscendingOrder(t *testing.T) {
	self := avl.NewVehicleState("m")
	self.Lock()
	defer self.Unlock()

	other1 := avl.NewVehicleState("z")
	other2 := avl.NewVehicleState("a")

	unlock, ok := withOrderedLocks(self, []*avl.VehicleState{other1, other2, self})
	if !ok {
		t.Fatalf("expected lock acquisition to succeed")
	}
	defer unlock()

	if other1.TryLock() {
		other1.Unlock()
		t.Errorf("expected other1 to already be held by withOrderedLocks")
	}
	if other2.TryLock() {
		other2.Unlock()
		t.Errorf("expected other2 to already be held by withOrderedLocks")
	}
}

func TestWithOrderedLocks_FailsAndReleasesPartialSetWhenContended(t *testing.T) {
	self := avl.NewVehicleState("m")
	self.Lock()
	defer self.Unlock()

	contended := avl.NewVehicleState("z")
	contended.Lock() // held by someone else for the duration of the call
	defer contended.Unlock()

	free := avl.NewVehicleState("a")

	unlock, ok := withOrderedLocks(self, []*avl.VehicleState{contended, free})
	if ok {
		unlock()
		t.Fatalf("expected acquisition to fail while a lock is contended")
	}

	if !free.TryLock() {
		t.Errorf("expected the partially acquired lock on 'free' to have been released")
	} else {
		free.Unlock()
	}
}
