package avlcore

import (
	"sort"
	"sync"
	"time"

	"github.com/transitcast/core/business/data/avl"
)

// VehicleStateStore owns every vehicle's VehicleState. Its own mutex guards
// only the map itself (creation/lookup/eviction); once a VehicleState is
// retrieved, callers lock it directly per §5's single-authority model.
type VehicleStateStore struct {
	mu       sync.Mutex
	vehicles map[string]*avl.VehicleState
}

func NewVehicleStateStore() *VehicleStateStore {
	return &VehicleStateStore{vehicles: make(map[string]*avl.VehicleState)}
}

// GetOrCreate returns the VehicleState for vehicleId, creating one if absent.
func (s *VehicleStateStore) GetOrCreate(vehicleId string) *avl.VehicleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[vehicleId]
	if !ok {
		v = avl.NewVehicleState(vehicleId)
		s.vehicles[vehicleId] = v
	}
	return v
}

// Get returns the VehicleState for vehicleId, or nil if none exists.
func (s *VehicleStateStore) Get(vehicleId string) *avl.VehicleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vehicles[vehicleId]
}

// All returns a snapshot slice of every currently tracked vehicle.
func (s *VehicleStateStore) All() []*avl.VehicleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*avl.VehicleState, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		result = append(result, v)
	}
	return result
}

// VehiclesOnBlock returns every vehicle currently assigned to blockId, other
// than excludeVehicleId.
func (s *VehicleStateStore) VehiclesOnBlock(blockId, excludeVehicleId string) []*avl.VehicleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*avl.VehicleState
	for id, v := range s.vehicles {
		if id == excludeVehicleId {
			continue
		}
		if v.BlockId == blockId {
			result = append(result, v)
		}
	}
	return result
}

// SweepStaleVehicles marks unpredictable every predictable vehicle whose last
// report is older than maxAge. TimeoutClock, which implements the
// TimeoutHandler contract, calls this periodically.
func (s *VehicleStateStore) SweepStaleVehicles(now time.Time, maxAge time.Duration) {
	for _, v := range s.All() {
		v.Lock()
		if v.IsStale(now, maxAge) && v.Predictable {
			v.UnsetBlock(avl.UnassignCouldNotMatch)
		}
		v.Unlock()
	}
}

// withOrderedLocks acquires self (already held by the caller) plus every
// vehicle in others, always in ascending VehicleId order, so that two
// vehicles racing to grab the same exclusive block can never deadlock each
// other: both converge on acquiring the lower id first. self must already be
// locked by the caller and is excluded from the ordering walk; others are
// locked and the unlock func for all of them is returned.
//
// If a foreign lock can't be taken immediately (another goroutine holds it
// while itself waiting on a third), the caller should not block indefinitely
// inline in the per-report pipeline -- so this helper uses TryLock with a
// short retry budget and returns ok=false if it could not acquire every lock,
// having released any partial set it did take.
func withOrderedLocks(self *avl.VehicleState, others []*avl.VehicleState) (unlock func(), ok bool) {
	ordered := make([]*avl.VehicleState, len(others))
	copy(ordered, others)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].VehicleId < ordered[j].VehicleId })

	locked := make([]*avl.VehicleState, 0, len(ordered))
	for _, v := range ordered {
		if v == self {
			continue
		}
		acquired := false
		deadline := time.Now().Add(50 * time.Millisecond)
		for time.Now().Before(deadline) {
			if v.TryLock() {
				acquired = true
				break
			}
			time.Sleep(time.Millisecond)
		}
		if !acquired {
			for i := len(locked) - 1; i >= 0; i-- {
				locked[i].Unlock()
			}
			return nil, false
		}
		locked = append(locked, v)
	}
	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}, true
}
