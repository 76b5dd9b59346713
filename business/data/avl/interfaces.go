package avl

import "time"

// Schedule is the read-only static schedule/GTFS provider. Its internals
// (file parsing, database layout) are out of scope for the processing core;
// results are expected to be stable for the service day they were resolved for.
type Schedule interface {
	// BlocksForRoute returns every Block active on serviceId that contains a
	// trip of routeId.
	BlocksForRoute(serviceId, routeId string) ([]*Block, error)
	// BlockById resolves a block id to a Block active on any of serviceIds.
	BlockById(blockId string, serviceIds []string) (*Block, error)
	// BlockByTripId resolves the block containing tripId, active on any of serviceIds.
	BlockByTripId(tripId string, serviceIds []string) (*Block, error)
	// ServiceIdsFor returns every service id active on the calendar date containing at.
	ServiceIdsFor(at time.Time) ([]string, error)
}

// EventSink is the write-only, at-least-once persisted event log. Receivers
// must deduplicate on (vehicle_id, epoch_ms, kind).
type EventSink interface {
	Publish(event VehicleEvent)
}

// MatchProcessor consumes a vehicle's finalized match to generate
// predictions and arrival/departure inference. Its internals are out of
// scope for the processing core.
type MatchProcessor interface {
	GenerateResultsOfMatch(state Snapshot)
}

// VehicleDataCache is the outward-facing, thread-safe vehicle cache.
type VehicleDataCache interface {
	UpdateVehicle(snapshot Snapshot)
	GetVehiclesByBlockId(blockId string) []string
}

// TimeoutHandler runs periodically to mark vehicles unpredictable whose last
// AVL report exceeds the configured staleness bound.
type TimeoutHandler interface {
	SweepStaleVehicles(now time.Time)
}
