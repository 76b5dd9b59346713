package avlcore

import (
	"log"
	"sync"
	"time"

	"github.com/transitcast/core/business/data/avl"
	"github.com/transitcast/core/business/data/gtfs"
)

// Processor is the C6 orchestrator: the state-machine executive that turns
// each incoming AvlReport into VehicleState transitions, held together by
// the C2-C7 building blocks in this package.
type Processor struct {
	Config   Config
	Schedule avl.Schedule
	Vehicles *VehicleStateStore
	Events   avl.EventSink
	Matches  avl.MatchProcessor
	Cache    avl.VehicleDataCache
	Log      *log.Logger

	pendingMu sync.Mutex
	pending   []displacement
}

type displacement struct {
	BlockId           string
	GrabbingVehicleId string
}

// NewProcessor wires the collaborators named in the spec's C6 contract.
// logger must not be nil; callers construct it the same way every teacher
// app/*/main.go does (log.New(os.Stdout, ..., log.LstdFlags|log.Lmicroseconds)).
func NewProcessor(cfg Config, schedule avl.Schedule, vehicles *VehicleStateStore,
	events avl.EventSink, matches avl.MatchProcessor, cache avl.VehicleDataCache, logger *log.Logger) *Processor {
	return &Processor{
		Config:   cfg,
		Schedule: schedule,
		Vehicles: vehicles,
		Events:   events,
		Matches:  matches,
		Cache:    cache,
		Log:      logger,
	}
}

// ProcessReport is the public entry point: one AVL fix, processed end to end
// under the vehicle's lock.
func (p *Processor) ProcessReport(report *avl.Report) {
	state := p.Vehicles.GetOrCreate(report.VehicleId)
	state.Lock()
	defer state.Unlock()
	p.processReportLocked(state, report, false)
}

// processReportLocked implements §4.4's branch selection and is also the
// recursive entry point for end-of-block reassignment -- callable only while
// state's lock is already held by the calling goroutine, since sync.Mutex is
// not reentrant. recursive marks the guarded second entry; a third is refused.
func (p *Processor) processReportLocked(state *avl.VehicleState, report *avl.Report, recursive bool) {
	cfg := p.Config
	now := time.UnixMilli(report.EpochMillis)
	state.LastReport = report

	serviceIds, err := p.Schedule.ServiceIdsFor(now)
	if err != nil {
		p.logf("resolving service ids for vehicle %s: %v", state.VehicleId, err)
		return
	}

	newAssign := isNewAssignment(state, report)
	previousProblematic := report.AssignmentId != nil && state.IsAssignmentProblematic(*report.AssignmentId, now)
	matchAlreadyPredictable := state.Predictable && !newAssign
	matchToNewAssignment := report.HasValidAssignment() && (!state.Predictable || newAssign) && !previousProblematic

	var blocks *avl.BlockSet
	switch {
	case matchAlreadyPredictable:
		blocks = p.rematchPredictable(cfg, state, report, now, serviceIds)
	case matchToNewAssignment:
		blocks = p.matchNewAssignment(cfg, state, report, now)
	default:
		state.SetMatch(nil)
	}

	if state.Predictable && state.Match != nil {
		p.postMatchPipeline(cfg, state, report, now, blocks, recursive)
	}

	if p.Cache != nil {
		p.Cache.UpdateVehicle(state.Snapshot())
	}
}

// rematchPredictable is branch (a): re-match an already-predictable vehicle
// to its next position. A null result absorbs into the bad-match counter
// rather than discarding the previous match, so transient GPS drop-outs
// don't flicker predictability.
func (p *Processor) rematchPredictable(cfg Config, state *avl.VehicleState, report *avl.Report,
	now time.Time, serviceIds []string) *avl.BlockSet {

	invariant(state.Predictable, "rematch called for non-predictable vehicle %s", state.VehicleId)
	block, err := p.Schedule.BlockById(state.BlockId, serviceIds)
	if err != nil || block == nil {
		if exceeded := state.RecordBadMatch(cfg.MaxBadMatchesInARow); exceeded {
			p.emit(state, report, nil, avl.EventNoMatch, "block no longer resolvable", false, true)
			state.UnsetBlock(avl.UnassignCouldNotMatch)
		}
		return nil
	}
	blocks := avl.NewBlockSet(serviceDateFor(now), []*avl.Block{block})

	// a predictable vehicle's walk proceeds forward along the block, so the
	// candidate set is its current trip plus every later trip in the block,
	// not just the one it was last matched on.
	var candidateTrips []*avl.Trip
	if state.Match != nil {
		if idx := state.Match.TripIndex; idx >= 0 && idx < len(block.Trips) {
			candidateTrips = make([]*avl.Trip, 0, len(block.Trips)-idx)
			for i := idx; i < len(block.Trips); i++ {
				candidateTrips = append(candidateTrips, &block.Trips[i])
			}
		}
	}
	if candidateTrips == nil {
		candidateTrips = block.TripsCurrentlyActive(int(report.TimeSeconds()))
	}

	var previous *avl.SpatialMatch
	if state.Match != nil {
		previous = &state.Match.SpatialMatch
	}
	spatial := findMatches(cfg, block, candidateTrips, previous, report)
	tm := bestTemporalMatch(cfg, blocks, state, spatial, report.TimeSeconds())
	if tm == nil {
		if exceeded := state.RecordBadMatch(cfg.MaxBadMatchesInARow); exceeded {
			p.emit(state, report, state.Match, avl.EventNoMatch, "bad match streak exceeded", false, true)
			state.UnsetBlock(avl.UnassignCouldNotMatch)
		}
		// otherwise: retain the previous match untouched
		return blocks
	}
	state.RecordGoodMatch(tm)
	return blocks
}

// matchNewAssignment is branch (b): match to a fresh assignment hint on the
// report, including the exclusivity sweep once a new holder succeeds.
func (p *Processor) matchNewAssignment(cfg Config, state *avl.VehicleState, report *avl.Report,
	now time.Time) *avl.BlockSet {

	if state.Predictable {
		state.UnsetBlock(avl.UnassignAssignmentTerminated)
	}

	resolved, err := resolveAssignment(p.Schedule, report, now)
	if err != nil {
		p.logf("resolving assignment for vehicle %s: %v", state.VehicleId, err)
		return nil
	}
	if len(resolved) == 0 {
		return nil
	}
	blocks := avl.NewBlockSet(serviceDateFor(now), resolved)
	reportSeconds := int(report.TimeSeconds())

	var allSpatial []avl.SpatialMatch
	var tripsConsidered []*avl.Trip
	for _, block := range resolved {
		trips := candidateTripsFor(block, report, reportSeconds)
		tripsConsidered = append(tripsConsidered, trips...)
		allSpatial = append(allSpatial, findMatches(cfg, block, trips, nil, report)...)
	}
	allSpatial = filterHeadingProblems(allSpatial)
	if report.AssignmentType == avl.AssignmentRoute {
		allSpatial = filterTerminalProximity(cfg, blocks, allSpatial)
	}

	tm := bestTemporalMatchComparedToSchedule(cfg, blocks, allSpatial, report)
	method := assignmentMethodFor(report.AssignmentType)
	if tm == nil {
		trip := matchToLayoverStopEvenIfOffRoute(cfg, report, tripsConsidered)
		if trip == nil {
			if report.AssignmentId != nil {
				state.MarkAssignmentProblematic(*report.AssignmentId, now, cfg.AssignmentProblemCooldown)
			}
			return blocks
		}
		block := blockForTrip(resolved, trip)
		if block == nil {
			return blocks
		}
		tm = syntheticLayoverMatch(block, trip)
		method = avl.AssignmentMethodLayover
	}

	state.RecordGoodMatch(tm)
	state.SetBlock(tm.BlockId, method)
	if report.AssignmentId != nil {
		state.AssignmentId = *report.AssignmentId
	}
	p.emit(state, report, tm, avl.EventPredictable, "matched to new assignment", true, false)

	p.exclusivitySweep(state, blocks, tm.BlockId, now)
	return blocks
}

// postMatchPipeline is branch (c): adherence, terminal-dwell logging, the
// single sanity-bound re-match, delegation to MatchProcessor, and the
// guarded end-of-block recursion.
func (p *Processor) postMatchPipeline(cfg Config, state *avl.VehicleState, report *avl.Report,
	now time.Time, blocks *avl.BlockSet, recursive bool) {

	if blocks != nil {
		if diff := generateEffectiveScheduleDifference(blocks, state); diff != nil {
			state.SchedAdherence = diff
		}
	}

	if atStop := state.Match.AtStop; atStop != nil && atStop.IsWaitStop && atStop.ScheduledTime.HasDeparture() {
		departEpoch := epochSeconds(*atStop.ScheduledTime.Departure, now)
		if now.Sub(departEpoch) > cfg.AllowableLateAtTerminalForLoggingEvent {
			p.emit(state, report, state.Match, avl.EventNotLeavingTerminal,
				"vehicle has not left terminal past scheduled departure", true, false)
		}
	}

	adherence := generate(state)
	if adherence != nil && !isSane(cfg, *adherence) {
		p.emit(state, report, state.Match, avl.EventNoMatch, "schedule adherence outside sanity bounds", false, true)
		state.SetMatch(nil)
		if newBlocks := p.matchNewAssignment(cfg, state, report, now); newBlocks != nil {
			blocks = newBlocks
		}
	}

	if p.Matches != nil {
		p.Matches.GenerateResultsOfMatch(state.Snapshot())
	}

	if state.Match != nil && state.Match.AtStop != nil && state.Match.AtStop.AtEndOfBlock {
		p.emit(state, report, state.Match, avl.EventEndOfBlock, "vehicle reached end of block", state.Predictable, false)
		state.UnsetBlock(avl.UnassignAssignmentTerminated)
		if recursive {
			p.logf("end-of-block recursion attempted twice for vehicle %s, refusing", state.VehicleId)
			return
		}
		p.processReportLocked(state, report, true)
	}
}

// exclusivitySweep displaces other predictable holders of blockId once
// grabbingState has newly matched onto it, per §5's vehicle-id lock ordering:
// every such holder when the block is exclusive, otherwise only holders with
// schedule-based predictions. If a holder's lock cannot be taken, the sweep
// is queued for DrainDeferredDisplacements.
func (p *Processor) exclusivitySweep(grabbingState *avl.VehicleState, blocks *avl.BlockSet, blockId string, now time.Time) {
	block := blocks.Block(blockId)
	if block == nil {
		return
	}
	exclusive := block.ShouldBeExclusive()
	holders := p.Vehicles.VehiclesOnBlock(blockId, grabbingState.VehicleId)
	if len(holders) == 0 {
		return
	}
	unlock, ok := withOrderedLocks(grabbingState, holders)
	if !ok {
		p.deferDisplacement(blockId, grabbingState.VehicleId)
		return
	}
	defer unlock()
	for _, h := range holders {
		if h.BlockId != blockId || !h.Predictable {
			continue
		}
		if !exclusive && !h.IsSchedBasedPreds {
			continue
		}
		h.UnsetBlock(avl.UnassignAssignmentGrabbed)
		p.emit(h, h.LastReport, nil, avl.EventNoMatch, "assignment grabbed by "+grabbingState.VehicleId, false, true)
		if p.Cache != nil {
			p.Cache.UpdateVehicle(h.Snapshot())
		}
	}
}

func (p *Processor) deferDisplacement(blockId, grabbingVehicleId string) {
	p.pendingMu.Lock()
	p.pending = append(p.pending, displacement{BlockId: blockId, GrabbingVehicleId: grabbingVehicleId})
	p.pendingMu.Unlock()
}

// DrainDeferredDisplacements retries exclusivity sweeps that could not
// acquire every foreign lock in vehicle_id order on their first attempt.
// The runtime wiring (C9) calls this on the same ticker as the timeout sweep.
func (p *Processor) DrainDeferredDisplacements(now time.Time) {
	p.pendingMu.Lock()
	items := p.pending
	p.pending = nil
	p.pendingMu.Unlock()

	for _, d := range items {
		grabbing := p.Vehicles.Get(d.GrabbingVehicleId)
		if grabbing == nil {
			continue
		}
		blocks := p.blockSetFor(d.BlockId, now)
		if blocks == nil {
			continue
		}
		grabbing.Lock()
		p.exclusivitySweep(grabbing, blocks, d.BlockId, now)
		grabbing.Unlock()
	}
}

func (p *Processor) blockSetFor(blockId string, now time.Time) *avl.BlockSet {
	serviceIds, err := p.Schedule.ServiceIdsFor(now)
	if err != nil {
		return nil
	}
	block, err := p.Schedule.BlockById(blockId, serviceIds)
	if err != nil || block == nil {
		return nil
	}
	return avl.NewBlockSet(serviceDateFor(now), []*avl.Block{block})
}

func (p *Processor) emit(state *avl.VehicleState, report *avl.Report, match *avl.TemporalMatch,
	kind avl.EventKind, desc string, predictable, becameUnpredictable bool) {
	if p.Events == nil {
		return
	}
	p.Events.Publish(avl.VehicleEvent{
		Report:              report,
		Match:               match,
		Kind:                kind,
		Description:         desc,
		Predictable:         predictable,
		BecameUnpredictable: becameUnpredictable,
		CreatedAt:           time.Now(),
	})
}

func (p *Processor) logf(format string, args ...interface{}) {
	if p.Log != nil {
		p.Log.Printf(format, args...)
	}
}

func serviceDateFor(t time.Time) time.Time {
	return gtfs.Get12AmTime(t)
}

func isNewAssignment(state *avl.VehicleState, report *avl.Report) bool {
	if !report.HasValidAssignment() {
		return false
	}
	return *report.AssignmentId != state.AssignmentId
}

func filterHeadingProblems(matches []avl.SpatialMatch) []avl.SpatialMatch {
	out := matches[:0]
	for _, m := range matches {
		if !m.ProblemMatchDueToLackOfHeadingInfo {
			out = append(out, m)
		}
	}
	return out
}

// filterTerminalProximity drops matches too close to either terminal of
// their trip, since a route assignment (as opposed to a block/trip one)
// requires a vehicle clearly in progress rather than idling at an endpoint.
func filterTerminalProximity(cfg Config, blocks *avl.BlockSet, matches []avl.SpatialMatch) []avl.SpatialMatch {
	var out []avl.SpatialMatch
	for _, m := range matches {
		block := blocks.Block(m.BlockId)
		if block == nil {
			continue
		}
		trip := block.TripByIndex(m.TripIndex)
		if trip == nil || len(trip.StopPaths) == 0 {
			continue
		}
		total := trip.StopPaths[len(trip.StopPaths)-1].DistanceTraveled
		if m.DistanceAlongTrip < cfg.TerminalDistanceForRouteMatching {
			continue
		}
		if total-m.DistanceAlongTrip < cfg.TerminalDistanceForRouteMatching {
			continue
		}
		out = append(out, m)
	}
	return out
}

func blockForTrip(blocks []*avl.Block, trip *avl.Trip) *avl.Block {
	for _, b := range blocks {
		for i := range b.Trips {
			if b.Trips[i].TripId == trip.TripId {
				return b
			}
		}
	}
	return nil
}

func syntheticLayoverMatch(block *avl.Block, trip *avl.Trip) *avl.TemporalMatch {
	sm := avl.SpatialMatch{
		BlockId:       block.Id,
		TripIndex:     tripIndexOf(block, trip),
		StopPathIndex: 0,
		SegmentIndex:  0,
		AtLayover:     true,
	}
	var atStop *avl.VehicleAtStopInfo
	if len(trip.StopPaths) > 0 {
		sp := &trip.StopPaths[0]
		atStop = &avl.VehicleAtStopInfo{StopId: sp.StopId, ScheduledTime: sp.ScheduledTime, IsWaitStop: true}
	}
	return &avl.TemporalMatch{SpatialMatch: sm, Difference: avl.ZeroTemporalDifference(), AtStop: atStop}
}

func assignmentMethodFor(t avl.AssignmentType) avl.AssignmentMethod {
	switch t {
	case avl.AssignmentBlock:
		return avl.AssignmentMethodBlock
	case avl.AssignmentRoute:
		return avl.AssignmentMethodRoute
	case avl.AssignmentTrip:
		return avl.AssignmentMethodBlock
	}
	return avl.AssignmentMethodNone
}
