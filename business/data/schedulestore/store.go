// Package schedulestore is the Postgres-backed implementation of the
// avl.Schedule interface, assembling Block/Trip/StopPath aggregates from the
// relational schema gtfs-loader populates (trip, stop_time, shape, calendar,
// calendar_date), the way business/data/gtfs assembles its own flat records.
package schedulestore

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"

	"github.com/transitcast/core/business/data/avl"
	"github.com/transitcast/core/business/data/gtfs"
)

// NewHolidayCalendar builds the standard US transit-agency holiday set used
// to pick a fallback service id when the calendar tables record nothing for
// the date.
func NewHolidayCalendar() *cal.BusinessCalendar {
	calendar := cal.NewBusinessCalendar()
	calendar.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.MemorialDay,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
		us.Juneteenth,
	)
	return calendar
}

// Store reads the current gtfs.DataSet's trip/stop_time/shape tables on
// every call and assembles them into avl.Block values. It holds no mutable
// cache of its own -- Block/Trip/StopPath aggregates are cheap to rebuild
// and the orchestrator already wraps them in a BlockSet per report.
type Store struct {
	db  *sqlx.DB
	log *log.Logger

	// Holidays, when set together with HolidayServiceIds, marks observed
	// holidays: on such a date, if calendar and calendar_date yield no active
	// service id, ServiceIdsFor returns HolidayServiceIds instead, per
	// SPEC_FULL.md's holiday-calendar wiring.
	Holidays          *cal.BusinessCalendar
	HolidayServiceIds []string

	// ExclusiveBlockIds names blocks that should behave as exclusive even
	// though this schema carries no route-type/vehicle-type signal to infer
	// it from. NewStore leaves it nil; callers may set it after construction.
	ExclusiveBlockIds map[string]bool
}

func NewStore(db *sqlx.DB, logger *log.Logger) *Store {
	return &Store{db: db, log: logger}
}

// ServiceIdsFor implements avl.Schedule, adapted from gtfs.GetActiveServiceIds,
// unioning calendar and calendar_date, then falling back to HolidayServiceIds
// when that union is empty on an observed holiday.
func (s *Store) ServiceIdsFor(at time.Time) ([]string, error) {
	ds, err := gtfs.GetLatestDataSet(s.db)
	if err != nil {
		return nil, fmt.Errorf("loading active data set: %w", err)
	}
	serviceDate := gtfs.Get12AmTime(at)
	ids, err := gtfs.GetActiveServiceIds(s.db, ds, serviceDate)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 && s.Holidays != nil && len(s.HolidayServiceIds) > 0 {
		if _, observed, _ := s.Holidays.IsHoliday(at); observed {
			return s.HolidayServiceIds, nil
		}
	}
	return ids, nil
}

// BlockById implements avl.Schedule.
func (s *Store) BlockById(blockId string, serviceIds []string) (*avl.Block, error) {
	for _, serviceId := range serviceIds {
		block, err := s.loadBlock(serviceId, blockId)
		if err != nil {
			return nil, err
		}
		if block != nil {
			return block, nil
		}
	}
	return nil, nil
}

// BlockByTripId implements avl.Schedule: resolve the trip to its block id,
// then assemble that block in full.
func (s *Store) BlockByTripId(tripId string, serviceIds []string) (*avl.Block, error) {
	var trip gtfs.Trip
	query := s.db.Rebind("select * from trip where trip_id = ? and service_id in (?)")
	query, args, err := sqlx.In(query, tripId, serviceIds)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)
	if err := s.db.Get(&trip, query, args...); err != nil {
		return nil, nil //nolint:nilerr -- no matching trip is a normal "not found", not a failure
	}
	if trip.BlockId == nil || *trip.BlockId == "" {
		return s.blockFromSingleTrip(&trip)
	}
	return s.loadBlock(trip.ServiceId, *trip.BlockId)
}

// BlocksForRoute implements avl.Schedule: every block containing at least one
// trip of routeId active on serviceId.
func (s *Store) BlocksForRoute(serviceId, routeId string) ([]*avl.Block, error) {
	var blockIds []string
	query := "select distinct block_id from trip where service_id = $1 and route_id = $2 and block_id is not null"
	if err := s.db.Select(&blockIds, s.db.Rebind(query), serviceId, routeId); err != nil {
		return nil, fmt.Errorf("listing blocks for route %s/%s: %w", serviceId, routeId, err)
	}
	var blocks []*avl.Block
	for _, blockId := range blockIds {
		block, err := s.loadBlock(serviceId, blockId)
		if err != nil {
			return nil, err
		}
		if block != nil {
			blocks = append(blocks, block)
		}
	}
	return blocks, nil
}

// loadBlock assembles every trip sharing blockId/serviceId into a Block,
// ordered by scheduled start time.
func (s *Store) loadBlock(serviceId, blockId string) (*avl.Block, error) {
	var tripRows []gtfs.Trip
	query := "select * from trip where service_id = $1 and block_id = $2 order by start_time"
	if err := s.db.Select(&tripRows, s.db.Rebind(query), serviceId, blockId); err != nil {
		return nil, fmt.Errorf("loading trips for block %s: %w", blockId, err)
	}
	if len(tripRows) == 0 {
		return nil, nil
	}

	trips := make([]avl.Trip, 0, len(tripRows))
	for i := range tripRows {
		trip, err := s.buildTrip(&tripRows[i])
		if err != nil {
			return nil, err
		}
		trips = append(trips, *trip)
	}
	sort.Slice(trips, func(i, j int) bool { return trips[i].StartTime < trips[j].StartTime })

	startSec := tripRows[0].StartTime
	endSec := tripRows[0].EndTime
	for _, t := range tripRows {
		if t.StartTime < startSec {
			startSec = t.StartTime
		}
		if t.EndTime > endSec {
			endSec = t.EndTime
		}
	}
	if s.ExclusiveBlockIds[blockId] {
		for i := range trips {
			trips[i].IsExclusive = true
		}
	}
	return avl.NewBlock(blockId, serviceId, startSec, endSec, trips), nil
}

// blockFromSingleTrip handles a trip with no block_id recorded: the orphan
// trip is treated as its own single-trip block, keyed by trip id.
func (s *Store) blockFromSingleTrip(tripRow *gtfs.Trip) (*avl.Block, error) {
	trip, err := s.buildTrip(tripRow)
	if err != nil {
		return nil, err
	}
	return avl.NewBlock(tripRow.TripId, tripRow.ServiceId, tripRow.StartTime, tripRow.EndTime, []avl.Trip{*trip}), nil
}

func (s *Store) buildTrip(tripRow *gtfs.Trip) (*avl.Trip, error) {
	var stopTimes []gtfs.StopTime
	query := "select * from stop_time where trip_id = $1 order by stop_sequence"
	if err := s.db.Select(&stopTimes, s.db.Rebind(query), tripRow.TripId); err != nil {
		return nil, fmt.Errorf("loading stop_times for trip %s: %w", tripRow.TripId, err)
	}
	if len(stopTimes) == 0 {
		return nil, fmt.Errorf("trip %s has no stop_time rows", tripRow.TripId)
	}

	shapePoints, err := s.loadShape(tripRow.ShapeId)
	if err != nil {
		return nil, err
	}

	stopPaths := make([]avl.StopPath, 0, len(stopTimes))
	prevDist := 0.0
	for i, st := range stopTimes {
		sp := avl.StopPath{
			StopId:           st.StopId,
			DistanceTraveled: st.ShapeDistTraveled,
			ScheduledTime:    scheduleTimeOf(st),
			IsTimepoint:      st.Timepoint != 0,
		}
		if i == 0 {
			sp.Shape = pointsInRange(shapePoints, 0, 0)
		} else {
			sp.Shape = pointsInRange(shapePoints, prevDist, st.ShapeDistTraveled)
			sp.Travel.DwellMillis = int64(stopTimes[i-1].DepartureTime-stopTimes[i-1].ArrivalTime) * 1000
		}
		prevDist = st.ShapeDistTraveled
		stopPaths = append(stopPaths, sp)
	}

	return &avl.Trip{
		TripId:    tripRow.TripId,
		RouteId:   tripRow.RouteId,
		ServiceId: tripRow.ServiceId,
		StartTime: tripRow.StartTime,
		StopPaths: stopPaths,
	}, nil
}

func scheduleTimeOf(st gtfs.StopTime) avl.ScheduleTime {
	arrival, departure := st.ArrivalTime, st.DepartureTime
	return avl.ScheduleTime{Arrival: &arrival, Departure: &departure}
}

type shapePoint struct {
	dist float64
	pt   avl.Point
}

func (s *Store) loadShape(shapeId string) ([]shapePoint, error) {
	if shapeId == "" {
		return nil, nil
	}
	var rows []gtfs.Shape
	query := "select * from shape where shape_id = $1 order by shape_pt_sequence"
	if err := s.db.Select(&rows, s.db.Rebind(query), shapeId); err != nil {
		return nil, fmt.Errorf("loading shape %s: %w", shapeId, err)
	}
	points := make([]shapePoint, 0, len(rows))
	for _, r := range rows {
		dist := 0.0
		if r.ShapeDistTraveled != nil {
			dist = *r.ShapeDistTraveled
		}
		points = append(points, shapePoint{dist: dist, pt: avl.Point{Lat: r.ShapePtLat, Lon: r.ShapePtLng}})
	}
	return points, nil
}

// pointsInRange returns the shape points whose recorded distance falls
// within [fromDist, toDist], plus the nearest bounding points on either
// side so the returned slice always forms a connected polyline.
func pointsInRange(points []shapePoint, fromDist, toDist float64) []avl.Point {
	if len(points) == 0 {
		return nil
	}
	if fromDist == toDist {
		return []avl.Point{nearestPoint(points, fromDist)}
	}
	var result []avl.Point
	for _, p := range points {
		if p.dist >= fromDist && p.dist <= toDist {
			result = append(result, p.pt)
		}
	}
	if len(result) < 2 {
		return []avl.Point{nearestPoint(points, fromDist), nearestPoint(points, toDist)}
	}
	return result
}

func nearestPoint(points []shapePoint, dist float64) avl.Point {
	best := points[0]
	bestDiff := absF(points[0].dist - dist)
	for _, p := range points[1:] {
		if d := absF(p.dist - dist); d < bestDiff {
			best, bestDiff = p, d
		}
	}
	return best.pt
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
