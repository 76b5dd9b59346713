package avl

import "time"

// ScheduleTime is a nullable scheduled arrival/departure, in seconds since
// midnight of the trip's service day. Non-timepoint stops carry neither.
type ScheduleTime struct {
	Arrival   *int
	Departure *int
}

func (s ScheduleTime) HasArrival() bool   { return s.Arrival != nil }
func (s ScheduleTime) HasDeparture() bool { return s.Departure != nil }

// TravelTimes holds the segment traversal time and stop dwell time for a
// StopPath, both in milliseconds.
type TravelTimes struct {
	SegmentMillis []int64
	DwellMillis   int64
}

// Point is a latitude/longitude pair, used for shape and stop coordinates.
type Point struct {
	Lat float64
	Lon float64
}

// StopPath is the segment(s) of shape points between two consecutive stops
// of a Trip, along with that stop's scheduled time.
type StopPath struct {
	StopId            string
	Shape             []Point
	DistanceTraveled  float64 // cumulative distance along the trip at this stop, meters
	ScheduledTime     ScheduleTime
	Travel            TravelTimes
	IsTimepoint       bool
}

// SegmentLength returns the length in meters of the segment at segmentIndex.
func (sp *StopPath) SegmentLength(segmentIndex int) float64 {
	if segmentIndex < 0 || segmentIndex+1 >= len(sp.Shape) {
		return 0
	}
	a, b := sp.Shape[segmentIndex], sp.Shape[segmentIndex+1]
	return simpleLatLngDistance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Trip is an ordered run of StopPaths, one per scheduled stop, starting with
// the trip's first stop (the first StopPath's ScheduledTime is the trip's own
// start stop).
type Trip struct {
	TripId      string
	RouteId     string
	ServiceId   string
	StartTime   int // scheduled start, seconds since midnight
	StopPaths   []StopPath
	IsExclusive bool // makes the trip's block exclusive (see NewBlock)
}

// FirstStopTime returns the scheduled time of the trip's first stop.
func (t *Trip) FirstStopTime() ScheduleTime {
	if len(t.StopPaths) == 0 {
		return ScheduleTime{}
	}
	return t.StopPaths[0].ScheduledTime
}

// LastStopPathIndex returns the index of the trip's final stop path.
func (t *Trip) LastStopPathIndex() int {
	return len(t.StopPaths) - 1
}

// Block is a day-scoped vehicle duty: an ordered list of Trips.
type Block struct {
	Id            string
	ServiceId     string
	StartTimeSec  int
	EndTimeSec    int
	Trips         []Trip
	exclusive     bool
}

// NewBlock builds a Block, deriving exclusivity from whether any of its
// trips are marked exclusive (a block carrying any exclusive trip is itself
// exclusive: only one vehicle may run it at a time).
func NewBlock(id, serviceId string, startSec, endSec int, trips []Trip) *Block {
	exclusive := false
	for _, t := range trips {
		if t.IsExclusive {
			exclusive = true
			break
		}
	}
	return &Block{Id: id, ServiceId: serviceId, StartTimeSec: startSec, EndTimeSec: endSec,
		Trips: trips, exclusive: exclusive}
}

// ShouldBeExclusive reports whether at most one predictable vehicle may ever
// own this block at a time.
func (b *Block) ShouldBeExclusive() bool {
	return b.exclusive
}

// IsActive reports whether t falls within the block's scheduled span, widened
// by a small grace window on either end to tolerate early pull-out/late pull-in.
func (b *Block) IsActive(t time.Time, serviceDate time.Time) bool {
	const grace = 30 * 60 // 30 minutes
	secs := int(t.Unix() - serviceDate.Unix())
	return secs >= b.StartTimeSec-grace && secs <= b.EndTimeSec+grace
}

// TripsCurrentlyActive returns the Trips of this block whose scheduled span
// covers the report's time, widened the same way as IsActive.
func (b *Block) TripsCurrentlyActive(reportSeconds int) []*Trip {
	const grace = 30 * 60
	var result []*Trip
	for i := range b.Trips {
		trip := &b.Trips[i]
		if len(trip.StopPaths) == 0 {
			continue
		}
		start := trip.StartTime
		end := trip.StopPaths[len(trip.StopPaths)-1].scheduledReferenceSeconds()
		if reportSeconds >= start-grace && reportSeconds <= end+grace {
			result = append(result, trip)
		}
	}
	return result
}

// scheduledReferenceSeconds returns whichever of arrival/departure is set,
// preferring departure since that is the stop-leaving reference time.
func (sp *StopPath) scheduledReferenceSeconds() int {
	if sp.ScheduledTime.Departure != nil {
		return *sp.ScheduledTime.Departure
	}
	if sp.ScheduledTime.Arrival != nil {
		return *sp.ScheduledTime.Arrival
	}
	return 0
}

// TripByIndex is a convenience accessor used when matches carry only indices.
func (b *Block) TripByIndex(i int) *Trip {
	if i < 0 || i >= len(b.Trips) {
		return nil
	}
	return &b.Trips[i]
}

// BlockSet is the read-only, process-wide arena of static schedule data. All
// matches reference blocks by id rather than by pointer, so the arena can be
// swapped wholesale (e.g. at a service-day rollover) without invalidating
// matches made a moment before the swap -- callers re-resolve the id.
type BlockSet struct {
	ServiceDate time.Time
	blocksById  map[string]*Block
}

func NewBlockSet(serviceDate time.Time, blocks []*Block) *BlockSet {
	bs := &BlockSet{ServiceDate: serviceDate, blocksById: make(map[string]*Block, len(blocks))}
	for _, b := range blocks {
		bs.blocksById[b.Id] = b
	}
	return bs
}

func (bs *BlockSet) Block(id string) *Block {
	if bs == nil {
		return nil
	}
	return bs.blocksById[id]
}

func (bs *BlockSet) Blocks() []*Block {
	result := make([]*Block, 0, len(bs.blocksById))
	for _, b := range bs.blocksById {
		result = append(result, b)
	}
	return result
}
