// Package eventsink is the default, concrete avl.EventSink: it publishes
// every VehicleEvent over NATS and durably records it to Postgres for
// replay, the way aggregator/prediction_publisher.go publishes predictions
// and gtfs.RecordTripDeviation batches its own insert.
package eventsink

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"

	"github.com/transitcast/core/business/data/avl"
)

// eventRow is the durable row representation of a VehicleEvent, batched to
// Postgres the same way gtfs.RecordTripDeviation batches its own rows.
type eventRow struct {
	CreatedAt   time.Time `db:"created_at"`
	VehicleId   string    `db:"vehicle_id"`
	BlockId     string    `db:"block_id"`
	Kind        string    `db:"kind"`
	Description string    `db:"description"`
	Predictable bool      `db:"predictable"`
	Supervisor  string    `db:"supervisor"`
}

// Sink publishes events on a NATS subject and batches them into the
// vehicle_event table. Publish runs on its caller's goroutine (the
// orchestrator holds a vehicle lock while it calls Publish): the NATS publish
// is made inline, and when a row brings the pending batch to batchSize,
// Publish itself writes the batch to the database before returning.
type Sink struct {
	log     *log.Logger
	db      *sqlx.DB
	nc      *nats.Conn
	subject string

	mu      sync.Mutex
	pending []*eventRow

	batchSize int
}

// New builds a Sink. db may be nil to disable durable recording; nc may be
// nil to disable NATS publication -- either is independently useful for
// tests and for a deployment that only wants one of the two paths.
func New(logger *log.Logger, db *sqlx.DB, nc *nats.Conn, subject string) *Sink {
	return &Sink{log: logger, db: db, nc: nc, subject: subject, batchSize: 50}
}

// Publish implements avl.EventSink. Receivers must deduplicate on
// (vehicle_id, epoch_ms, kind); this sink does not guarantee exactly-once.
func (s *Sink) Publish(event avl.VehicleEvent) {
	if s.nc != nil {
		if err := s.publishNATS(event); err != nil {
			s.log.Printf("eventsink: unable to publish event for vehicle %s: %v", vehicleId(event), err)
		}
	}
	if s.db != nil {
		s.enqueueRow(event)
	}
}

func vehicleId(event avl.VehicleEvent) string {
	if event.Report != nil {
		return event.Report.VehicleId
	}
	return ""
}

func (s *Sink) publishNATS(event avl.VehicleEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event to json: %w", err)
	}
	return s.nc.Publish(s.subject, jsonData)
}

func (s *Sink) enqueueRow(event avl.VehicleEvent) {
	row := &eventRow{
		CreatedAt:   event.CreatedAt,
		VehicleId:   vehicleId(event),
		Kind:        event.Kind.String(),
		Description: event.Description,
		Predictable: event.Predictable,
		Supervisor:  event.Supervisor,
	}
	if event.Match != nil {
		row.BlockId = event.Match.BlockId
	}

	s.mu.Lock()
	s.pending = append(s.pending, row)
	shouldFlush := len(s.pending) >= s.batchSize
	s.mu.Unlock()

	if shouldFlush {
		if err := s.Flush(); err != nil {
			s.log.Printf("eventsink: unable to record vehicle_event batch: %v", err)
		}
	}
}

// Flush records any pending rows immediately; called periodically by the
// runtime wiring's ticker so events don't wait indefinitely for batchSize
// to fill during quiet periods.
func (s *Sink) Flush() error {
	if s.db == nil {
		return nil
	}
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	statementString := "insert into vehicle_event (" +
		"created_at, " +
		"vehicle_id, " +
		"block_id, " +
		"kind, " +
		"description, " +
		"predictable, " +
		"supervisor) values (" +
		":created_at, " +
		":vehicle_id, " +
		":block_id, " +
		":kind, " +
		":description, " +
		":predictable, " +
		":supervisor)"
	statementString = s.db.Rebind(statementString)
	_, err := s.db.NamedExec(statementString, batch)
	return err
}
