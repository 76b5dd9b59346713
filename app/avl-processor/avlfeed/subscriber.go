// Package avlfeed is the concrete edge of the AVL feed transport the
// processing core treats as out of scope: a NATS subscription that decodes
// each message into an avl.Report and feeds it to a worker pool, the
// transport-in counterpart of eventsink's transport-out NATS publish.
package avlfeed

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"github.com/transitcast/core/business/data/avl"
)

// Subscriber decodes AVL reports off a NATS subject onto reports, a
// buffered channel the worker pool reads from.
type Subscriber struct {
	log     *log.Logger
	nc      *nats.Conn
	subject string
	reports chan avl.Report
	sub     *nats.Subscription
}

func NewSubscriber(logger *log.Logger, nc *nats.Conn, subject string, bufferSize int) *Subscriber {
	return &Subscriber{log: logger, nc: nc, subject: subject, reports: make(chan avl.Report, bufferSize)}
}

// Reports returns the channel workers should range over.
func (s *Subscriber) Reports() <-chan avl.Report {
	return s.reports
}

// Start begins delivering decoded reports onto Reports() until Stop is called.
func (s *Subscriber) Start() error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		var report avl.Report
		if err := json.Unmarshal(msg.Data, &report); err != nil {
			s.log.Printf("avlfeed: unable to decode report: %v", err)
			return
		}
		s.reports <- report
	})
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

// Stop unsubscribes and closes the reports channel.
func (s *Subscriber) Stop() {
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			s.log.Printf("avlfeed: error unsubscribing: %v", err)
		}
	}
	close(s.reports)
}
