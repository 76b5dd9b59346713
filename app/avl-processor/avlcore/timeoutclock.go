package avlcore

import (
	"log"
	"time"
)

// TimeoutClock periodically sweeps the vehicle store for stale vehicles and
// drains any displacements the exclusivity sweep deferred, on a single
// sleep/shutdown-channel loop, the same shape as monitor.go's
// RunVehicleMonitorLoop generalized from a single feed-poll to two periodic
// maintenance tasks.
type TimeoutClock struct {
	log       *log.Logger
	vehicles  *VehicleStateStore
	processor *Processor
	maxAge    time.Duration
	interval  time.Duration
}

func NewTimeoutClock(logger *log.Logger, vehicles *VehicleStateStore, processor *Processor,
	maxAge, interval time.Duration) *TimeoutClock {
	return &TimeoutClock{log: logger, vehicles: vehicles, processor: processor, maxAge: maxAge, interval: interval}
}

// SweepStaleVehicles implements avl.TimeoutHandler for ad-hoc/test-driven
// invocation outside the running loop.
func (c *TimeoutClock) SweepStaleVehicles(now time.Time) {
	c.vehicles.SweepStaleVehicles(now, c.maxAge)
	c.processor.DrainDeferredDisplacements(now)
}

// Run blocks, sweeping every interval until shutdownSignal fires.
func (c *TimeoutClock) Run(shutdownSignal <-chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-shutdownSignal:
			c.log.Printf("timeoutclock: exiting on shutdown signal")
			return
		case now := <-ticker.C:
			c.SweepStaleVehicles(now)
		}
	}
}
