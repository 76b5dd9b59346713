// Package matchprocessor is the default avl.MatchProcessor: a logging no-op.
// Prediction generation and arrival/departure inference are out of scope for
// this module (spec Non-goals); this default exists only so the orchestrator
// is runnable standalone without a real predictor wired in.
package matchprocessor

import (
	"log"

	"github.com/transitcast/core/business/data/avl"
)

type Logger struct {
	log *log.Logger
}

func New(logger *log.Logger) *Logger {
	return &Logger{log: logger}
}

// GenerateResultsOfMatch implements avl.MatchProcessor.
func (p *Logger) GenerateResultsOfMatch(snapshot avl.Snapshot) {
	if snapshot.Match == nil {
		return
	}
	p.log.Printf("match: vehicle=%s block=%s trip=%d stop=%d adherence=%v",
		snapshot.VehicleId, snapshot.BlockId, snapshot.Match.TripIndex,
		snapshot.Match.StopPathIndex, snapshot.SchedAdherence)
}
