// Package metrics combines inference recorders.
package metrics

import (
	"time"

	"gamesage/internal/app/ports"
	"gamesage/internal/domain/inference"
)

// Fanout forwards every observation to each recorder in order.
type Fanout []ports.InferenceMetrics

func (f Fanout) RecordRun(termination inference.Termination, rulesFired int, elapsed time.Duration) {
	for _, m := range f {
		m.RecordRun(termination, rulesFired, elapsed)
	}
}

func (f Fanout) RecordFailure(reason string) {
	for _, m := range f {
		m.RecordFailure(reason)
	}
}
