package ports

import (
	"time"

	"gamesage/internal/domain/inference"
)

type InferenceMetrics interface {
	RecordRun(termination inference.Termination, rulesFired int, elapsed time.Duration)
	RecordFailure(reason string)
}
