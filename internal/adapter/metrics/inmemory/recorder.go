package inmemory

import (
	"sync"
	"time"

	"gamesage/internal/domain/inference"
)

type Snapshot struct {
	RunTotal         uint64            `json:"run_total"`
	RunFailure       uint64            `json:"run_failure"`
	RulesFired       uint64            `json:"rules_fired"`
	AvgRunMillis     float64           `json:"avg_run_ms"`
	ByTermination    map[string]uint64 `json:"by_termination"`
	FailuresByReason map[string]uint64 `json:"failures_by_reason"`
}

// Recorder keeps process-local inference KPIs for /ops/kpi.
type Recorder struct {
	mu            sync.Mutex
	runs          uint64
	failures      uint64
	fired         uint64
	elapsed       time.Duration
	byTermination map[string]uint64
	byReason      map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byTermination: map[string]uint64{},
		byReason:      map[string]uint64{},
	}
}

func (r *Recorder) RecordRun(termination inference.Termination, rulesFired int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	r.fired += uint64(max(rulesFired, 0))
	r.elapsed += elapsed
	r.byTermination[string(termination)]++
}

func (r *Recorder) RecordFailure(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
	r.byReason[reason]++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		RunTotal:         r.runs,
		RunFailure:       r.failures,
		RulesFired:       r.fired,
		ByTermination:    make(map[string]uint64, len(r.byTermination)),
		FailuresByReason: make(map[string]uint64, len(r.byReason)),
	}
	if r.runs > 0 {
		out.AvgRunMillis = float64(r.elapsed.Microseconds()) / 1000 / float64(r.runs)
	}
	for k, v := range r.byTermination {
		out.ByTermination[k] = v
	}
	for k, v := range r.byReason {
		out.FailuresByReason[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
