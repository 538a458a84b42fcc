package recommend

import "gamesage/internal/domain/inference"

type Request struct {
	InitialFacts     []inference.Fact `json:"initial_facts"`
	Goal             string           `json:"goal"`
	MaxIterations    *int             `json:"max_iterations" validate:"omitempty,gte=0,lte=10000"`
	ConflictStrategy string           `json:"conflict_strategy" validate:"omitempty,oneof=priority specificity combined"`
	Limit            int              `json:"limit,omitempty" validate:"gte=0"`
}

type Recommendation struct {
	ID            int64          `json:"id"`
	GameTitle     string         `json:"game_title"`
	Rank          int            `json:"rank"`
	Confidence    float64        `json:"confidence"`
	Score         float64        `json:"score"`
	Justification string         `json:"justification"`
	Reasons       map[string]any `json:"reasons"`
}

type Response struct {
	RunID           string                `json:"run_id"`
	Recommendations []Recommendation      `json:"recommendations"`
	Iterations      int                   `json:"iterations"`
	ExecutionTime   float64               `json:"execution_time"`
	RulesFiredCount int                   `json:"rules_fired_count"`
	GoalReached     bool                  `json:"goal_reached"`
	Termination     string                `json:"termination"`
	Explanation     inference.Explanation `json:"explanation"`
}
