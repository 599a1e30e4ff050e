package score

// Score is one graded line item: the points a student received on a single
// criterion within one evaluation. Breakdowns are always replaced wholesale,
// never merged.
type Score struct {
	ID           string  `json:"id" db:"id"`
	CriterionID  string  `json:"criterion_id" db:"criterion_id"`
	EvaluationID string  `json:"evaluation_id" db:"evaluation_id"`
	Score        float64 `json:"score" db:"score"`
}

// NewScore is one line of a score breakdown supplied by a grader.
type NewScore struct {
	CriterionID string  `json:"criterion_id" validate:"required"`
	Score       float64 `json:"score" validate:"gte=0"`
}
