package evaluation

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/reference"
	"github.com/evalia/backend/core/score"
)

// Statuses. pending -> completed | cancelled; completed and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var Statuses = []string{StatusPending, StatusCompleted, StatusCancelled}

// Evaluation is the per-student grading record for a commission: one row per
// roster entry.
type Evaluation struct {
	ID            string       `json:"id" db:"id"`
	StudentID     string       `json:"student_id" db:"student_id"`
	CommissionID  string       `json:"commission_id" db:"commission_id"`
	GuidelineID   null.String  `json:"guideline_id" db:"guideline_id"`
	Observation   null.String  `json:"observation" db:"observation"`
	AskedQuestion null.String  `json:"asked_question" db:"asked_question"`
	Grade         null.Float64 `json:"grade" db:"grade"`
	Status        string       `json:"status" db:"status"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"` // UTC
}

func (ev Evaluation) IsTerminal() bool {
	return ev.Status == StatusCompleted || ev.Status == StatusCancelled
}

// Info is an Evaluation enriched for the read side.
type Info struct {
	Evaluation
	Student reference.Student `json:"student"`
	Scores  []score.Score     `json:"scores"`
}

// NewEvaluation contains information needed to create a new Evaluation.
type NewEvaluation struct {
	StudentID    string `json:"student_id" validate:"required"`
	CommissionID string `json:"commission_id" validate:"required"`
	GuidelineID  string `json:"guideline_id"`
}

func (ne *NewEvaluation) Validate(validate *validator.Validate) error {
	ne.StudentID = core.CleanString(ne.StudentID)
	ne.CommissionID = core.CleanString(ne.CommissionID)
	ne.GuidelineID = core.CleanString(ne.GuidelineID)
	return validate.Struct(ne)
}

// UpdateEvaluation defines what information may be provided to modify an
// existing Evaluation. All fields are optional; a non-nil Scores replaces the
// evaluation's whole score breakdown.
type UpdateEvaluation struct {
	Grade         *float64         `json:"grade" validate:"omitempty,gte=0"`
	Observation   *string          `json:"observation"`
	AskedQuestion *string          `json:"asked_question"`
	Status        string           `json:"status" validate:"omitempty,oneof=pending completed cancelled"`
	Scores        []score.NewScore `json:"scores" validate:"omitempty,dive"`
}

func (ue *UpdateEvaluation) Validate(validate *validator.Validate) error {
	ue.Status = core.CleanString(ue.Status, true /* lower */)
	return validate.Struct(ue)
}

type QueryFilter struct {
	Status      string `query:"status"`
	StudentID   string `query:"student"`
	ProfessorID string `query:"professor"` // via the owning commission

	// internal filters (not query-bound)
	CommissionID  string   `query:"-"`
	CommissionIDs []string `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Status == "" && qf.StudentID == "" && qf.ProfessorID == "" &&
		qf.CommissionID == "" && qf.CommissionIDs == nil
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.ProfessorID = core.CleanString(qf.ProfessorID)
}
