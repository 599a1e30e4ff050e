package term

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/evalia/backend/core"
)

// Term is an academic period. At most one term is current at any time; the
// rollover keeps that invariant inside a single transaction.
type Term struct {
	ID        string `json:"id" db:"id"`
	Code      string `json:"code" db:"code"`
	IsCurrent bool   `json:"is_current" db:"is_current"`
}

// Enrollment statuses.
const (
	EnrollmentActive   = "active"
	EnrollmentInactive = "inactive"
)

// Enrollment links a student to a subject. Enrollments of a term's subjects
// are bulk-deactivated when the term stops being current.
type Enrollment struct {
	ID        string `json:"id" db:"id"`
	StudentID string `json:"student_id" db:"student_id"`
	SubjectID string `json:"subject_id" db:"subject_id"`
	Status    string `json:"status" db:"status"`
}

// NewTerm contains information needed to create a new Term.
type NewTerm struct {
	Code string `json:"code" validate:"required,alphanum_"`
}

func (nt *NewTerm) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nt.Code = core.CleanString(nt.Code)
	if err := validate.Struct(nt); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ctx, nt.Code)
}
