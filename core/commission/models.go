package commission

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/reference"
)

// Commission is a scheduled oral-examination session: a professor, a theme, a
// date/time/location, and a roster of students represented by their
// evaluation rows.
type Commission struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	ProfessorID string    `json:"professor_id" db:"professor_id"`
	ThemeID     string    `json:"theme_id" db:"theme_id"`
	Date        string    `json:"date" db:"date"`     // YYYY-MM-DD
	Time        string    `json:"time" db:"time"`     // HH:MM
	Location    string    `json:"location" db:"location"`
	EvalGroup   string    `json:"eval_group" db:"eval_group"` // examination round tag
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// RosterEntry is one student on a commission's roster with the status of
// their evaluation.
type RosterEntry struct {
	EvaluationID string            `json:"evaluation_id"`
	Student      reference.Student `json:"student"`
	Status       string            `json:"status"`
}

// Info is a Commission enriched for the read side. Finalized is true iff the
// roster is non-empty and every member's evaluation is completed.
type Info struct {
	Commission
	Professor reference.Professor `json:"professor"`
	Roster    []RosterEntry       `json:"roster"`
	Finalized bool                `json:"finalized"`
}

// NewCommission contains information needed to create a new Commission.
// GuidelineID, if set, is carried onto each roster evaluation.
type NewCommission struct {
	Name        string   `json:"name" validate:"required"`
	ProfessorID string   `json:"professor_id" validate:"required"`
	ThemeID     string   `json:"theme_id" validate:"required"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string   `json:"time" validate:"required,datetime=15:04"`
	Location    string   `json:"location"`
	EvalGroup   string   `json:"eval_group" validate:"required"`
	GuidelineID string   `json:"guideline_id"`
	StudentIDs  []string `json:"student_ids"`
}

func (nc *NewCommission) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.ProfessorID = core.CleanString(nc.ProfessorID)
	nc.ThemeID = core.CleanString(nc.ThemeID)
	nc.Date = core.CleanString(nc.Date)
	nc.Time = core.CleanString(nc.Time)
	nc.Location = core.CleanString(nc.Location)
	nc.EvalGroup = core.CleanString(nc.EvalGroup)
	nc.GuidelineID = core.CleanString(nc.GuidelineID)
	nc.StudentIDs = core.DedupeStrings(nc.StudentIDs)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(ctx, nc.Name)
}

// UpdateCommission defines what information may be provided to modify an
// existing Commission. Empty fields keep their current value. A nil
// StudentIDs keeps the current roster; a non-nil one replaces it wholesale.
type UpdateCommission struct {
	Name        string   `json:"name"`
	ProfessorID string   `json:"professor_id"`
	ThemeID     string   `json:"theme_id"`
	Date        string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time        string   `json:"time" validate:"omitempty,datetime=15:04"`
	Location    string   `json:"location"`
	EvalGroup   string   `json:"eval_group"`
	GuidelineID string   `json:"guideline_id"`
	StudentIDs  []string `json:"student_ids"`
}

func (uc *UpdateCommission) Validate(ctx context.Context, validate *validator.Validate, svc *Service, orig Commission) error {
	keep := func(val, fallback string) string {
		if val = core.CleanString(val); val != "" {
			return val
		}
		return fallback
	}
	uc.Name = keep(uc.Name, orig.Name)
	uc.ProfessorID = keep(uc.ProfessorID, orig.ProfessorID)
	uc.ThemeID = keep(uc.ThemeID, orig.ThemeID)
	uc.Date = keep(uc.Date, orig.Date)
	uc.Time = keep(uc.Time, orig.Time)
	uc.Location = keep(uc.Location, orig.Location)
	uc.EvalGroup = keep(uc.EvalGroup, orig.EvalGroup)
	uc.GuidelineID = core.CleanString(uc.GuidelineID)
	if uc.StudentIDs != nil {
		uc.StudentIDs = core.DedupeStrings(uc.StudentIDs)
	}

	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(ctx, uc.Name, orig)
}

type QueryFilter struct {
	ProfessorID string `query:"professor"`
	ThemeID     string `query:"theme"`

	// internal filters (not query-bound)
	EvalGroup string `query:"-"`
	ExcludeID string `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.ProfessorID == "" && qf.ThemeID == "" && qf.EvalGroup == "" && qf.ExcludeID == ""
}

func (qf *QueryFilter) Clean() {
	qf.ProfessorID = core.CleanString(qf.ProfessorID)
	qf.ThemeID = core.CleanString(qf.ThemeID)
}
