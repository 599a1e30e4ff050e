package guideline

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/evalia/backend/core"
)

// Guideline is a named grading rubric for a theme, made of criteria.
type Guideline struct {
	ID       string      `json:"id" db:"id"`
	Name     string      `json:"name" db:"name"`
	ThemeID  string      `json:"theme_id" db:"theme_id"`
	Criteria []Criterion `json:"criteria,omitempty"`
}

// Criterion is one rubric line item with a maximum score.
type Criterion struct {
	ID          string  `json:"id" db:"id"`
	GuidelineID string  `json:"guideline_id" db:"guideline_id"`
	Description string  `json:"description" db:"description"`
	MaxScore    float64 `json:"max_score" db:"max_score"`
}

type NewCriterion struct {
	Description string  `json:"description" validate:"required"`
	MaxScore    float64 `json:"max_score" validate:"required,gt=0"`
}

// NewGuideline contains information needed to create a new Guideline.
type NewGuideline struct {
	Name     string         `json:"name" validate:"required"`
	ThemeID  string         `json:"theme_id" validate:"required"`
	Criteria []NewCriterion `json:"criteria" validate:"omitempty,dive"`
}

func (ng *NewGuideline) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ng.Name = core.CleanString(ng.Name)
	ng.ThemeID = core.CleanString(ng.ThemeID)

	if err := validate.Struct(ng); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(ctx, ng.Name)
}

// UpdateGuideline defines what information may be provided to modify an
// existing Guideline. A nil Criteria keeps the current criterion set; a
// non-nil one replaces it wholesale (recorded scores for the old set are
// purged first).
type UpdateGuideline struct {
	Name     string         `json:"name"`
	Criteria []NewCriterion `json:"criteria" validate:"omitempty,dive"`
}

func (ug *UpdateGuideline) Validate(ctx context.Context, validate *validator.Validate, svc *Service, orig Guideline) error {
	name := core.CleanString(ug.Name)
	if name != "" {
		ug.Name = name
	} else {
		ug.Name = orig.Name
	}

	if err := validate.Struct(ug); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(ctx, ug.Name, orig)
}

type QueryFilter struct {
	ThemeID string `query:"theme"`
	Search  string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.ThemeID == "" && qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.ThemeID = core.CleanString(qf.ThemeID)
	qf.Search = core.CleanString(qf.Search)
}
