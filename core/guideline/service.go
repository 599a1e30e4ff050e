package guideline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/reference"
	"github.com/evalia/backend/core/score"
)

var (
	// errors
	ErrNotFound   = errors.New("guideline not found")
	ErrNameExists = errors.New("a guideline with this name already exists")
	ErrInUse      = errors.New("guideline is referenced by evaluations")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, excluded []Guideline, exec ...core.DBExecutor) error
		CreateGuideline(ctx context.Context, gl Guideline, exec ...core.DBExecutor) (Guideline, error)
		GetGuideline(ctx context.Context, id string, exec ...core.DBExecutor) (Guideline, error)
		QueryGuidelines(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Guideline, error)
		UpdateGuideline(ctx context.Context, gl Guideline, exec ...core.DBExecutor) (Guideline, error)
		DeleteGuideline(ctx context.Context, id string, exec ...core.DBExecutor) error

		InsertCriteria(ctx context.Context, criteria []Criterion, exec ...core.DBExecutor) ([]Criterion, error)
		CriteriaByGuideline(ctx context.Context, guidelineID string, exec ...core.DBExecutor) ([]Criterion, error)
		DeleteCriteriaByGuideline(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (int, error)
		// CountEvaluationsReferencing counts evaluation rows whose guideline reference is guidelineID.
		CountEvaluationsReferencing(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		db     core.DB
		repo   Repository
		engine *score.Engine
		refDir reference.Directory
	}
)

func NewService(db core.DB, repo Repository, engine *score.Engine, refDir reference.Directory) *Service {
	return &Service{db: db, repo: repo, engine: engine, refDir: refDir}
}

func (svc *Service) CheckNameUniqueness(ctx context.Context, name string, exclGuidelines ...Guideline) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name, exclGuidelines); err != nil {
		if errors.Cause(err) == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create persists a new guideline and its criteria as one unit.
func (svc *Service) Create(ctx context.Context, ng NewGuideline) (Guideline, error) {
	if _, err := svc.refDir.GetTheme(ctx, ng.ThemeID); err != nil {
		if errors.Cause(err) == reference.ErrThemeNotFound {
			return Guideline{}, core.NewValidationError(err, core.FieldError{Field: "theme_id", Error: err.Error()})
		}
		return Guideline{}, errors.Wrap(err, "checking theme")
	}

	var gl Guideline
	err := core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		gl, err = svc.repo.CreateGuideline(ctx, Guideline{Name: ng.Name, ThemeID: ng.ThemeID}, tx)
		if err != nil {
			return errors.Wrap(err, "creating guideline")
		}
		gl.Criteria, err = svc.insertCriteria(ctx, tx, gl.ID, ng.Criteria)
		return err
	})
	if err != nil {
		return Guideline{}, err
	}
	return gl, nil
}

func (svc *Service) insertCriteria(ctx context.Context, tx core.DBTransactor, guidelineID string, ncs []NewCriterion) ([]Criterion, error) {
	if len(ncs) == 0 {
		return nil, nil
	}
	criteria := make([]Criterion, 0, len(ncs))
	for _, nc := range ncs {
		criteria = append(criteria, Criterion{
			GuidelineID: guidelineID,
			Description: nc.Description,
			MaxScore:    nc.MaxScore,
		})
	}
	criteria, err := svc.repo.InsertCriteria(ctx, criteria, tx)
	return criteria, errors.Wrap(err, "inserting criteria")
}

func (svc *Service) GetByID(ctx context.Context, id string) (Guideline, error) {
	gl, err := svc.repo.GetGuideline(ctx, id)
	if err != nil {
		return Guideline{}, err
	}
	gl.Criteria, err = svc.repo.CriteriaByGuideline(ctx, id)
	if err != nil {
		return Guideline{}, errors.Wrap(err, "querying criteria")
	}
	return gl, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Guideline, error) {
	if filter != nil {
		filter.Clean()
	}
	gls, err := svc.repo.QueryGuidelines(ctx, filter, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying guidelines")
	}
	for i := range gls {
		if gls[i].Criteria, err = svc.repo.CriteriaByGuideline(ctx, gls[i].ID); err != nil {
			return nil, errors.Wrap(err, "querying criteria")
		}
	}
	return gls, nil
}

// Update applies partial field changes; when ug.Criteria is non-nil the whole
// criterion set is replaced. Recorded scores referencing the old criteria are
// deleted before the criteria are: removing criteria first would leave
// orphaned scores.
func (svc *Service) Update(ctx context.Context, id string, ug UpdateGuideline) (Guideline, error) {
	gl, err := svc.repo.GetGuideline(ctx, id)
	if err != nil {
		return Guideline{}, err
	}
	gl.Name = ug.Name

	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		if ug.Criteria != nil {
			if _, err := svc.engine.PurgeGuidelineScores(ctx, id, tx); err != nil {
				return err
			}
			if _, err := svc.repo.DeleteCriteriaByGuideline(ctx, id, tx); err != nil {
				return errors.Wrap(err, "deleting criteria")
			}
			if gl.Criteria, err = svc.insertCriteria(ctx, tx, id, ug.Criteria); err != nil {
				return err
			}
		}
		gl, err = svc.repo.UpdateGuideline(ctx, gl, tx)
		return errors.Wrap(err, "updating guideline")
	})
	if err != nil {
		return Guideline{}, err
	}
	if gl.Criteria == nil {
		if gl.Criteria, err = svc.repo.CriteriaByGuideline(ctx, id); err != nil {
			return Guideline{}, errors.Wrap(err, "querying criteria")
		}
	}
	return gl, nil
}

// Delete removes the guideline and its criteria. It refuses while any
// evaluation still references the guideline.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetGuideline(ctx, id); err != nil {
		return err
	}
	cnt, err := svc.repo.CountEvaluationsReferencing(ctx, id)
	if err != nil {
		return errors.Wrap(err, "counting referencing evaluations")
	}
	if cnt > 0 {
		return core.NewConflictError(ErrInUse, id)
	}

	return core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		// scores first, then criteria, then the guideline row
		if _, err := svc.engine.PurgeGuidelineScores(ctx, id, tx); err != nil {
			return err
		}
		if _, err := svc.repo.DeleteCriteriaByGuideline(ctx, id, tx); err != nil {
			return errors.Wrap(err, "deleting criteria")
		}
		return errors.Wrap(svc.repo.DeleteGuideline(ctx, id, tx), "deleting guideline")
	})
}

// HasScores reports whether the guideline has any recorded scores. The UI uses
// it to warn before destructive edits; the engine itself never blocks them.
func (svc *Service) HasScores(ctx context.Context, id string) (bool, error) {
	if _, err := svc.repo.GetGuideline(ctx, id); err != nil {
		return false, err
	}
	return svc.engine.HasScores(ctx, id)
}
