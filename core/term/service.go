package term

import (
	"context"

	"github.com/pkg/errors"

	"github.com/evalia/backend/core"
)

var (
	// errors
	ErrNotFound      = errors.New("term not found")
	ErrNoCurrentTerm = errors.New("no current term")
	ErrCodeExists    = errors.New("a term with this code already exists")
)

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, code string, excluded []Term, exec ...core.DBExecutor) error
		CreateTerm(ctx context.Context, t Term, exec ...core.DBExecutor) (Term, error)
		GetTerm(ctx context.Context, id string, exec ...core.DBExecutor) (Term, error)
		// GetCurrentTerm returns the term flagged current; ErrNoCurrentTerm if none.
		GetCurrentTerm(ctx context.Context, exec ...core.DBExecutor) (Term, error)
		QueryTerms(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Term, error)
		// DeactivateEnrollmentsByTerm sets every enrollment of the term's subjects to inactive.
		DeactivateEnrollmentsByTerm(ctx context.Context, termID string, exec ...core.DBExecutor) (int, error)
		// ClearCurrentFlags unsets is_current on every term that has it set.
		ClearCurrentFlags(ctx context.Context, exec ...core.DBExecutor) (int, error)
		MarkCurrent(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		db   core.DB
		repo Repository
	}
)

func NewService(db core.DB, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

func (svc *Service) CheckCodeUniqueness(ctx context.Context, code string, exclTerms ...Term) error {
	if err := svc.repo.CheckCodeUniqueness(ctx, code, exclTerms); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nt NewTerm) (Term, error) {
	t, err := svc.repo.CreateTerm(ctx, Term{Code: nt.Code})
	return t, errors.Wrap(err, "creating term")
}

func (svc *Service) GetByID(ctx context.Context, id string) (Term, error) {
	return svc.repo.GetTerm(ctx, id)
}

func (svc *Service) GetCurrent(ctx context.Context) (Term, error) {
	return svc.repo.GetCurrentTerm(ctx)
}

func (svc *Service) Query(ctx context.Context, ordering ...core.DBOrdering) ([]Term, error) {
	terms, err := svc.repo.QueryTerms(ctx, ordering)
	return terms, errors.Wrap(err, "querying terms")
}

// SetCurrent switches the current academic term to id. In one transaction:
// enrollments of the outgoing term's subjects are deactivated, every
// is_current flag is cleared, then the target's flag is set. The ordering is
// mandatory so no committed state ever shows zero or multiple current terms.
// A failure at any step rolls everything back. Re-targeting the term that is
// already current is a no-op.
func (svc *Service) SetCurrent(ctx context.Context, id string) (Term, error) {
	target, err := svc.repo.GetTerm(ctx, id)
	if err != nil {
		return Term{}, err
	}

	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		cur, err := svc.repo.GetCurrentTerm(ctx, tx)
		switch {
		case err == nil:
			if cur.ID == target.ID {
				return nil
			}
			if _, err = svc.repo.DeactivateEnrollmentsByTerm(ctx, cur.ID, tx); err != nil {
				return errors.Wrap(err, "deactivating outgoing enrollments")
			}
		case errors.Cause(err) == ErrNoCurrentTerm:
			// first rollover ever
		default:
			return errors.Wrap(err, "finding current term")
		}

		if _, err = svc.repo.ClearCurrentFlags(ctx, tx); err != nil {
			return errors.Wrap(err, "clearing current flags")
		}
		return errors.Wrap(svc.repo.MarkCurrent(ctx, target.ID, tx), "marking current term")
	})
	if err != nil {
		return Term{}, err
	}

	target.IsCurrent = true
	return target, nil
}
