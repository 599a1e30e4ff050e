package evaluation

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/reference"
	"github.com/evalia/backend/core/score"
)

var (
	// errors
	ErrNotFound           = errors.New("evaluation not found")
	ErrCommissionNotFound = errors.New("commission not found")
	ErrGuidelineNotFound  = errors.New("guideline not found")
	ErrInvalidTransition  = errors.New("terminal evaluations cannot change status")

	finalizedSubjectTmpl = "Commission %q finalized"
	finalizedBodyTmpl    = "All evaluations of commission %q have been completed."
)

type (
	Repository interface {
		CreateEvaluation(ctx context.Context, ev Evaluation, exec ...core.DBExecutor) (Evaluation, error)
		GetEvaluation(ctx context.Context, id string, exec ...core.DBExecutor) (Evaluation, error)
		// GetPendingEvaluation finds the pending row for (studentID, commissionID); ErrNotFound if none.
		GetPendingEvaluation(ctx context.Context, studentID, commissionID string, exec ...core.DBExecutor) (Evaluation, error)
		QueryEvaluations(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Evaluation, error)
		UpdateEvaluation(ctx context.Context, ev Evaluation, exec ...core.DBExecutor) (Evaluation, error)
		DeleteEvaluationsByCommission(ctx context.Context, commissionID string, exec ...core.DBExecutor) (int, error)
		CountByCommissionAndStatus(ctx context.Context, commissionID, status string, exec ...core.DBExecutor) (int, error)
	}

	// CommissionRef is the slice of a commission the coordinator needs:
	// ownership for notifications, identity for existence checks.
	CommissionRef struct {
		ID        string
		Name      string
		Professor reference.Professor
	}

	// Directory resolves records owned by sibling components.
	Directory interface {
		GetCommissionRef(ctx context.Context, id string, exec ...core.DBExecutor) (CommissionRef, error)
		GuidelineExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error)
	}

	Service struct {
		db      core.DB
		repo    Repository
		engine  *score.Engine
		refDir  reference.Directory
		dir     Directory
		mailSvc core.EmailService
	}
)

func NewService(
	db core.DB,
	repo Repository,
	engine *score.Engine,
	refDir reference.Directory,
	dir Directory,
	mailSvc core.EmailService,
) *Service {
	return &Service{db: db, repo: repo, engine: engine, refDir: refDir, dir: dir, mailSvc: mailSvc}
}

// Create registers a pending evaluation for a (student, commission) pair. It
// is idempotent: if a pending row already exists for the pair, that row is
// returned instead of a duplicate being created.
func (svc *Service) Create(ctx context.Context, ne NewEvaluation) (Evaluation, error) {
	if missing, err := svc.refDir.MissingStudents(ctx, []string{ne.StudentID}); err != nil {
		return Evaluation{}, errors.Wrap(err, "checking student")
	} else if len(missing) > 0 {
		return Evaluation{}, core.NewValidationError(
			reference.ErrStudentNotFound,
			core.FieldError{Field: "student_id", Error: reference.ErrStudentNotFound.Error()},
		)
	}
	if _, err := svc.dir.GetCommissionRef(ctx, ne.CommissionID); err != nil {
		if errors.Cause(err) == ErrCommissionNotFound {
			return Evaluation{}, core.NewValidationError(err, core.FieldError{Field: "commission_id", Error: err.Error()})
		}
		return Evaluation{}, errors.Wrap(err, "checking commission")
	}
	if ne.GuidelineID != "" {
		exists, err := svc.dir.GuidelineExists(ctx, ne.GuidelineID)
		if err != nil {
			return Evaluation{}, errors.Wrap(err, "checking guideline")
		}
		if !exists {
			return Evaluation{}, core.NewValidationError(
				ErrGuidelineNotFound,
				core.FieldError{Field: "guideline_id", Error: ErrGuidelineNotFound.Error()},
			)
		}
	}

	if ev, err := svc.repo.GetPendingEvaluation(ctx, ne.StudentID, ne.CommissionID); err == nil {
		return ev, nil
	} else if errors.Cause(err) != ErrNotFound {
		return Evaluation{}, errors.Wrap(err, "checking pending evaluation")
	}

	ev := Evaluation{
		StudentID:    ne.StudentID,
		CommissionID: ne.CommissionID,
		GuidelineID:  null.NewString(ne.GuidelineID, ne.GuidelineID != ""),
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	ev, err := svc.repo.CreateEvaluation(ctx, ev)
	return ev, errors.Wrap(err, "creating evaluation")
}

// CreateRoster creates one pending evaluation per student on the caller's open
// transaction. Used by commission mutations; performs no reference checks of
// its own.
func (svc *Service) CreateRoster(
	ctx context.Context,
	tx core.DBTransactor,
	commissionID, guidelineID string,
	studentIDs []string,
) ([]Evaluation, error) {
	now := time.Now().UTC()
	evals := make([]Evaluation, 0, len(studentIDs))
	for _, sid := range studentIDs {
		ev, err := svc.repo.CreateEvaluation(ctx, Evaluation{
			StudentID:    sid,
			CommissionID: commissionID,
			GuidelineID:  null.NewString(guidelineID, guidelineID != ""),
			Status:       StatusPending,
			CreatedAt:    now,
		}, tx)
		if err != nil {
			return nil, errors.Wrap(err, "creating roster evaluation")
		}
		evals = append(evals, ev)
	}
	return evals, nil
}

// RemoveForCommission deletes every evaluation under the commission, purging
// their scores first, on the caller's open transaction.
func (svc *Service) RemoveForCommission(ctx context.Context, tx core.DBTransactor, commissionID string) error {
	if _, err := svc.engine.PurgeCommissionScores(ctx, commissionID, tx); err != nil {
		return err
	}
	_, err := svc.repo.DeleteEvaluationsByCommission(ctx, commissionID, tx)
	return errors.Wrap(err, "deleting commission evaluations")
}

// HasCompleted reports whether the commission has any completed evaluation.
func (svc *Service) HasCompleted(ctx context.Context, commissionID string, exec ...core.DBExecutor) (bool, error) {
	cnt, err := svc.repo.CountByCommissionAndStatus(ctx, commissionID, StatusCompleted, exec...)
	if err != nil {
		return false, errors.Wrap(err, "counting completed evaluations")
	}
	return cnt > 0, nil
}

// ByCommissions returns all evaluations under the given commissions.
func (svc *Service) ByCommissions(ctx context.Context, commissionIDs []string, exec ...core.DBExecutor) ([]Evaluation, error) {
	if len(commissionIDs) == 0 {
		return nil, nil
	}
	evals, err := svc.repo.QueryEvaluations(ctx, &QueryFilter{CommissionIDs: commissionIDs}, nil, exec...)
	return evals, errors.Wrap(err, "querying commission evaluations")
}

func (svc *Service) GetByID(ctx context.Context, id string) (Info, error) {
	ev, err := svc.repo.GetEvaluation(ctx, id)
	if err != nil {
		return Info{}, err
	}
	return svc.enrich(ctx, ev)
}

func (svc *Service) enrich(ctx context.Context, ev Evaluation) (Info, error) {
	info := Info{Evaluation: ev}

	students, err := svc.refDir.GetStudents(ctx, []string{ev.StudentID})
	if err != nil {
		return Info{}, errors.Wrap(err, "querying student")
	}
	if len(students) > 0 {
		info.Student = students[0]
	}

	if info.Scores, err = svc.engine.EvaluationScores(ctx, ev.ID); err != nil {
		return Info{}, err
	}
	return info, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Evaluation, error) {
	if filter != nil {
		filter.Clean()
	}
	evals, err := svc.repo.QueryEvaluations(ctx, filter, ordering)
	return evals, errors.Wrap(err, "querying evaluations")
}

// QueryPending lists pending evaluations, optionally scoped to the
// commissions of one professor.
func (svc *Service) QueryPending(ctx context.Context, professorID string) ([]Evaluation, error) {
	return svc.Query(ctx, &QueryFilter{Status: StatusPending, ProfessorID: professorID})
}

// Update applies partial changes to an evaluation. Status may only move
// pending -> completed | cancelled. A non-nil ue.Scores replaces the whole
// breakdown, each line validated against the evaluation's guideline. When the
// update completes the commission's last pending evaluation, the owning
// professor is notified.
func (svc *Service) Update(ctx context.Context, id string, ue UpdateEvaluation) (Info, error) {
	ev, err := svc.repo.GetEvaluation(ctx, id)
	if err != nil {
		return Info{}, err
	}

	if ue.Status != "" && ue.Status != ev.Status {
		if ev.IsTerminal() {
			return Info{}, core.NewValidationError(
				ErrInvalidTransition,
				core.FieldError{Field: "status", Error: ErrInvalidTransition.Error()},
			)
		}
		ev.Status = ue.Status
	}
	if ue.Grade != nil {
		ev.Grade = null.Float64From(*ue.Grade)
	}
	if ue.Observation != nil {
		ev.Observation = null.StringFrom(*ue.Observation)
	}
	if ue.AskedQuestion != nil {
		ev.AskedQuestion = null.StringFrom(*ue.AskedQuestion)
	}

	var info Info
	var finalized bool
	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		if ue.Scores != nil {
			if info.Scores, err = svc.engine.ReplaceEvaluationScores(ctx, ev.ID, ev.GuidelineID.String, ue.Scores, tx); err != nil {
				return err
			}
		}
		if ev, err = svc.repo.UpdateEvaluation(ctx, ev, tx); err != nil {
			return errors.Wrap(err, "updating evaluation")
		}

		if ev.Status == StatusCompleted {
			// finalized means every roster member completed, not merely no pending left
			pending, err := svc.repo.CountByCommissionAndStatus(ctx, ev.CommissionID, StatusPending, tx)
			if err != nil {
				return errors.Wrap(err, "counting pending evaluations")
			}
			cancelled, err := svc.repo.CountByCommissionAndStatus(ctx, ev.CommissionID, StatusCancelled, tx)
			if err != nil {
				return errors.Wrap(err, "counting cancelled evaluations")
			}
			finalized = pending == 0 && cancelled == 0
		}
		return nil
	})
	if err != nil {
		return Info{}, err
	}

	if finalized {
		svc.notifyFinalized(ctx, ev.CommissionID)
	}

	info.Evaluation = ev
	if ue.Scores == nil {
		if info.Scores, err = svc.engine.EvaluationScores(ctx, ev.ID); err != nil {
			return Info{}, err
		}
	}
	students, err := svc.refDir.GetStudents(ctx, []string{ev.StudentID})
	if err != nil {
		return Info{}, errors.Wrap(err, "querying student")
	}
	if len(students) > 0 {
		info.Student = students[0]
	}
	return info, nil
}

func (svc *Service) notifyFinalized(ctx context.Context, commissionID string) {
	ref, err := svc.dir.GetCommissionRef(ctx, commissionID)
	if err != nil || ref.Professor.Email == "" {
		return // best effort
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: ref.Professor.Name, Address: ref.Professor.Email}},
		Subject: fmt.Sprintf(finalizedSubjectTmpl, ref.Name),
		Body:    fmt.Sprintf(finalizedBodyTmpl, ref.Name),
	})
}
