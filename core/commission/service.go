package commission

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/evaluation"
	"github.com/evalia/backend/core/reference"
)

var (
	// errors
	ErrNotFound            = errors.New("commission not found")
	ErrNameExists          = errors.New("a commission with this name already exists")
	ErrGuidelineNotFound   = errors.New("guideline not found")
	ErrDuplicateAssignment = errors.New("student already assigned to another commission in this evaluation group")
	ErrHasCompleted        = errors.New("commission has completed evaluations")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, excluded []Commission, exec ...core.DBExecutor) error
		CreateCommission(ctx context.Context, com Commission, exec ...core.DBExecutor) (Commission, error)
		GetCommission(ctx context.Context, id string, exec ...core.DBExecutor) (Commission, error)
		QueryCommissions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Commission, error)
		UpdateCommission(ctx context.Context, com Commission, exec ...core.DBExecutor) (Commission, error)
		DeleteCommission(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	// GuidelineDirectory answers whether a guideline id is valid to carry
	// onto roster evaluations.
	GuidelineDirectory interface {
		GuidelineExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error)
	}

	Service struct {
		db      core.DB
		repo    Repository
		evalSvc *evaluation.Service
		refDir  reference.Directory
		glDir   GuidelineDirectory
	}
)

func NewService(
	db core.DB,
	repo Repository,
	evalSvc *evaluation.Service,
	refDir reference.Directory,
	glDir GuidelineDirectory,
) *Service {
	return &Service{db: db, repo: repo, evalSvc: evalSvc, refDir: refDir, glDir: glDir}
}

func (svc *Service) CheckNameUniqueness(ctx context.Context, name string, exclComs ...Commission) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name, exclComs); err != nil {
		if errors.Cause(err) == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

// checkReferences verifies the professor, theme, optional guideline and every
// roster student exist. Reference failures surface as field-level validation
// errors before anything is written.
func (svc *Service) checkReferences(ctx context.Context, professorID, themeID, guidelineID string, studentIDs []string) error {
	if _, err := svc.refDir.GetProfessor(ctx, professorID); err != nil {
		if errors.Cause(err) == reference.ErrProfessorNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "professor_id", Error: err.Error()})
		}
		return errors.Wrap(err, "checking professor")
	}
	if _, err := svc.refDir.GetTheme(ctx, themeID); err != nil {
		if errors.Cause(err) == reference.ErrThemeNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "theme_id", Error: err.Error()})
		}
		return errors.Wrap(err, "checking theme")
	}
	if guidelineID != "" {
		exists, err := svc.glDir.GuidelineExists(ctx, guidelineID)
		if err != nil {
			return errors.Wrap(err, "checking guideline")
		}
		if !exists {
			return core.NewValidationError(
				ErrGuidelineNotFound,
				core.FieldError{Field: "guideline_id", Error: ErrGuidelineNotFound.Error()},
			)
		}
	}
	if len(studentIDs) > 0 {
		missing, err := svc.refDir.MissingStudents(ctx, studentIDs)
		if err != nil {
			return errors.Wrap(err, "checking students")
		}
		if len(missing) > 0 {
			flds := make([]core.FieldError, 0, len(missing))
			for _, id := range missing {
				flds = append(flds, core.FieldError{Field: "student_ids", Error: id + ": " + reference.ErrStudentNotFound.Error()})
			}
			return core.NewValidationError(reference.ErrStudentNotFound, flds...)
		}
	}
	return nil
}

// checkDuplicateAssignments enforces the no-double-booking rule: within one
// evaluation group a student may sit on at most one commission's roster. The
// read-then-write is best effort under read-committed isolation; the storage
// layer's unique (commission, student) pair does not cover cross-commission
// races.
func (svc *Service) checkDuplicateAssignments(ctx context.Context, evalGroup, excludeID string, studentIDs []string) error {
	if len(studentIDs) == 0 {
		return nil
	}

	coms, err := svc.repo.QueryCommissions(ctx, &QueryFilter{EvalGroup: evalGroup, ExcludeID: excludeID}, nil)
	if err != nil {
		return errors.Wrap(err, "querying group commissions")
	}
	comIDs := make([]string, 0, len(coms))
	for _, c := range coms {
		comIDs = append(comIDs, c.ID)
	}

	evals, err := svc.evalSvc.ByCommissions(ctx, comIDs)
	if err != nil {
		return err
	}
	assigned := make(map[string]struct{}, len(evals))
	for _, ev := range evals {
		assigned[ev.StudentID] = struct{}{}
	}

	var dups []string
	for _, sid := range studentIDs {
		if _, ok := assigned[sid]; ok {
			dups = append(dups, sid)
		}
	}
	if len(dups) > 0 {
		return core.NewConflictError(ErrDuplicateAssignment, dups...)
	}
	return nil
}

// Create validates references and roster uniqueness, then persists the
// commission and one pending evaluation per roster student as one atomic
// unit: either everything exists afterward, or nothing does.
func (svc *Service) Create(ctx context.Context, nc NewCommission) (Info, error) {
	if err := svc.checkReferences(ctx, nc.ProfessorID, nc.ThemeID, nc.GuidelineID, nc.StudentIDs); err != nil {
		return Info{}, err
	}
	if err := svc.checkDuplicateAssignments(ctx, nc.EvalGroup, "", nc.StudentIDs); err != nil {
		return Info{}, err
	}

	now := time.Now().UTC()
	com := Commission{
		Name:        nc.Name,
		ProfessorID: nc.ProfessorID,
		ThemeID:     nc.ThemeID,
		Date:        nc.Date,
		Time:        nc.Time,
		Location:    nc.Location,
		EvalGroup:   nc.EvalGroup,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if com, err = svc.repo.CreateCommission(ctx, com, tx); err != nil {
			return errors.Wrap(err, "creating commission")
		}
		_, err = svc.evalSvc.CreateRoster(ctx, tx, com.ID, nc.GuidelineID, nc.StudentIDs)
		return err
	})
	if err != nil {
		return Info{}, err
	}
	return svc.enrich(ctx, com)
}

// Update applies partial field changes; a non-nil uc.StudentIDs replaces the
// roster wholesale (prior evaluations and their scores deleted, fresh pending
// rows created), atomically with the field update.
func (svc *Service) Update(ctx context.Context, id string, uc UpdateCommission) (Info, error) {
	com, err := svc.repo.GetCommission(ctx, id)
	if err != nil {
		return Info{}, err
	}

	rosterIDs := uc.StudentIDs
	if err = svc.checkReferences(ctx, uc.ProfessorID, uc.ThemeID, uc.GuidelineID, rosterIDs); err != nil {
		return Info{}, err
	}
	if rosterIDs != nil {
		if err = svc.checkDuplicateAssignments(ctx, uc.EvalGroup, id, rosterIDs); err != nil {
			return Info{}, err
		}
	} else if uc.EvalGroup != com.EvalGroup {
		// the kept roster moves into the new group with the commission
		evals, err := svc.evalSvc.ByCommissions(ctx, []string{id})
		if err != nil {
			return Info{}, errors.Wrap(err, "loading current roster")
		}
		current := make([]string, 0, len(evals))
		for _, ev := range evals {
			current = append(current, ev.StudentID)
		}
		if err = svc.checkDuplicateAssignments(ctx, uc.EvalGroup, id, current); err != nil {
			return Info{}, err
		}
	}

	com.Name = uc.Name
	com.ProfessorID = uc.ProfessorID
	com.ThemeID = uc.ThemeID
	com.Date = uc.Date
	com.Time = uc.Time
	com.Location = uc.Location
	com.EvalGroup = uc.EvalGroup
	com.UpdatedAt = time.Now().UTC()

	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		if com, err = svc.repo.UpdateCommission(ctx, com, tx); err != nil {
			return errors.Wrap(err, "updating commission")
		}
		if rosterIDs == nil {
			return nil
		}
		if err = svc.evalSvc.RemoveForCommission(ctx, tx, id); err != nil {
			return err
		}
		_, err = svc.evalSvc.CreateRoster(ctx, tx, id, uc.GuidelineID, rosterIDs)
		return err
	})
	if err != nil {
		return Info{}, err
	}
	return svc.enrich(ctx, com)
}

// Delete removes the commission and its roster. It refuses with a conflict if
// any evaluation under the commission is completed; nothing is touched then.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetCommission(ctx, id); err != nil {
		return err
	}
	hasCompleted, err := svc.evalSvc.HasCompleted(ctx, id)
	if err != nil {
		return err
	}
	if hasCompleted {
		return core.NewConflictError(ErrHasCompleted, id)
	}

	return core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		if err := svc.evalSvc.RemoveForCommission(ctx, tx, id); err != nil {
			return err
		}
		return errors.Wrap(svc.repo.DeleteCommission(ctx, id, tx), "deleting commission")
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Info, error) {
	com, err := svc.repo.GetCommission(ctx, id)
	if err != nil {
		return Info{}, err
	}
	return svc.enrich(ctx, com)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Info, error) {
	if filter != nil {
		filter.Clean()
	}
	coms, err := svc.repo.QueryCommissions(ctx, filter, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying commissions")
	}
	infos := make([]Info, 0, len(coms))
	for _, com := range coms {
		info, err := svc.enrich(ctx, com)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (svc *Service) QueryByTheme(ctx context.Context, themeID string) ([]Info, error) {
	return svc.Query(ctx, &QueryFilter{ThemeID: themeID})
}

func (svc *Service) enrich(ctx context.Context, com Commission) (Info, error) {
	info := Info{Commission: com}

	professor, err := svc.refDir.GetProfessor(ctx, com.ProfessorID)
	if err != nil && errors.Cause(err) != reference.ErrProfessorNotFound {
		return Info{}, errors.Wrap(err, "querying professor")
	}
	info.Professor = professor

	evals, err := svc.evalSvc.ByCommissions(ctx, []string{com.ID})
	if err != nil {
		return Info{}, err
	}
	if len(evals) == 0 {
		return info, nil
	}

	studentIDs := make([]string, 0, len(evals))
	for _, ev := range evals {
		studentIDs = append(studentIDs, ev.StudentID)
	}
	students, err := svc.refDir.GetStudents(ctx, studentIDs)
	if err != nil {
		return Info{}, errors.Wrap(err, "querying roster students")
	}
	byID := make(map[string]reference.Student, len(students))
	for _, s := range students {
		byID[s.ID] = s
	}

	info.Finalized = true
	info.Roster = make([]RosterEntry, 0, len(evals))
	for _, ev := range evals {
		info.Roster = append(info.Roster, RosterEntry{
			EvaluationID: ev.ID,
			Student:      byID[ev.StudentID],
			Status:       ev.Status,
		})
		if ev.Status != evaluation.StatusCompleted {
			info.Finalized = false
		}
	}
	return info, nil
}
