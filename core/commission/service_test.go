package commission_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/commission"
	"github.com/evalia/backend/core/evaluation"
	"github.com/evalia/backend/core/reference"
	"github.com/evalia/backend/core/score"
	emailsvc "github.com/evalia/backend/services/email"
	dummydb "github.com/evalia/backend/storage/database/dummy"
)

type testEnv struct {
	db      *dummydb.DB
	svc     *commission.Service
	evalSvc *evaluation.Service
	prof    reference.Professor
	theme   reference.Theme
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	dir := dummydb.NewDirectory(db)
	engine := score.NewEngine(dummydb.NewScoreRepository(db))
	evalSvc := evaluation.NewService(db, dummydb.NewEvaluationRepository(db), engine, dir, dir, emailsvc.NewDummyService())
	svc := commission.NewService(db, dummydb.NewCommissionRepository(db), evalSvc, dir, dir)
	return &testEnv{
		db:      db,
		svc:     svc,
		evalSvc: evalSvc,
		prof:    db.AddProfessor(reference.Professor{Name: "Dr. Kim", Email: "kim@uni.test"}),
		theme:   db.AddTheme(reference.Theme{Name: "Distributed Systems"}),
	}
}

func (env *testEnv) newCommission(name, group string, studentIDs ...string) commission.NewCommission {
	return commission.NewCommission{
		Name:        name,
		ProfessorID: env.prof.ID,
		ThemeID:     env.theme.ID,
		Date:        "2026-02-10",
		Time:        "09:00",
		Location:    "B-204",
		EvalGroup:   group,
		StudentIDs:  studentIDs,
	}
}

func TestService_Create_withRoster(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	s1 := env.db.AddStudent(reference.Student{Name: "Ada", Code: "S001"})
	s2 := env.db.AddStudent(reference.Student{Name: "Linus", Code: "S002"})

	info, err := env.svc.Create(ctx, env.newCommission("Finals A", "2026_1", s1.ID, s2.ID))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if info.Professor.ID != env.prof.ID {
		t.Errorf("professor = %v, want %s", info.Professor, env.prof.ID)
	}
	if len(info.Roster) != 2 {
		t.Fatalf("got %d roster entries, want 2", len(info.Roster))
	}
	for _, entry := range info.Roster {
		if entry.Status != evaluation.StatusPending {
			t.Errorf("roster entry %s status = %q, want pending", entry.EvaluationID, entry.Status)
		}
	}
	if info.Finalized {
		t.Error("fresh commission reported finalized")
	}
}

func TestService_Create_rejectsUnknownReferences(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	s1 := env.db.AddStudent(reference.Student{Name: "Ada", Code: "S001"})

	nc := env.newCommission("Finals A", "2026_1", s1.ID)
	nc.ProfessorID = "ghost"
	_, err := env.svc.Create(ctx, nc)
	assertValidationError(t, err, "professor_id")

	nc = env.newCommission("Finals A", "2026_1", s1.ID)
	nc.ThemeID = "ghost"
	_, err = env.svc.Create(ctx, nc)
	assertValidationError(t, err, "theme_id")

	nc = env.newCommission("Finals A", "2026_1", s1.ID)
	nc.GuidelineID = "ghost"
	_, err = env.svc.Create(ctx, nc)
	assertValidationError(t, err, "guideline_id")

	nc = env.newCommission("Finals A", "2026_1", s1.ID, "ghost1", "ghost2")
	_, err = env.svc.Create(ctx, nc)
	vErr, _ := errors.Cause(err).(*core.ValidationError)
	if vErr == nil {
		t.Fatalf("Create() error = %v, want ValidationError", err)
	}
	if len(vErr.Fields) != 2 {
		t.Errorf("got %d field errors, want one per missing student: %v", len(vErr.Fields), vErr.Fields)
	}

	// nothing was written along the way
	evs, err := env.evalSvc.Query(ctx, nil)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if coms, _ := env.svc.Query(ctx, nil); len(coms) != 0 || len(evs) != 0 {
		t.Errorf("rejected creates left %d commissions and %d evaluations behind", len(coms), len(evs))
	}
}

func TestService_Create_rejectsDuplicateAssignmentInGroup(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	s1 := env.db.AddStudent(reference.Student{Name: "Ada", Code: "S001"})
	s2 := env.db.AddStudent(reference.Student{Name: "Linus", Code: "S002"})
	s3 := env.db.AddStudent(reference.Student{Name: "Grace", Code: "S003"})

	if _, err := env.svc.Create(ctx, env.newCommission("Finals A", "2026_1", s1.ID, s2.ID)); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// same group, overlapping roster
	_, err := env.svc.Create(ctx, env.newCommission("Finals B", "2026_1", s2.ID, s3.ID))
	cErr, _ := errors.Cause(err).(*core.ConflictError)
	if cErr == nil {
		t.Fatalf("Create() error = %v, want ConflictError", err)
	}
	if len(cErr.IDs) != 1 || cErr.IDs[0] != s2.ID {
		t.Errorf("conflict IDs = %v, want [%s]", cErr.IDs, s2.ID)
	}

	// same student in a different group is fine
	if _, err := env.svc.Create(ctx, env.newCommission("Retakes A", "2026_2", s2.ID)); err != nil {
		t.Errorf("Create() in another group failed: %v", err)
	}

	// non-overlapping roster in the same group is fine
	if _, err := env.svc.Create(ctx, env.newCommission("Finals C", "2026_1", s3.ID)); err != nil {
		t.Errorf("Create() with fresh roster failed: %v", err)
	}
}

func TestService_Update_replacesRosterWholesale(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	s1 := env.db.AddStudent(reference.Student{Name: "Ada", Code: "S001"})
	s2 := env.db.AddStudent(reference.Student{Name: "Linus", Code: "S002"})

	info, err := env.svc.Create(ctx, env.newCommission("Finals A", "2026_1", s1.ID))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	updated, err := env.svc.Update(ctx, info.ID, commission.UpdateCommission{
		Name:        info.Name,
		ProfessorID: info.ProfessorID,
		ThemeID:     info.ThemeID,
		Date:        info.Date,
		Time:        info.Time,
		Location:    "C-101",
		EvalGroup:   info.EvalGroup,
		StudentIDs:  []string{s2.ID},
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Location != "C-101" {
		t.Errorf("location = %q, want C-101", updated.Location)
	}
	if len(updated.Roster) != 1 || updated.Roster[0].Student.ID != s2.ID {
		t.Errorf("roster = %v, want only %s", updated.Roster, s2.ID)
	}

	// prior roster evaluations are gone
	evs, err := env.evalSvc.ByCommissions(ctx, []string{info.ID})
	if err != nil {
		t.Fatalf("ByCommissions() failed: %v", err)
	}
	if len(evs) != 1 || evs[0].StudentID != s2.ID {
		t.Errorf("evaluations after roster replacement = %v, want one for %s", evs, s2.ID)
	}
}

func TestService_Update_nilRosterKeepsEvaluations(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	s1 := env.db.AddStudent(reference.Student{Name: "Ada", Code: "S001"})

	info, err := env.svc.Create(ctx, env.newCommission("Finals A", "2026_1", s1.ID))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	origEvalID := info.Roster[0].EvaluationID

	updated, err := env.svc.Update(ctx, info.ID, commission.UpdateCommission{
		Name:        info.Name,
		ProfessorID: info.ProfessorID,
		ThemeID:     info.ThemeID,
		Date:        info.Date,
		Time:        info.Time,
		EvalGroup:   info.EvalGroup,
		Location:    "C-101",
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if len(updated.Roster) != 1 || updated.Roster[0].EvaluationID != origEvalID {
		t.Errorf("roster = %v, want untouched evaluation %s", updated.Roster, origEvalID)
	}
}

func TestService_Update_groupMoveChecksKeptRoster(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	s1 := env.db.AddStudent(reference.Student{Name: "Ada", Code: "S001"})

	if _, err := env.svc.Create(ctx, env.newCommission("Finals A", "2026_1", s1.ID)); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	info, err := env.svc.Create(ctx, env.newCommission("Retakes A", "2026_2", s1.ID))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// moving the commission into 2026_1 with its kept roster would double-book s1
	move := func(group string) error {
		_, err := env.svc.Update(ctx, info.ID, commission.UpdateCommission{
			Name:        info.Name,
			ProfessorID: info.ProfessorID,
			ThemeID:     info.ThemeID,
			Date:        info.Date,
			Time:        info.Time,
			Location:    info.Location,
			EvalGroup:   group,
		})
		return err
	}
	err = move("2026_1")
	cErr, _ := errors.Cause(err).(*core.ConflictError)
	if cErr == nil {
		t.Fatalf("Update() error = %v, want ConflictError", err)
	}
	if len(cErr.IDs) != 1 || cErr.IDs[0] != s1.ID {
		t.Errorf("conflict IDs = %v, want [%s]", cErr.IDs, s1.ID)
	}
	got, err := env.svc.GetByID(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if got.EvalGroup != "2026_2" {
		t.Errorf("eval group = %q, want unchanged 2026_2", got.EvalGroup)
	}

	// a group without the student accepts the move
	if err := move("2026_3"); err != nil {
		t.Errorf("Update() into a free group failed: %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	s1 := env.db.AddStudent(reference.Student{Name: "Ada", Code: "S001"})

	info, err := env.svc.Create(ctx, env.newCommission("Finals A", "2026_1", s1.ID))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := env.svc.Delete(ctx, info.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := env.svc.GetByID(ctx, info.ID); err != commission.ErrNotFound {
		t.Errorf("GetByID() after delete error = %v, want %v", err, commission.ErrNotFound)
	}
	evs, err := env.evalSvc.ByCommissions(ctx, []string{info.ID})
	if err != nil {
		t.Fatalf("ByCommissions() failed: %v", err)
	}
	if len(evs) != 0 {
		t.Errorf("delete left %d evaluations behind", len(evs))
	}
}

func TestService_Delete_refusesCompletedEvaluations(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	s1 := env.db.AddStudent(reference.Student{Name: "Ada", Code: "S001"})

	info, err := env.svc.Create(ctx, env.newCommission("Finals A", "2026_1", s1.ID))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err = env.evalSvc.Update(ctx, info.Roster[0].EvaluationID, evaluation.UpdateEvaluation{
		Status: evaluation.StatusCompleted,
	}); err != nil {
		t.Fatalf("completing evaluation failed: %v", err)
	}

	err = env.svc.Delete(ctx, info.ID)
	cErr, _ := errors.Cause(err).(*core.ConflictError)
	if cErr == nil {
		t.Fatalf("Delete() error = %v, want ConflictError", err)
	}

	// nothing was removed
	got, err := env.svc.GetByID(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if len(got.Roster) != 1 {
		t.Errorf("roster = %v, want untouched", got.Roster)
	}
	if !got.Finalized {
		t.Error("commission with all evaluations completed not reported finalized")
	}
}

func assertValidationError(t *testing.T, err error, field string) {
	t.Helper()
	vErr, _ := errors.Cause(err).(*core.ValidationError)
	if vErr == nil {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if len(vErr.Fields) == 0 || vErr.Fields[0].Field != field {
		t.Errorf("ValidationError fields = %v, want an error on %q", vErr.Fields, field)
	}
}
