package guideline_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/evaluation"
	"github.com/evalia/backend/core/guideline"
	"github.com/evalia/backend/core/reference"
	"github.com/evalia/backend/core/score"
	dummydb "github.com/evalia/backend/storage/database/dummy"
)

type testEnv struct {
	db        *dummydb.DB
	svc       *guideline.Service
	evalRepo  evaluation.Repository
	scoreRepo score.Repository
	theme     reference.Theme
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	dir := dummydb.NewDirectory(db)
	engine := score.NewEngine(dummydb.NewScoreRepository(db))
	return &testEnv{
		db:        db,
		svc:       guideline.NewService(db, dummydb.NewGuidelineRepository(db), engine, dir),
		evalRepo:  dummydb.NewEvaluationRepository(db),
		scoreRepo: dummydb.NewScoreRepository(db),
		theme:     db.AddTheme(reference.Theme{Name: "Distributed Systems"}),
	}
}

func (env *testEnv) createGuideline(t *testing.T, name string) guideline.Guideline {
	t.Helper()
	gl, err := env.svc.Create(context.Background(), guideline.NewGuideline{
		Name:    name,
		ThemeID: env.theme.ID,
		Criteria: []guideline.NewCriterion{
			{Description: "Clarity", MaxScore: 10},
			{Description: "Depth", MaxScore: 5},
		},
	})
	if err != nil {
		t.Fatalf("createGuideline() failed: %v", err)
	}
	return gl
}

func (env *testEnv) recordScore(t *testing.T, evaluationID, criterionID string, val float64) {
	t.Helper()
	if _, err := env.scoreRepo.InsertScores(context.Background(), []score.Score{
		{EvaluationID: evaluationID, CriterionID: criterionID, Score: val},
	}); err != nil {
		t.Fatalf("recordScore() failed: %v", err)
	}
}

func TestService_Create(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	gl := env.createGuideline(t, "Orals Rubric")
	if len(gl.Criteria) != 2 {
		t.Fatalf("got %d criteria, want 2", len(gl.Criteria))
	}
	for _, crit := range gl.Criteria {
		if crit.GuidelineID != gl.ID {
			t.Errorf("criterion %s bound to %s, want %s", crit.ID, crit.GuidelineID, gl.ID)
		}
	}

	_, err := env.svc.Create(ctx, guideline.NewGuideline{Name: "No Theme", ThemeID: "ghost"})
	vErr, _ := errors.Cause(err).(*core.ValidationError)
	if vErr == nil {
		t.Fatalf("Create() error = %v, want ValidationError", err)
	}

	err = env.svc.CheckNameUniqueness(ctx, "Orals Rubric")
	if vErr, _ = errors.Cause(err).(*core.ValidationError); vErr == nil {
		t.Errorf("CheckNameUniqueness() error = %v, want ValidationError", err)
	}
}

func TestService_Update_replacesCriteriaAndPurgesScores(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	gl := env.createGuideline(t, "Orals Rubric")
	env.recordScore(t, "eval-1", gl.Criteria[0].ID, 7)
	env.recordScore(t, "eval-1", gl.Criteria[1].ID, 3)

	has, err := env.svc.HasScores(ctx, gl.ID)
	if err != nil {
		t.Fatalf("HasScores() failed: %v", err)
	}
	if !has {
		t.Fatal("HasScores() = false after recording scores")
	}

	updated, err := env.svc.Update(ctx, gl.ID, guideline.UpdateGuideline{
		Criteria: []guideline.NewCriterion{{Description: "Rigor", MaxScore: 20}},
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if len(updated.Criteria) != 1 || updated.Criteria[0].Description != "Rigor" {
		t.Errorf("criteria = %v, want single Rigor criterion", updated.Criteria)
	}

	// no score may survive pointing at the removed criteria
	if has, err = env.svc.HasScores(ctx, gl.ID); err != nil {
		t.Fatalf("HasScores() failed: %v", err)
	} else if has {
		t.Error("scores survived criteria replacement")
	}
	scores, err := env.scoreRepo.ScoresByEvaluation(ctx, "eval-1")
	if err != nil {
		t.Fatalf("ScoresByEvaluation() failed: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("%d orphaned scores left behind: %v", len(scores), scores)
	}
}

func TestService_Update_nilCriteriaKeepsSet(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	gl := env.createGuideline(t, "Orals Rubric")
	env.recordScore(t, "eval-1", gl.Criteria[0].ID, 7)

	updated, err := env.svc.Update(ctx, gl.ID, guideline.UpdateGuideline{Name: "Orals Rubric v2"})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Name != "Orals Rubric v2" {
		t.Errorf("name = %q, want renamed", updated.Name)
	}
	if len(updated.Criteria) != 2 {
		t.Errorf("got %d criteria, want original 2", len(updated.Criteria))
	}
	if has, _ := env.svc.HasScores(ctx, gl.ID); !has {
		t.Error("rename purged recorded scores")
	}
}

func TestService_Delete(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	gl := env.createGuideline(t, "Orals Rubric")
	env.recordScore(t, "eval-1", gl.Criteria[0].ID, 7)

	// an evaluation still references the guideline
	ev, err := env.evalRepo.CreateEvaluation(ctx, evaluation.Evaluation{
		StudentID:    "s1",
		CommissionID: "c1",
		GuidelineID:  null.StringFrom(gl.ID),
		Status:       evaluation.StatusPending,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateEvaluation() failed: %v", err)
	}

	err = env.svc.Delete(ctx, gl.ID)
	cErr, _ := errors.Cause(err).(*core.ConflictError)
	if cErr == nil {
		t.Fatalf("Delete() error = %v, want ConflictError", err)
	}
	if _, err = env.svc.GetByID(ctx, gl.ID); err != nil {
		t.Errorf("guideline removed despite conflict: %v", err)
	}

	// drop the reference, then delete for real
	if _, err = env.evalRepo.DeleteEvaluationsByCommission(ctx, ev.CommissionID); err != nil {
		t.Fatalf("DeleteEvaluationsByCommission() failed: %v", err)
	}
	if err = env.svc.Delete(ctx, gl.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err = env.svc.GetByID(ctx, gl.ID); err != guideline.ErrNotFound {
		t.Errorf("GetByID() after delete error = %v, want %v", err, guideline.ErrNotFound)
	}
	scores, err := env.scoreRepo.ScoresByEvaluation(ctx, "eval-1")
	if err != nil {
		t.Fatalf("ScoresByEvaluation() failed: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("delete left %d scores behind", len(scores))
	}
}
