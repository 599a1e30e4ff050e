package score

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/evalia/backend/core"
)

var (
	// errors
	ErrUnknownCriterion = errors.New("criterion does not belong to the evaluation's guideline")
	ErrScoreAboveMax    = errors.New("score exceeds the criterion maximum")
	ErrNoGuideline      = errors.New("evaluation has no guideline to score against")
)

type (
	Repository interface {
		// CriteriaMaxima returns criterionID -> max score for every criterion of the guideline.
		CriteriaMaxima(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (map[string]float64, error)
		InsertScores(ctx context.Context, scores []Score, exec ...core.DBExecutor) ([]Score, error)
		ScoresByEvaluation(ctx context.Context, evaluationID string, exec ...core.DBExecutor) ([]Score, error)
		DeleteScoresByEvaluation(ctx context.Context, evaluationID string, exec ...core.DBExecutor) (int, error)
		// DeleteScoresByGuideline deletes every score referencing any criterion of the guideline.
		DeleteScoresByGuideline(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (int, error)
		// DeleteScoresByCommission deletes every score of every evaluation under the commission.
		DeleteScoresByCommission(ctx context.Context, commissionID string, exec ...core.DBExecutor) (int, error)
		GuidelineHasScores(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (bool, error)
	}

	// Engine keeps recorded scores consistent with the criterion set of the
	// guideline in force: no score may ever reference a criterion that no
	// longer exists or that belongs to another guideline.
	Engine struct {
		repo Repository
	}
)

func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo}
}

// ReplaceEvaluationScores replaces the evaluation's whole breakdown with the
// supplied set (delete-then-insert). Every line must reference a criterion of
// guidelineID and stay within its maximum. Runs on the caller's executor; the
// caller owns the transaction boundary.
func (eng *Engine) ReplaceEvaluationScores(
	ctx context.Context,
	evaluationID, guidelineID string,
	scores []NewScore,
	exec ...core.DBExecutor,
) ([]Score, error) {
	if guidelineID == "" {
		if len(scores) == 0 {
			return nil, nil
		}
		return nil, core.NewValidationError(ErrNoGuideline, core.FieldError{Field: "scores", Error: ErrNoGuideline.Error()})
	}

	maxima, err := eng.repo.CriteriaMaxima(ctx, guidelineID, exec...)
	if err != nil {
		return nil, errors.Wrap(err, "loading guideline criteria")
	}

	rows := make([]Score, 0, len(scores))
	for _, ns := range scores {
		max, ok := maxima[ns.CriterionID]
		if !ok {
			return nil, core.NewValidationError(
				ErrUnknownCriterion,
				core.FieldError{Field: "scores", Error: fmt.Sprintf("%s: %s", ns.CriterionID, ErrUnknownCriterion)},
			)
		}
		if ns.Score < 0 || ns.Score > max {
			return nil, core.NewValidationError(
				ErrScoreAboveMax,
				core.FieldError{Field: "scores", Error: fmt.Sprintf("%s: score must be within [0, %g]", ns.CriterionID, max)},
			)
		}
		rows = append(rows, Score{
			CriterionID:  ns.CriterionID,
			EvaluationID: evaluationID,
			Score:        ns.Score,
		})
	}

	if _, err = eng.repo.DeleteScoresByEvaluation(ctx, evaluationID, exec...); err != nil {
		return nil, errors.Wrap(err, "deleting prior scores")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	inserted, err := eng.repo.InsertScores(ctx, rows, exec...)
	return inserted, errors.Wrap(err, "inserting scores")
}

// PurgeGuidelineScores deletes every score referencing the guideline's current
// criteria. Must run before those criteria are removed or replaced.
func (eng *Engine) PurgeGuidelineScores(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (int, error) {
	cnt, err := eng.repo.DeleteScoresByGuideline(ctx, guidelineID, exec...)
	return cnt, errors.Wrap(err, "purging guideline scores")
}

// PurgeCommissionScores deletes every score under the commission's evaluations.
// Must run before those evaluations are removed.
func (eng *Engine) PurgeCommissionScores(ctx context.Context, commissionID string, exec ...core.DBExecutor) (int, error) {
	cnt, err := eng.repo.DeleteScoresByCommission(ctx, commissionID, exec...)
	return cnt, errors.Wrap(err, "purging commission scores")
}

// HasScores reports whether any score references a criterion of the guideline.
// Informational only: callers use it to warn before destructive edits.
func (eng *Engine) HasScores(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (bool, error) {
	has, err := eng.repo.GuidelineHasScores(ctx, guidelineID, exec...)
	return has, errors.Wrap(err, "checking guideline scores")
}

// EvaluationScores returns the recorded breakdown of one evaluation.
func (eng *Engine) EvaluationScores(ctx context.Context, evaluationID string, exec ...core.DBExecutor) ([]Score, error) {
	scores, err := eng.repo.ScoresByEvaluation(ctx, evaluationID, exec...)
	return scores, errors.Wrap(err, "querying evaluation scores")
}
