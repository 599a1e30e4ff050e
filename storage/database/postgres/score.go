package pgrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/score"
)

type scoreRepository struct {
	exec core.DBExecutor
}

var _ score.Repository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(exec core.DBExecutor) *scoreRepository {
	return &scoreRepository{exec: exec}
}

func (repo scoreRepository) CriteriaMaxima(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (map[string]float64, error) {
	rows := make([]struct {
		ID       string  `db:"id"`
		MaxScore float64 `db:"max_score"`
	}, 0)
	err := getExec(repo.exec, exec).SelectContext(ctx, &rows,
		"SELECT id, max_score FROM criterion WHERE guideline_id = $1", guidelineID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying criteria maxima")
	}
	maxima := make(map[string]float64, len(rows))
	for _, row := range rows {
		maxima[row.ID] = row.MaxScore
	}
	return maxima, nil
}

func (repo scoreRepository) InsertScores(ctx context.Context, scores []score.Score, exec ...core.DBExecutor) ([]score.Score, error) {
	exe := getExec(repo.exec, exec)
	for i := range scores {
		scores[i].ID = uuid.New().String()
		_, err := exe.ExecContext(ctx,
			"INSERT INTO score_detail (id, criterion_id, evaluation_id, score) VALUES ($1, $2, $3, $4)",
			scores[i].ID, scores[i].CriterionID, scores[i].EvaluationID, scores[i].Score,
		)
		if err != nil {
			return nil, errors.Wrap(err, "inserting score")
		}
	}
	return scores, nil
}

func (repo scoreRepository) ScoresByEvaluation(ctx context.Context, evaluationID string, exec ...core.DBExecutor) ([]score.Score, error) {
	scores := make([]score.Score, 0)
	err := getExec(repo.exec, exec).SelectContext(ctx, &scores,
		"SELECT * FROM score_detail WHERE evaluation_id = $1", evaluationID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying evaluation scores")
	}
	return scores, nil
}

func (repo scoreRepository) DeleteScoresByEvaluation(ctx context.Context, evaluationID string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx,
		"DELETE FROM score_detail WHERE evaluation_id = $1", evaluationID,
	)
	if err != nil {
		return 0, errors.Wrap(err, "deleting evaluation scores")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo scoreRepository) DeleteScoresByGuideline(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `
		DELETE FROM score_detail
		WHERE criterion_id IN (SELECT id FROM criterion WHERE guideline_id = $1)`,
		guidelineID,
	)
	if err != nil {
		return 0, errors.Wrap(err, "deleting guideline scores")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo scoreRepository) DeleteScoresByCommission(ctx context.Context, commissionID string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `
		DELETE FROM score_detail
		WHERE evaluation_id IN (SELECT id FROM evaluation_detail WHERE commission_id = $1)`,
		commissionID,
	)
	if err != nil {
		return 0, errors.Wrap(err, "deleting commission scores")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo scoreRepository) GuidelineHasScores(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	err := getExec(repo.exec, exec).GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM score_detail s
			JOIN criterion c ON c.id = s.criterion_id
			WHERE c.guideline_id = $1
		)`,
		guidelineID,
	)
	return exists, errors.Wrap(err, "checking guideline scores")
}
