package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/score"
)

type scoreRepository struct {
	db *DB
}

var _ score.Repository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(db *DB) score.Repository {
	return &scoreRepository{db: db}
}

func (repo *scoreRepository) CriteriaMaxima(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (map[string]float64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	maxima := make(map[string]float64)
	for _, crit := range repo.db.criteria {
		if crit.GuidelineID == guidelineID {
			maxima[crit.ID] = crit.MaxScore
		}
	}
	return maxima, nil
}

func (repo *scoreRepository) InsertScores(ctx context.Context, scores []score.Score, exec ...core.DBExecutor) ([]score.Score, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	out := make([]score.Score, 0, len(scores))
	for _, sc := range scores {
		sc.ID = uuid.New().String()
		repo.db.scores[sc.ID] = sc
		out = append(out, sc)
	}
	return out, nil
}

func (repo *scoreRepository) ScoresByEvaluation(ctx context.Context, evaluationID string, exec ...core.DBExecutor) ([]score.Score, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	scores := make([]score.Score, 0)
	for _, sc := range repo.db.scores {
		if sc.EvaluationID == evaluationID {
			scores = append(scores, sc)
		}
	}
	return scores, nil
}

func (repo *scoreRepository) DeleteScoresByEvaluation(ctx context.Context, evaluationID string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for id, sc := range repo.db.scores {
		if sc.EvaluationID == evaluationID {
			delete(repo.db.scores, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *scoreRepository) DeleteScoresByGuideline(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for id, sc := range repo.db.scores {
		crit, ok := repo.db.criteria[sc.CriterionID]
		if ok && crit.GuidelineID == guidelineID {
			delete(repo.db.scores, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *scoreRepository) DeleteScoresByCommission(ctx context.Context, commissionID string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for id, sc := range repo.db.scores {
		ev, ok := repo.db.evaluations[sc.EvaluationID]
		if ok && ev.CommissionID == commissionID {
			delete(repo.db.scores, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *scoreRepository) GuidelineHasScores(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sc := range repo.db.scores {
		if crit, ok := repo.db.criteria[sc.CriterionID]; ok && crit.GuidelineID == guidelineID {
			return true, nil
		}
	}
	return false, nil
}
