package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/evaluation"
)

type evaluationRepository struct {
	db *DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *DB) evaluation.Repository {
	return &evaluationRepository{db: db}
}

func (repo *evaluationRepository) CreateEvaluation(ctx context.Context, ev evaluation.Evaluation, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ev.ID = uuid.New().String()
	repo.db.evaluations[ev.ID] = ev
	return ev, nil
}

func (repo *evaluationRepository) GetEvaluation(ctx context.Context, id string, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ev, ok := repo.db.evaluations[id]; ok {
		return ev, nil
	}
	return evaluation.Evaluation{}, evaluation.ErrNotFound
}

func (repo *evaluationRepository) GetPendingEvaluation(ctx context.Context, studentID, commissionID string, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, ev := range repo.db.evaluations {
		if ev.StudentID == studentID && ev.CommissionID == commissionID && ev.Status == evaluation.StatusPending {
			return ev, nil
		}
	}
	return evaluation.Evaluation{}, evaluation.ErrNotFound
}

func (repo *evaluationRepository) QueryEvaluations(
	ctx context.Context,
	filter *evaluation.QueryFilter,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]evaluation.Evaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	evs := make([]evaluation.Evaluation, 0, len(repo.db.evaluations))
	for _, ev := range repo.db.evaluations {
		if filter != nil {
			if filter.Status != "" && ev.Status != filter.Status {
				continue
			}
			if filter.StudentID != "" && ev.StudentID != filter.StudentID {
				continue
			}
			if filter.ProfessorID != "" {
				com, ok := repo.db.commissions[ev.CommissionID]
				if !ok || com.ProfessorID != filter.ProfessorID {
					continue
				}
			}
			if filter.CommissionID != "" && ev.CommissionID != filter.CommissionID {
				continue
			}
			if filter.CommissionIDs != nil && !containsID(ev.CommissionID, filter.CommissionIDs) {
				continue
			}
		}
		evs = append(evs, ev)
	}
	sort.Slice(evs, func(i, j int) bool { return evs[i].CreatedAt.After(evs[j].CreatedAt) })
	return evs, nil
}

func (repo *evaluationRepository) UpdateEvaluation(ctx context.Context, ev evaluation.Evaluation, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.evaluations[ev.ID]
	if !ok {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	}
	ev.CreatedAt = orig.CreatedAt
	repo.db.evaluations[ev.ID] = ev
	return ev, nil
}

func (repo *evaluationRepository) DeleteEvaluationsByCommission(ctx context.Context, commissionID string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for id, ev := range repo.db.evaluations {
		if ev.CommissionID == commissionID {
			delete(repo.db.evaluations, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *evaluationRepository) CountByCommissionAndStatus(ctx context.Context, commissionID, status string, exec ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var cnt int
	for _, ev := range repo.db.evaluations {
		if ev.CommissionID == commissionID && ev.Status == status {
			cnt++
		}
	}
	return cnt, nil
}
