package pgrepos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/evaluation"
)

type evaluationRepository struct {
	exec core.DBExecutor
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(exec core.DBExecutor) *evaluationRepository {
	return &evaluationRepository{exec: exec}
}

func (repo evaluationRepository) CreateEvaluation(ctx context.Context, ev evaluation.Evaluation, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	ev.ID = uuid.New().String()
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `
		INSERT INTO evaluation_detail (id, student_id, commission_id, guideline_id, observation, asked_question, grade, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.StudentID, ev.CommissionID, ev.GuidelineID, ev.Observation, ev.AskedQuestion, ev.Grade, ev.Status, ev.CreatedAt,
	)
	if err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "inserting evaluation")
	}
	return ev, nil
}

func (repo evaluationRepository) GetEvaluation(ctx context.Context, id string, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	var ev evaluation.Evaluation
	if _, err := uuid.Parse(id); err != nil {
		return ev, evaluation.ErrNotFound
	}
	err := getExec(repo.exec, exec).GetContext(ctx, &ev, "SELECT * FROM evaluation_detail WHERE id = $1", id)
	if err != nil {
		return evaluation.Evaluation{}, trapNoRowsErr(err, evaluation.ErrNotFound, "finding evaluation by ID")
	}
	return ev, nil
}

func (repo evaluationRepository) GetPendingEvaluation(ctx context.Context, studentID, commissionID string, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	var ev evaluation.Evaluation
	err := getExec(repo.exec, exec).GetContext(ctx, &ev, `
		SELECT * FROM evaluation_detail
		WHERE student_id = $1 AND commission_id = $2 AND status = $3`,
		studentID, commissionID, evaluation.StatusPending,
	)
	if err != nil {
		return evaluation.Evaluation{}, trapNoRowsErr(err, evaluation.ErrNotFound, "finding pending evaluation")
	}
	return ev, nil
}

func (repo evaluationRepository) QueryEvaluations(
	ctx context.Context,
	filter *evaluation.QueryFilter,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]evaluation.Evaluation, error) {
	query := "SELECT e.* FROM evaluation_detail e"
	var conds []string
	var args []interface{}

	if filter != nil {
		// a malformed id can never match a uuid column; answer without the cast error
		if filter.ProfessorID != "" && !isUUID(filter.ProfessorID) ||
			filter.StudentID != "" && !isUUID(filter.StudentID) ||
			filter.CommissionID != "" && !isUUID(filter.CommissionID) {
			return []evaluation.Evaluation{}, nil
		}
		if filter.ProfessorID != "" {
			query += " JOIN commission c ON c.id = e.commission_id"
			conds = append(conds, "c.professor_id = ?")
			args = append(args, filter.ProfessorID)
		}
		if filter.Status != "" {
			conds = append(conds, "e.status = ?")
			args = append(args, filter.Status)
		}
		if filter.StudentID != "" {
			conds = append(conds, "e.student_id = ?")
			args = append(args, filter.StudentID)
		}
		if filter.CommissionID != "" {
			conds = append(conds, "e.commission_id = ?")
			args = append(args, filter.CommissionID)
		}
		if len(filter.CommissionIDs) > 0 {
			ids := validUUIDs(filter.CommissionIDs)
			if len(ids) == 0 {
				return []evaluation.Evaluation{}, nil
			}
			conds = append(conds, "e.commission_id IN (?)")
			args = append(args, ids)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY e.created_at DESC"

	q, qargs, err := inQuery(query, args...)
	if err != nil {
		return nil, err
	}
	evals := make([]evaluation.Evaluation, 0)
	if err = getExec(repo.exec, exec).SelectContext(ctx, &evals, q, qargs...); err != nil {
		return nil, errors.Wrap(err, "querying evaluations")
	}
	return evals, nil
}

func (repo evaluationRepository) UpdateEvaluation(ctx context.Context, ev evaluation.Evaluation, exec ...core.DBExecutor) (evaluation.Evaluation, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `
		UPDATE evaluation_detail
		SET guideline_id = $2, observation = $3, asked_question = $4, grade = $5, status = $6
		WHERE id = $1`,
		ev.ID, ev.GuidelineID, ev.Observation, ev.AskedQuestion, ev.Grade, ev.Status,
	)
	if err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "updating evaluation")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	}
	return ev, nil
}

func (repo evaluationRepository) DeleteEvaluationsByCommission(ctx context.Context, commissionID string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, "DELETE FROM evaluation_detail WHERE commission_id = $1", commissionID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting commission evaluations")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo evaluationRepository) CountByCommissionAndStatus(ctx context.Context, commissionID, status string, exec ...core.DBExecutor) (int, error) {
	var cnt int
	err := getExec(repo.exec, exec).GetContext(ctx, &cnt, `
		SELECT COUNT(*) FROM evaluation_detail WHERE commission_id = $1 AND status = $2`,
		commissionID, status,
	)
	return cnt, errors.Wrap(err, "counting evaluations")
}
