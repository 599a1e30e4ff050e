package pgrepos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/term"
)

type termRepository struct {
	exec core.DBExecutor
}

var _ term.Repository = (*termRepository)(nil) // interface compliance check

func NewTermRepository(exec core.DBExecutor) *termRepository {
	return &termRepository{exec: exec}
}

func (repo termRepository) CheckCodeUniqueness(ctx context.Context, code string, excluded []term.Term, exec ...core.DBExecutor) error {
	query := "SELECT EXISTS (SELECT 1 FROM term WHERE code = ?"
	args := []interface{}{code}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, t := range excluded {
			ids = append(ids, t.ID)
		}
		query += " AND id NOT IN (?)"
		args = append(args, ids)
	}
	query += ")"

	q, qargs, err := inQuery(query, args...)
	if err != nil {
		return err
	}
	var exists bool
	if err = getExec(repo.exec, exec).GetContext(ctx, &exists, q, qargs...); err != nil {
		return errors.Wrap(err, "checking term uniqueness")
	}
	if exists {
		return term.ErrCodeExists
	}
	return nil
}

func (repo termRepository) CreateTerm(ctx context.Context, t term.Term, exec ...core.DBExecutor) (term.Term, error) {
	t.ID = uuid.New().String()
	_, err := getExec(repo.exec, exec).ExecContext(ctx,
		"INSERT INTO term (id, code, is_current) VALUES ($1, $2, $3)",
		t.ID, t.Code, t.IsCurrent,
	)
	if err != nil {
		return term.Term{}, errors.Wrap(err, "inserting term")
	}
	return t, nil
}

func (repo termRepository) GetTerm(ctx context.Context, id string, exec ...core.DBExecutor) (term.Term, error) {
	var t term.Term
	if _, err := uuid.Parse(id); err != nil {
		return t, term.ErrNotFound
	}
	err := getExec(repo.exec, exec).GetContext(ctx, &t, "SELECT * FROM term WHERE id = $1", id)
	if err != nil {
		return term.Term{}, trapNoRowsErr(err, term.ErrNotFound, "finding term by ID")
	}
	return t, nil
}

func (repo termRepository) GetCurrentTerm(ctx context.Context, exec ...core.DBExecutor) (term.Term, error) {
	var t term.Term
	err := getExec(repo.exec, exec).GetContext(ctx, &t, "SELECT * FROM term WHERE is_current")
	if err != nil {
		return term.Term{}, trapNoRowsErr(err, term.ErrNoCurrentTerm, "finding current term")
	}
	return t, nil
}

func (repo termRepository) QueryTerms(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]term.Term, error) {
	query := "SELECT * FROM term"
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		query += " ORDER BY code ASC"
	}

	terms := make([]term.Term, 0)
	if err := getExec(repo.exec, exec).SelectContext(ctx, &terms, query); err != nil {
		return nil, errors.Wrap(err, "querying terms")
	}
	return terms, nil
}

func (repo termRepository) DeactivateEnrollmentsByTerm(ctx context.Context, termID string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `
		UPDATE student_subject SET status = $1
		WHERE subject_id IN (SELECT id FROM subject WHERE term_id = $2)`,
		term.EnrollmentInactive, termID,
	)
	if err != nil {
		return 0, errors.Wrap(err, "deactivating enrollments")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo termRepository) ClearCurrentFlags(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, "UPDATE term SET is_current = FALSE WHERE is_current")
	if err != nil {
		return 0, errors.Wrap(err, "clearing current flags")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo termRepository) MarkCurrent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, "UPDATE term SET is_current = TRUE WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "marking current term")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return term.ErrNotFound
	}
	return nil
}
