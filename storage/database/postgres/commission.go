package pgrepos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/commission"
)

type commissionRepository struct {
	exec core.DBExecutor
}

var _ commission.Repository = (*commissionRepository)(nil) // interface compliance check

func NewCommissionRepository(exec core.DBExecutor) *commissionRepository {
	return &commissionRepository{exec: exec}
}

func (repo commissionRepository) CheckNameUniqueness(ctx context.Context, name string, excluded []commission.Commission, exec ...core.DBExecutor) error {
	query := "SELECT EXISTS (SELECT 1 FROM commission WHERE name = ?"
	args := []interface{}{name}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, c := range excluded {
			ids = append(ids, c.ID)
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
		return errors.Wrap(err, "checking commission uniqueness")
	}
	if exists {
		return commission.ErrNameExists
	}
	return nil
}

func (repo commissionRepository) CreateCommission(ctx context.Context, com commission.Commission, exec ...core.DBExecutor) (commission.Commission, error) {
	com.ID = uuid.New().String()
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `
		INSERT INTO commission (id, name, professor_id, theme_id, date, time, location, eval_group, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		com.ID, com.Name, com.ProfessorID, com.ThemeID, com.Date, com.Time, com.Location, com.EvalGroup, com.CreatedAt, com.UpdatedAt,
	)
	if err != nil {
		return commission.Commission{}, errors.Wrap(err, "inserting commission")
	}
	return com, nil
}

func (repo commissionRepository) GetCommission(ctx context.Context, id string, exec ...core.DBExecutor) (commission.Commission, error) {
	var com commission.Commission
	if _, err := uuid.Parse(id); err != nil {
		return com, commission.ErrNotFound
	}
	err := getExec(repo.exec, exec).GetContext(ctx, &com, "SELECT * FROM commission WHERE id = $1", id)
	if err != nil {
		return commission.Commission{}, trapNoRowsErr(err, commission.ErrNotFound, "finding commission by ID")
	}
	return com, nil
}

func (repo commissionRepository) QueryCommissions(
	ctx context.Context,
	filter *commission.QueryFilter,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]commission.Commission, error) {
	query := "SELECT * FROM commission"
	var conds []string
	var args []interface{}

	if filter != nil {
		// a malformed id can never match a uuid column; answer without the cast error
		if filter.ProfessorID != "" && !isUUID(filter.ProfessorID) ||
			filter.ThemeID != "" && !isUUID(filter.ThemeID) {
			return []commission.Commission{}, nil
		}
		if filter.ProfessorID != "" {
			conds = append(conds, "professor_id = ?")
			args = append(args, filter.ProfessorID)
		}
		if filter.ThemeID != "" {
			conds = append(conds, "theme_id = ?")
			args = append(args, filter.ThemeID)
		}
		if filter.EvalGroup != "" {
			conds = append(conds, "eval_group = ?")
			args = append(args, filter.EvalGroup)
		}
		if filter.ExcludeID != "" {
			conds = append(conds, "id <> ?")
			args = append(args, filter.ExcludeID)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		query += " ORDER BY created_at DESC"
	}

	q, qargs, err := inQuery(query, args...)
	if err != nil {
		return nil, err
	}
	coms := make([]commission.Commission, 0)
	if err = getExec(repo.exec, exec).SelectContext(ctx, &coms, q, qargs...); err != nil {
		return nil, errors.Wrap(err, "querying commissions")
	}
	return coms, nil
}

func (repo commissionRepository) UpdateCommission(ctx context.Context, com commission.Commission, exec ...core.DBExecutor) (commission.Commission, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `
		UPDATE commission
		SET name = $2, professor_id = $3, theme_id = $4, date = $5, time = $6, location = $7, eval_group = $8, updated_at = $9
		WHERE id = $1`,
		com.ID, com.Name, com.ProfessorID, com.ThemeID, com.Date, com.Time, com.Location, com.EvalGroup, com.UpdatedAt,
	)
	if err != nil {
		return commission.Commission{}, errors.Wrap(err, "updating commission")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return commission.Commission{}, commission.ErrNotFound
	}
	return com, nil
}

func (repo commissionRepository) DeleteCommission(ctx context.Context, id string, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, "DELETE FROM commission WHERE id = $1", id)
	return errors.Wrap(err, "deleting commission")
}
