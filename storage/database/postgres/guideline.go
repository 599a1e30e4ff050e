package pgrepos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/guideline"
)

type guidelineRepository struct {
	exec core.DBExecutor
}

var _ guideline.Repository = (*guidelineRepository)(nil) // interface compliance check

func NewGuidelineRepository(exec core.DBExecutor) *guidelineRepository {
	return &guidelineRepository{exec: exec}
}

func (repo guidelineRepository) CheckNameUniqueness(ctx context.Context, name string, excluded []guideline.Guideline, exec ...core.DBExecutor) error {
	query := "SELECT EXISTS (SELECT 1 FROM guideline WHERE name = ?"
	args := []interface{}{name}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, gl := range excluded {
			ids = append(ids, gl.ID)
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
		return errors.Wrap(err, "checking guideline uniqueness")
	}
	if exists {
		return guideline.ErrNameExists
	}
	return nil
}

func (repo guidelineRepository) CreateGuideline(ctx context.Context, gl guideline.Guideline, exec ...core.DBExecutor) (guideline.Guideline, error) {
	gl.ID = uuid.New().String()
	_, err := getExec(repo.exec, exec).ExecContext(ctx,
		"INSERT INTO guideline (id, name, theme_id) VALUES ($1, $2, $3)",
		gl.ID, gl.Name, gl.ThemeID,
	)
	if err != nil {
		return guideline.Guideline{}, errors.Wrap(err, "inserting guideline")
	}
	return gl, nil
}

func (repo guidelineRepository) GetGuideline(ctx context.Context, id string, exec ...core.DBExecutor) (guideline.Guideline, error) {
	var gl guideline.Guideline
	if _, err := uuid.Parse(id); err != nil {
		return gl, guideline.ErrNotFound
	}
	err := getExec(repo.exec, exec).GetContext(ctx, &gl, "SELECT id, name, theme_id FROM guideline WHERE id = $1", id)
	if err != nil {
		return guideline.Guideline{}, trapNoRowsErr(err, guideline.ErrNotFound, "finding guideline by ID")
	}
	return gl, nil
}

func (repo guidelineRepository) QueryGuidelines(
	ctx context.Context,
	filter *guideline.QueryFilter,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]guideline.Guideline, error) {
	query := "SELECT id, name, theme_id FROM guideline"
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.ThemeID != "" {
			conds = append(conds, "theme_id = ?")
			args = append(args, filter.ThemeID)
		}
		if filter.Search != "" {
			conds = append(conds, "name ILIKE ?")
			args = append(args, "%"+filter.Search+"%")
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
		query += " ORDER BY name ASC"
	}

	q, qargs, err := inQuery(query, args...)
	if err != nil {
		return nil, err
	}
	gls := make([]guideline.Guideline, 0)
	if err = getExec(repo.exec, exec).SelectContext(ctx, &gls, q, qargs...); err != nil {
		return nil, errors.Wrap(err, "querying guidelines")
	}
	return gls, nil
}

func (repo guidelineRepository) UpdateGuideline(ctx context.Context, gl guideline.Guideline, exec ...core.DBExecutor) (guideline.Guideline, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx,
		"UPDATE guideline SET name = $2, theme_id = $3 WHERE id = $1",
		gl.ID, gl.Name, gl.ThemeID,
	)
	if err != nil {
		return guideline.Guideline{}, errors.Wrap(err, "updating guideline")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return guideline.Guideline{}, guideline.ErrNotFound
	}
	return gl, nil
}

func (repo guidelineRepository) DeleteGuideline(ctx context.Context, id string, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, "DELETE FROM guideline WHERE id = $1", id)
	return errors.Wrap(err, "deleting guideline")
}

func (repo guidelineRepository) InsertCriteria(ctx context.Context, criteria []guideline.Criterion, exec ...core.DBExecutor) ([]guideline.Criterion, error) {
	exe := getExec(repo.exec, exec)
	for i := range criteria {
		criteria[i].ID = uuid.New().String()
		_, err := exe.ExecContext(ctx,
			"INSERT INTO criterion (id, guideline_id, description, max_score) VALUES ($1, $2, $3, $4)",
			criteria[i].ID, criteria[i].GuidelineID, criteria[i].Description, criteria[i].MaxScore,
		)
		if err != nil {
			return nil, errors.Wrap(err, "inserting criterion")
		}
	}
	return criteria, nil
}

func (repo guidelineRepository) CriteriaByGuideline(ctx context.Context, guidelineID string, exec ...core.DBExecutor) ([]guideline.Criterion, error) {
	criteria := make([]guideline.Criterion, 0)
	err := getExec(repo.exec, exec).SelectContext(ctx, &criteria,
		"SELECT * FROM criterion WHERE guideline_id = $1 ORDER BY description ASC", guidelineID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying criteria")
	}
	return criteria, nil
}

func (repo guidelineRepository) DeleteCriteriaByGuideline(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, "DELETE FROM criterion WHERE guideline_id = $1", guidelineID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting criteria")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo guidelineRepository) CountEvaluationsReferencing(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (int, error) {
	var cnt int
	err := getExec(repo.exec, exec).GetContext(ctx, &cnt,
		"SELECT COUNT(*) FROM evaluation_detail WHERE guideline_id = $1", guidelineID,
	)
	return cnt, errors.Wrap(err, "counting referencing evaluations")
}
