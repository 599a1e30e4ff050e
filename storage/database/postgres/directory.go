package pgrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/evaluation"
	"github.com/evalia/backend/core/reference"
)

// directory answers read-only lookups over reference data plus the
// cross-component refs the evaluation coordinator needs.
type directory struct {
	exec core.DBExecutor
}

var (
	_ reference.Directory  = (*directory)(nil) // interface compliance check
	_ evaluation.Directory = (*directory)(nil)
)

func NewDirectory(exec core.DBExecutor) *directory {
	return &directory{exec: exec}
}

func (dir directory) GetProfessor(ctx context.Context, id string, exec ...core.DBExecutor) (reference.Professor, error) {
	var p reference.Professor
	if _, err := uuid.Parse(id); err != nil {
		return p, reference.ErrProfessorNotFound
	}
	err := getExec(dir.exec, exec).GetContext(ctx, &p, "SELECT * FROM professor WHERE id = $1", id)
	if err != nil {
		return reference.Professor{}, trapNoRowsErr(err, reference.ErrProfessorNotFound, "finding professor by ID")
	}
	return p, nil
}

func (dir directory) GetTheme(ctx context.Context, id string, exec ...core.DBExecutor) (reference.Theme, error) {
	var t reference.Theme
	if _, err := uuid.Parse(id); err != nil {
		return t, reference.ErrThemeNotFound
	}
	err := getExec(dir.exec, exec).GetContext(ctx, &t, "SELECT * FROM theme WHERE id = $1", id)
	if err != nil {
		return reference.Theme{}, trapNoRowsErr(err, reference.ErrThemeNotFound, "finding theme by ID")
	}
	return t, nil
}

func (dir directory) GetStudents(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]reference.Student, error) {
	ids = validUUIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	q, qargs, err := inQuery("SELECT * FROM student WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	students := make([]reference.Student, 0, len(ids))
	if err = getExec(dir.exec, exec).SelectContext(ctx, &students, q, qargs...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (dir directory) MissingStudents(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]string, error) {
	students, err := dir.GetStudents(ctx, ids, exec...)
	if err != nil {
		return nil, err
	}
	found := make(map[string]struct{}, len(students))
	for _, s := range students {
		found[s.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (dir directory) GetCommissionRef(ctx context.Context, id string, exec ...core.DBExecutor) (evaluation.CommissionRef, error) {
	var row struct {
		ID             string `db:"id"`
		Name           string `db:"name"`
		ProfessorID    string `db:"professor_id"`
		ProfessorName  string `db:"professor_name"`
		ProfessorEmail string `db:"professor_email"`
	}
	if _, err := uuid.Parse(id); err != nil {
		return evaluation.CommissionRef{}, evaluation.ErrCommissionNotFound
	}
	err := getExec(dir.exec, exec).GetContext(ctx, &row, `
		SELECT c.id, c.name, p.id AS professor_id, p.name AS professor_name, p.email AS professor_email
		FROM commission c
		JOIN professor p ON p.id = c.professor_id
		WHERE c.id = $1`,
		id,
	)
	if err != nil {
		return evaluation.CommissionRef{}, trapNoRowsErr(err, evaluation.ErrCommissionNotFound, "finding commission ref")
	}
	return evaluation.CommissionRef{
		ID:   row.ID,
		Name: row.Name,
		Professor: reference.Professor{
			ID:    row.ProfessorID,
			Name:  row.ProfessorName,
			Email: row.ProfessorEmail,
		},
	}, nil
}

func (dir directory) GuidelineExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	var exists bool
	err := getExec(dir.exec, exec).GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM guideline WHERE id = $1)", id,
	)
	return exists, errors.Wrap(err, "checking guideline")
}
