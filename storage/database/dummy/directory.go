package dummydb

import (
	"context"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/evaluation"
	"github.com/evalia/backend/core/reference"
)

type directory struct {
	db *DB
}

var (
	_ reference.Directory  = (*directory)(nil) // interface compliance check
	_ evaluation.Directory = (*directory)(nil)
)

func NewDirectory(db *DB) *directory {
	return &directory{db: db}
}

func (dir *directory) GetProfessor(ctx context.Context, id string, exec ...core.DBExecutor) (reference.Professor, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	if p, ok := dir.db.professors[id]; ok {
		return p, nil
	}
	return reference.Professor{}, reference.ErrProfessorNotFound
}

func (dir *directory) GetTheme(ctx context.Context, id string, exec ...core.DBExecutor) (reference.Theme, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	if t, ok := dir.db.themes[id]; ok {
		return t, nil
	}
	return reference.Theme{}, reference.ErrThemeNotFound
}

func (dir *directory) GetStudents(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]reference.Student, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	students := make([]reference.Student, 0, len(ids))
	for _, id := range ids {
		if s, ok := dir.db.students[id]; ok {
			students = append(students, s)
		}
	}
	return students, nil
}

func (dir *directory) MissingStudents(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]string, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	var missing []string
	for _, id := range ids {
		if _, ok := dir.db.students[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (dir *directory) GetCommissionRef(ctx context.Context, id string, exec ...core.DBExecutor) (evaluation.CommissionRef, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	com, ok := dir.db.commissions[id]
	if !ok {
		return evaluation.CommissionRef{}, evaluation.ErrCommissionNotFound
	}
	return evaluation.CommissionRef{
		ID:        com.ID,
		Name:      com.Name,
		Professor: dir.db.professors[com.ProfessorID],
	}, nil
}

func (dir *directory) GuidelineExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	_, ok := dir.db.guidelines[id]
	return ok, nil
}
