package reference

import (
	"context"

	"github.com/evalia/backend/core"
)

// Directory is the read-only lookup boundary over reference data.
type Directory interface {
	GetProfessor(ctx context.Context, id string, exec ...core.DBExecutor) (Professor, error)
	GetTheme(ctx context.Context, id string, exec ...core.DBExecutor) (Theme, error)
	GetStudents(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]Student, error)
	// MissingStudents returns the subset of ids with no matching student row.
	MissingStudents(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]string, error)
}
