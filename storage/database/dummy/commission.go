package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/commission"
)

type commissionRepository struct {
	db *DB
}

var _ commission.Repository = (*commissionRepository)(nil) // interface compliance check

func NewCommissionRepository(db *DB) commission.Repository {
	return &commissionRepository{db: db}
}

func (repo *commissionRepository) CheckNameUniqueness(ctx context.Context, name string, excluded []commission.Commission, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, com := range repo.db.commissions {
		if com.Name != name {
			continue
		}
		if containsID(com.ID, commissionIDs(excluded)) {
			continue
		}
		return commission.ErrNameExists
	}
	return nil
}

func (repo *commissionRepository) CreateCommission(ctx context.Context, com commission.Commission, exec ...core.DBExecutor) (commission.Commission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	com.ID = uuid.New().String()
	repo.db.commissions[com.ID] = com
	return com, nil
}

func (repo *commissionRepository) GetCommission(ctx context.Context, id string, exec ...core.DBExecutor) (commission.Commission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if com, ok := repo.db.commissions[id]; ok {
		return com, nil
	}
	return commission.Commission{}, commission.ErrNotFound
}

func (repo *commissionRepository) QueryCommissions(
	ctx context.Context,
	filter *commission.QueryFilter,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]commission.Commission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	coms := make([]commission.Commission, 0, len(repo.db.commissions))
	for _, com := range repo.db.commissions {
		if filter != nil {
			if filter.ProfessorID != "" && com.ProfessorID != filter.ProfessorID {
				continue
			}
			if filter.ThemeID != "" && com.ThemeID != filter.ThemeID {
				continue
			}
			if filter.EvalGroup != "" && com.EvalGroup != filter.EvalGroup {
				continue
			}
			if filter.ExcludeID != "" && com.ID == filter.ExcludeID {
				continue
			}
		}
		coms = append(coms, com)
	}
	sort.Slice(coms, func(i, j int) bool { return coms[i].CreatedAt.After(coms[j].CreatedAt) })
	return coms, nil
}

func (repo *commissionRepository) UpdateCommission(ctx context.Context, com commission.Commission, exec ...core.DBExecutor) (commission.Commission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.commissions[com.ID]
	if !ok {
		return commission.Commission{}, commission.ErrNotFound
	}
	com.CreatedAt = orig.CreatedAt
	repo.db.commissions[com.ID] = com
	return com, nil
}

func (repo *commissionRepository) DeleteCommission(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.commissions, id)
	return nil
}

func commissionIDs(coms []commission.Commission) []string {
	ids := make([]string, 0, len(coms))
	for _, com := range coms {
		ids = append(ids, com.ID)
	}
	return ids
}

func containsID(id string, ids []string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
