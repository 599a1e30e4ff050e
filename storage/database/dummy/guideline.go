package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/guideline"
)

type guidelineRepository struct {
	db *DB
}

var _ guideline.Repository = (*guidelineRepository)(nil) // interface compliance check

func NewGuidelineRepository(db *DB) guideline.Repository {
	return &guidelineRepository{db: db}
}

func (repo *guidelineRepository) CheckNameUniqueness(ctx context.Context, name string, excluded []guideline.Guideline, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exclIDs := make([]string, 0, len(excluded))
	for _, gl := range excluded {
		exclIDs = append(exclIDs, gl.ID)
	}
	for _, gl := range repo.db.guidelines {
		if gl.Name == name && !containsID(gl.ID, exclIDs) {
			return guideline.ErrNameExists
		}
	}
	return nil
}

func (repo *guidelineRepository) CreateGuideline(ctx context.Context, gl guideline.Guideline, exec ...core.DBExecutor) (guideline.Guideline, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	gl.ID = uuid.New().String()
	stored := gl
	stored.Criteria = nil
	repo.db.guidelines[gl.ID] = stored
	return gl, nil
}

func (repo *guidelineRepository) GetGuideline(ctx context.Context, id string, exec ...core.DBExecutor) (guideline.Guideline, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if gl, ok := repo.db.guidelines[id]; ok {
		return gl, nil
	}
	return guideline.Guideline{}, guideline.ErrNotFound
}

func (repo *guidelineRepository) QueryGuidelines(
	ctx context.Context,
	filter *guideline.QueryFilter,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]guideline.Guideline, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	gls := make([]guideline.Guideline, 0, len(repo.db.guidelines))
	for _, gl := range repo.db.guidelines {
		if filter != nil {
			if filter.ThemeID != "" && gl.ThemeID != filter.ThemeID {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(gl.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		gls = append(gls, gl)
	}
	sort.Slice(gls, func(i, j int) bool { return gls[i].Name < gls[j].Name })
	return gls, nil
}

func (repo *guidelineRepository) UpdateGuideline(ctx context.Context, gl guideline.Guideline, exec ...core.DBExecutor) (guideline.Guideline, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.guidelines[gl.ID]; !ok {
		return guideline.Guideline{}, guideline.ErrNotFound
	}
	stored := gl
	stored.Criteria = nil
	repo.db.guidelines[gl.ID] = stored
	return gl, nil
}

func (repo *guidelineRepository) DeleteGuideline(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.guidelines, id)
	return nil
}

func (repo *guidelineRepository) InsertCriteria(ctx context.Context, criteria []guideline.Criterion, exec ...core.DBExecutor) ([]guideline.Criterion, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	out := make([]guideline.Criterion, 0, len(criteria))
	for _, crit := range criteria {
		crit.ID = uuid.New().String()
		repo.db.criteria[crit.ID] = crit
		out = append(out, crit)
	}
	return out, nil
}

func (repo *guidelineRepository) CriteriaByGuideline(ctx context.Context, guidelineID string, exec ...core.DBExecutor) ([]guideline.Criterion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	criteria := make([]guideline.Criterion, 0)
	for _, crit := range repo.db.criteria {
		if crit.GuidelineID == guidelineID {
			criteria = append(criteria, crit)
		}
	}
	sort.Slice(criteria, func(i, j int) bool { return criteria[i].Description < criteria[j].Description })
	return criteria, nil
}

func (repo *guidelineRepository) DeleteCriteriaByGuideline(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for id, crit := range repo.db.criteria {
		if crit.GuidelineID == guidelineID {
			delete(repo.db.criteria, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *guidelineRepository) CountEvaluationsReferencing(ctx context.Context, guidelineID string, exec ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var cnt int
	for _, ev := range repo.db.evaluations {
		if ev.GuidelineID.Valid && ev.GuidelineID.String == guidelineID {
			cnt++
		}
	}
	return cnt, nil
}
