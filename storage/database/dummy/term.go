package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/term"
)

type termRepository struct {
	db *DB
}

var _ term.Repository = (*termRepository)(nil) // interface compliance check

func NewTermRepository(db *DB) term.Repository {
	return &termRepository{db: db}
}

func (repo *termRepository) CheckCodeUniqueness(ctx context.Context, code string, excluded []term.Term, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exclIDs := make([]string, 0, len(excluded))
	for _, t := range excluded {
		exclIDs = append(exclIDs, t.ID)
	}
	for _, t := range repo.db.terms {
		if t.Code == code && !containsID(t.ID, exclIDs) {
			return term.ErrCodeExists
		}
	}
	return nil
}

func (repo *termRepository) CreateTerm(ctx context.Context, t term.Term, exec ...core.DBExecutor) (term.Term, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.ID = uuid.New().String()
	repo.db.terms[t.ID] = t
	return t, nil
}

func (repo *termRepository) GetTerm(ctx context.Context, id string, exec ...core.DBExecutor) (term.Term, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.terms[id]; ok {
		return t, nil
	}
	return term.Term{}, term.ErrNotFound
}

func (repo *termRepository) GetCurrentTerm(ctx context.Context, exec ...core.DBExecutor) (term.Term, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, t := range repo.db.terms {
		if t.IsCurrent {
			return t, nil
		}
	}
	return term.Term{}, term.ErrNoCurrentTerm
}

func (repo *termRepository) QueryTerms(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]term.Term, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	terms := make([]term.Term, 0, len(repo.db.terms))
	for _, t := range repo.db.terms {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Code < terms[j].Code })
	return terms, nil
}

func (repo *termRepository) DeactivateEnrollmentsByTerm(ctx context.Context, termID string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for id, enr := range repo.db.enrollments {
		subj, ok := repo.db.subjects[enr.SubjectID]
		if !ok || subj.TermID != termID {
			continue
		}
		enr.Status = term.EnrollmentInactive
		repo.db.enrollments[id] = enr
		cnt++
	}
	return cnt, nil
}

func (repo *termRepository) ClearCurrentFlags(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for id, t := range repo.db.terms {
		if t.IsCurrent {
			t.IsCurrent = false
			repo.db.terms[id] = t
			cnt++
		}
	}
	return cnt, nil
}

func (repo *termRepository) MarkCurrent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	t, ok := repo.db.terms[id]
	if !ok {
		return term.ErrNotFound
	}
	t.IsCurrent = true
	repo.db.terms[id] = t
	return nil
}
