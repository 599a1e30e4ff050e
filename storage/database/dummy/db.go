package dummydb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/commission"
	"github.com/evalia/backend/core/evaluation"
	"github.com/evalia/backend/core/guideline"
	"github.com/evalia/backend/core/reference"
	"github.com/evalia/backend/core/score"
	"github.com/evalia/backend/core/term"
)

// DB is an in-memory store for tests. Repositories ignore the exec argument
// and operate on the shared tables; Begin snapshots them so a rolled back
// transaction leaves no trace.
type DB struct {
	sync.RWMutex

	professors  map[string]reference.Professor
	students    map[string]reference.Student
	themes      map[string]reference.Theme
	subjects    map[string]reference.Subject
	enrollments map[string]term.Enrollment
	terms       map[string]term.Term
	commissions map[string]commission.Commission
	evaluations map[string]evaluation.Evaluation
	guidelines  map[string]guideline.Guideline
	criteria    map[string]guideline.Criterion
	scores      map[string]score.Score
}

var _ core.DB = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	db := &DB{
		professors:  make(map[string]reference.Professor),
		students:    make(map[string]reference.Student),
		themes:      make(map[string]reference.Theme),
		subjects:    make(map[string]reference.Subject),
		enrollments: make(map[string]term.Enrollment),
		terms:       make(map[string]term.Term),
		commissions: make(map[string]commission.Commission),
		evaluations: make(map[string]evaluation.Evaluation),
		guidelines:  make(map[string]guideline.Guideline),
		criteria:    make(map[string]guideline.Criterion),
		scores:      make(map[string]score.Score),
	}
	return db, nil
}

var errRawSQL = errors.New("dummydb: raw SQL is not supported")

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errRawSQL
}

func (db *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errRawSQL
}

func (db *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errRawSQL
}

func (db *DB) Begin(ctx context.Context) (core.DBTransactor, error) {
	db.Lock()
	defer db.Unlock()
	return &memTx{db: db, snapshot: db.copyTables()}, nil
}

// memTx delegates to the shared tables; Rollback restores the snapshot taken
// at Begin.
type memTx struct {
	db       *DB
	snapshot *DB
	done     bool
}

var _ core.DBTransactor = (*memTx)(nil)

func (tx *memTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errRawSQL
}

func (tx *memTx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errRawSQL
}

func (tx *memTx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errRawSQL
}

func (tx *memTx) Commit() error {
	if tx.done {
		return sql.ErrTxDone
	}
	tx.done = true
	tx.snapshot = nil
	return nil
}

func (tx *memTx) Rollback() error {
	if tx.done {
		return sql.ErrTxDone
	}
	tx.done = true

	tx.db.Lock()
	defer tx.db.Unlock()
	tx.db.professors = tx.snapshot.professors
	tx.db.students = tx.snapshot.students
	tx.db.themes = tx.snapshot.themes
	tx.db.subjects = tx.snapshot.subjects
	tx.db.enrollments = tx.snapshot.enrollments
	tx.db.terms = tx.snapshot.terms
	tx.db.commissions = tx.snapshot.commissions
	tx.db.evaluations = tx.snapshot.evaluations
	tx.db.guidelines = tx.snapshot.guidelines
	tx.db.criteria = tx.snapshot.criteria
	tx.db.scores = tx.snapshot.scores
	return nil
}

func (db *DB) copyTables() *DB {
	cp := &DB{
		professors:  make(map[string]reference.Professor, len(db.professors)),
		students:    make(map[string]reference.Student, len(db.students)),
		themes:      make(map[string]reference.Theme, len(db.themes)),
		subjects:    make(map[string]reference.Subject, len(db.subjects)),
		enrollments: make(map[string]term.Enrollment, len(db.enrollments)),
		terms:       make(map[string]term.Term, len(db.terms)),
		commissions: make(map[string]commission.Commission, len(db.commissions)),
		evaluations: make(map[string]evaluation.Evaluation, len(db.evaluations)),
		guidelines:  make(map[string]guideline.Guideline, len(db.guidelines)),
		criteria:    make(map[string]guideline.Criterion, len(db.criteria)),
		scores:      make(map[string]score.Score, len(db.scores)),
	}
	for k, v := range db.professors {
		cp.professors[k] = v
	}
	for k, v := range db.students {
		cp.students[k] = v
	}
	for k, v := range db.themes {
		cp.themes[k] = v
	}
	for k, v := range db.subjects {
		cp.subjects[k] = v
	}
	for k, v := range db.enrollments {
		cp.enrollments[k] = v
	}
	for k, v := range db.terms {
		cp.terms[k] = v
	}
	for k, v := range db.commissions {
		cp.commissions[k] = v
	}
	for k, v := range db.evaluations {
		cp.evaluations[k] = v
	}
	for k, v := range db.guidelines {
		cp.guidelines[k] = v
	}
	for k, v := range db.criteria {
		cp.criteria[k] = v
	}
	for k, v := range db.scores {
		cp.scores[k] = v
	}
	return cp
}

// Seed helpers for reference data the engine does not own.

func (db *DB) AddProfessor(p reference.Professor) reference.Professor {
	db.Lock()
	defer db.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	db.professors[p.ID] = p
	return p
}

func (db *DB) AddStudent(s reference.Student) reference.Student {
	db.Lock()
	defer db.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	db.students[s.ID] = s
	return s
}

func (db *DB) AddTheme(t reference.Theme) reference.Theme {
	db.Lock()
	defer db.Unlock()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	db.themes[t.ID] = t
	return t
}

func (db *DB) AddSubject(s reference.Subject) reference.Subject {
	db.Lock()
	defer db.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	db.subjects[s.ID] = s
	return s
}

func (db *DB) AddEnrollment(e term.Enrollment) term.Enrollment {
	db.Lock()
	defer db.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = term.EnrollmentActive
	}
	db.enrollments[e.ID] = e
	return e
}

// Enrollments returns every enrollment row, for assertions on rollovers.
func (db *DB) Enrollments() []term.Enrollment {
	db.RLock()
	defer db.RUnlock()
	out := make([]term.Enrollment, 0, len(db.enrollments))
	for _, e := range db.enrollments {
		out = append(out, e)
	}
	return out
}
