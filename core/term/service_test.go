package term_test

import (
	"context"
	"testing"

	"github.com/evalia/backend/core"
	"github.com/evalia/backend/core/reference"
	"github.com/evalia/backend/core/term"
	dummydb "github.com/evalia/backend/storage/database/dummy"
)

func setup(t *testing.T) (*term.Service, term.Repository, *dummydb.DB) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := dummydb.NewTermRepository(db)
	return term.NewService(db, repo), repo, db
}

func createTerm(t *testing.T, repo term.Repository, code string, current bool) term.Term {
	t.Helper()
	tm, err := repo.CreateTerm(context.Background(), term.Term{Code: code, IsCurrent: current})
	if err != nil {
		t.Fatalf("createTerm() failed: %v", err)
	}
	return tm
}

func enrollStudents(t *testing.T, db *dummydb.DB, termID string, n int) string {
	t.Helper()
	subj := db.AddSubject(reference.Subject{Name: "Databases", TermID: termID})
	for i := 0; i < n; i++ {
		s := db.AddStudent(reference.Student{Name: "Student", Code: "S00" + string(rune('1'+i))})
		db.AddEnrollment(term.Enrollment{StudentID: s.ID, SubjectID: subj.ID})
	}
	return subj.ID
}

func TestService_SetCurrent(t *testing.T) {
	svc, repo, db := setup(t)
	ctx := context.Background()

	t1 := createTerm(t, repo, "2025_1", true)
	t2 := createTerm(t, repo, "2025_2", false)
	enrollStudents(t, db, t1.ID, 2)

	got, err := svc.SetCurrent(ctx, t2.ID)
	if err != nil {
		t.Fatalf("SetCurrent() failed: %v", err)
	}
	if !got.IsCurrent {
		t.Error("SetCurrent() returned term not flagged current")
	}

	// exactly one current term afterwards
	terms, err := svc.Query(ctx)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	var currents []term.Term
	for _, tm := range terms {
		if tm.IsCurrent {
			currents = append(currents, tm)
		}
	}
	if len(currents) != 1 || currents[0].ID != t2.ID {
		t.Errorf("want exactly one current term (%s); got %v", t2.ID, currents)
	}

	// outgoing term's enrollments are deactivated
	for _, enr := range db.Enrollments() {
		if enr.Status != term.EnrollmentInactive {
			t.Errorf("enrollment %s still %q after rollover", enr.ID, enr.Status)
		}
	}
}

func TestService_SetCurrent_sameTermIsNoop(t *testing.T) {
	svc, repo, db := setup(t)
	ctx := context.Background()

	t1 := createTerm(t, repo, "2025_1", true)
	enrollStudents(t, db, t1.ID, 1)

	if _, err := svc.SetCurrent(ctx, t1.ID); err != nil {
		t.Fatalf("SetCurrent() failed: %v", err)
	}

	for _, enr := range db.Enrollments() {
		if enr.Status != term.EnrollmentActive {
			t.Errorf("enrollment %s deactivated by no-op rollover", enr.ID)
		}
	}
	cur, err := svc.GetCurrent(ctx)
	if err != nil {
		t.Fatalf("GetCurrent() failed: %v", err)
	}
	if cur.ID != t1.ID {
		t.Errorf("GetCurrent() = %s, want %s", cur.ID, t1.ID)
	}
}

func TestService_SetCurrent_firstRollover(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.GetCurrent(ctx); err != term.ErrNoCurrentTerm {
		t.Fatalf("GetCurrent() error = %v, want %v", err, term.ErrNoCurrentTerm)
	}

	t1 := createTerm(t, repo, "2025_1", false)
	if _, err := svc.SetCurrent(ctx, t1.ID); err != nil {
		t.Fatalf("SetCurrent() failed: %v", err)
	}
	cur, err := svc.GetCurrent(ctx)
	if err != nil {
		t.Fatalf("GetCurrent() failed: %v", err)
	}
	if cur.ID != t1.ID {
		t.Errorf("GetCurrent() = %s, want %s", cur.ID, t1.ID)
	}
}

func TestService_SetCurrent_unknownTerm(t *testing.T) {
	svc, repo, _ := setup(t)
	createTerm(t, repo, "2025_1", true)

	if _, err := svc.SetCurrent(context.Background(), "nope"); err != term.ErrNotFound {
		t.Errorf("SetCurrent() error = %v, want %v", err, term.ErrNotFound)
	}
}

func TestService_CheckCodeUniqueness(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	taken := createTerm(t, repo, "2025_1", false)

	if err := svc.CheckCodeUniqueness(ctx, "2025_2"); err != nil {
		t.Errorf("CheckCodeUniqueness() unexpected error = %v", err)
	}

	err := svc.CheckCodeUniqueness(ctx, "2025_1")
	var vErr *core.ValidationError
	if vErr, _ = err.(*core.ValidationError); vErr == nil {
		t.Fatalf("CheckCodeUniqueness() error = %v, want ValidationError", err)
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "code" {
		t.Errorf("ValidationError fields = %v, want a single error on code", vErr.Fields)
	}

	// excluding the taken term itself passes
	if err := svc.CheckCodeUniqueness(ctx, "2025_1", taken); err != nil {
		t.Errorf("CheckCodeUniqueness() with exclusion unexpected error = %v", err)
	}
}
