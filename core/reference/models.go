package reference

import "errors"

// Reference data: professors, students, themes and subjects are owned by the
// rest of the platform. The core only needs existence checks and the light
// views below for read-side enrichment.

var (
	ErrProfessorNotFound = errors.New("professor not found")
	ErrStudentNotFound   = errors.New("student not found")
	ErrThemeNotFound     = errors.New("theme not found")
)

type Professor struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
}

type Student struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Code string `json:"code" db:"code"` // registration number
}

type Theme struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Subject struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	TermID string `json:"term_id" db:"term_id"`
}
