package domain

import "context"

// Snapshots resolves the read-only inputs of a matching run.
type Snapshots interface {
	GetStudent(ctx context.Context, id int64) (Student, error)
	ListActiveInternships(ctx context.Context) ([]Internship, error)
}

// Session is the write side of a single storage transaction.
type Session interface {
	StudentExists(ctx context.Context, id int64) error
	InternshipExists(ctx context.Context, id int64) error
	// UpsertMatch creates a pending match or updates the score of the existing
	// one, leaving its status untouched.
	UpsertMatch(ctx context.Context, studentID, internshipID int64, score float64) (Match, error)
}

// Transactor runs fn inside a transaction that is committed when fn returns
// nil and rolled back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Session) error) error
}
