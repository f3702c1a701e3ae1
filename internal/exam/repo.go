package exam

import (
	"context"
	"errors"
)

// Sentinel errors for the scoring API. Handlers map these to HTTP status
// codes with errors.Is; everything else is a storage failure.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadySubmitted = errors.New("attempt already submitted")
)

type ListOpts struct {
	Q      string
	Limit  int
	Offset int
}

type AttemptListOpts struct {
	TestID string
	UserID string
	Status string
	Limit  int
	Offset int
}

// Store is the persistence boundary for tests, attempts and answers. The
// grading logic only ever sees fully materialized values from here, never
// a live persistence graph.
type Store interface {
	PutTest(ctx context.Context, t Test) error
	// GetTest is student-safe: answer keys and scripts are stripped.
	GetTest(ctx context.Context, id string) (Test, error)
	// GetTestAdmin returns the full test including answer keys, for grading.
	GetTestAdmin(ctx context.Context, id string) (Test, error)
	ListTests(ctx context.Context, opts ListOpts) ([]TestSummary, error)

	// NewAttempt creates a pending attempt covering the given sections of
	// the test. An empty sectionIDs covers every section.
	NewAttempt(ctx context.Context, testID, userID string, sectionIDs []string) (Attempt, error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	GetAttemptSection(ctx context.Context, id string) (AttemptSection, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)

	// InsertAnswer persists one graded answer and moves the owning attempt
	// from pending to ongoing if this is its first answer. Each call
	// inserts a fresh row; re-grading the same question is not an upsert.
	InsertAnswer(ctx context.Context, a Answer) (Answer, error)
	ListAnswers(ctx context.Context, attemptID string) ([]Answer, error)

	// FinalizeAttempt is a compare-and-set on status: it records score,
	// band and submission time and moves the attempt to ended, but only if
	// the attempt is not ended yet. A second finalize on the same attempt
	// fails with ErrAlreadySubmitted.
	FinalizeAttempt(ctx context.Context, attemptID string, score int, band *float64, submittedAt int64) (Attempt, error)
}
