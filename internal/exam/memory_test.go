package exam

import (
	"context"
	"errors"
	"testing"
)

func TestGetTestStripsAnswerKeys(t *testing.T) {
	store := NewInMemoryStore()
	seedObjectiveTest(t, store)
	ctx := context.Background()

	got, err := store.GetTest(ctx, "t-obj")
	if err != nil {
		t.Fatalf("get test: %v", err)
	}
	for _, sec := range got.Sections {
		for _, q := range sec.Questions {
			if q.AnswerKey != "" {
				t.Errorf("answer key leaked for %s", q.ID)
			}
		}
	}

	// the admin view keeps them, and the stored copy is untouched
	full, err := store.GetTestAdmin(ctx, "t-obj")
	if err != nil {
		t.Fatalf("get test admin: %v", err)
	}
	if full.Sections[0].Questions[0].AnswerKey != "Paris" {
		t.Errorf("admin view lost answer key: %+v", full.Sections[0].Questions[0])
	}
}

func TestNewAttemptValidation(t *testing.T) {
	store := NewInMemoryStore()
	seedObjectiveTest(t, store)
	ctx := context.Background()

	if _, err := store.NewAttempt(ctx, "nope", "u1", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown test: err = %v, want ErrNotFound", err)
	}
	if _, err := store.NewAttempt(ctx, "t-obj", "u1", []string{"sec-nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown section: err = %v, want ErrNotFound", err)
	}

	a, err := store.NewAttempt(ctx, "t-obj", "u1", nil)
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("status = %s, want %s", a.Status, StatusPending)
	}
	if len(a.Sections) != 2 {
		t.Errorf("sections = %d, want all 2 when none specified", len(a.Sections))
	}
}

func TestListAttemptsFilters(t *testing.T) {
	store := NewInMemoryStore()
	seedObjectiveTest(t, store)
	ctx := context.Background()

	a1, _ := store.NewAttempt(ctx, "t-obj", "u1", nil)
	_, _ = store.NewAttempt(ctx, "t-obj", "u2", nil)

	list, err := store.ListAttempts(ctx, AttemptListOpts{UserID: "u1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != a1.ID {
		t.Errorf("list = %+v, want only u1's attempt", list)
	}

	list, _ = store.ListAttempts(ctx, AttemptListOpts{Status: StatusEnded})
	if len(list) != 0 {
		t.Errorf("list = %+v, want none ended", list)
	}
}

func TestNewAttemptCollapsesRepeatedSections(t *testing.T) {
	store := NewInMemoryStore()
	seedObjectiveTest(t, store)
	ctx := context.Background()

	a, err := store.NewAttempt(ctx, "t-obj", "u1", []string{"sec-listening", "sec-listening"})
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	if len(a.Sections) != 1 {
		t.Fatalf("sections = %d, want 1 for a repeated section ID", len(a.Sections))
	}
	if a.Sections[0].SectionID != "sec-listening" {
		t.Errorf("section = %s, want sec-listening", a.Sections[0].SectionID)
	}

	// repeats mixed with an unknown ID still fail validation
	if _, err := store.NewAttempt(ctx, "t-obj", "u1", []string{"sec-listening", "sec-nope", "sec-listening"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown section among repeats: err = %v, want ErrNotFound", err)
	}
}
