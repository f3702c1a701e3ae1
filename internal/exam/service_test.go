package exam

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bandprep/bandprep-api/internal/grading"
)

func seedObjectiveTest(t *testing.T, store Store) Test {
	t.Helper()
	tt := Test{
		ID:      "t-obj",
		Title:   "Listening and Reading Practice",
		Profile: "ielts.40",
		Sections: []Section{
			{
				ID:    "sec-listening",
				Skill: "listening",
				Questions: []Question{
					{ID: "q1", Number: 1, Type: QuestionObjective, AnswerKey: "Paris"},
					{ID: "q2", Number: 2, Type: QuestionObjective, AnswerKey: "42"},
					{ID: "q3", Number: 3, Type: QuestionObjective, AnswerKey: "blue whale"},
				},
			},
			{
				ID:    "sec-reading",
				Skill: "reading",
				Questions: []Question{
					{ID: "q4", Number: 4, Type: QuestionObjective, AnswerKey: "true"},
					{ID: "q5", Number: 5, Type: QuestionObjective, AnswerKey: "false"},
				},
			},
		},
	}
	if err := store.PutTest(context.Background(), tt); err != nil {
		t.Fatalf("seed test: %v", err)
	}
	return tt
}

func seedDictationTest(t *testing.T, store Store) Test {
	t.Helper()
	tt := Test{
		ID:      "t-dict",
		Title:   "Dictation Practice",
		Profile: "ielts.40",
		Sections: []Section{
			{
				ID:    "sec-dictation",
				Skill: "listening",
				Questions: []Question{
					{ID: "d1", Number: 1, Type: QuestionDictation, AnswerKey: "The cat sat on the mat."},
				},
			},
		},
	}
	if err := store.PutTest(context.Background(), tt); err != nil {
		t.Fatalf("seed test: %v", err)
	}
	return tt
}

func newTestService(t *testing.T) (*Service, Store) {
	t.Helper()
	store := NewInMemoryStore()
	return NewService(store, nil, nil), store
}

func TestGradeDictationAnswer(t *testing.T) {
	svc, store := newTestService(t)
	seedDictationTest(t, store)
	ctx := context.Background()

	a, err := store.NewAttempt(ctx, "t-dict", "u1", nil)
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	asID := a.Sections[0].ID

	res, err := svc.GradeDictationAnswer(ctx, asID, "d1", "the cat sit on the mat")
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if len(res.Mistakes) != 1 {
		t.Fatalf("mistakes = %+v, want 1", res.Mistakes)
	}
	m := res.Mistakes[0]
	if m.Kind != grading.KindSpelling || m.From != "sit" || m.To != "sat" {
		t.Errorf("mistake = %+v, want spelling sit->sat", m)
	}
	wantAcc := (6.0 - 1.0) / 6.0 * 100
	if diff := res.Accuracy - wantAcc; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("accuracy = %v, want %v", res.Accuracy, wantAcc)
	}
	if res.IsCorrect {
		t.Error("IsCorrect = true, want false")
	}
	if res.CorrectAnswer != "The cat sat on the mat." {
		t.Errorf("correct answer = %q", res.CorrectAnswer)
	}

	// answer row persisted with the raw candidate text
	answers, err := store.ListAnswers(ctx, a.ID)
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("answers = %d, want 1", len(answers))
	}
	ans := answers[0]
	if ans.Content != "the cat sit on the mat" || ans.QuestionID != "d1" {
		t.Errorf("answer = %+v", ans)
	}
	if ans.Accuracy == nil || *ans.Accuracy != res.Accuracy {
		t.Errorf("persisted accuracy = %v, want %v", ans.Accuracy, res.Accuracy)
	}

	// first persisted answer moves the attempt out of pending
	got, _ := store.GetAttempt(ctx, a.ID)
	if got.Status != StatusOngoing {
		t.Errorf("status = %s, want %s", got.Status, StatusOngoing)
	}
}

func TestGradeDictationAnswerRegradeInsertsNewRow(t *testing.T) {
	svc, store := newTestService(t)
	seedDictationTest(t, store)
	ctx := context.Background()

	a, _ := store.NewAttempt(ctx, "t-dict", "u1", nil)
	asID := a.Sections[0].ID
	if _, err := svc.GradeDictationAnswer(ctx, asID, "d1", "the cat"); err != nil {
		t.Fatalf("first grade: %v", err)
	}
	if _, err := svc.GradeDictationAnswer(ctx, asID, "d1", "the cat sat on the mat"); err != nil {
		t.Fatalf("second grade: %v", err)
	}
	answers, _ := store.ListAnswers(ctx, a.ID)
	if len(answers) != 2 {
		t.Errorf("answers = %d, want 2 rows (no upsert)", len(answers))
	}
}

func TestGradeDictationAnswerNotFound(t *testing.T) {
	svc, store := newTestService(t)
	seedDictationTest(t, store)
	ctx := context.Background()

	if _, err := svc.GradeDictationAnswer(ctx, "nope", "d1", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown attempt section: err = %v, want ErrNotFound", err)
	}

	a, _ := store.NewAttempt(ctx, "t-dict", "u1", nil)
	if _, err := svc.GradeDictationAnswer(ctx, a.Sections[0].ID, "nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown question: err = %v, want ErrNotFound", err)
	}
}

func TestSubmitObjectiveAnswersFullTest(t *testing.T) {
	svc, store := newTestService(t)
	seedObjectiveTest(t, store)
	ctx := context.Background()

	a, _ := store.NewAttempt(ctx, "t-obj", "u1", nil)
	res, err := svc.SubmitObjectiveAnswers(ctx, a.ID, "u1", []AnswerInput{
		{QuestionNumber: 1, AnswerContent: "paris"},      // correct, normalized
		{QuestionNumber: 2, AnswerContent: "42"},         // correct
		{QuestionNumber: 3, AnswerContent: "sperm whale"}, // wrong
		{QuestionNumber: 4, AnswerContent: "True"},       // correct
		// question 5 unanswered: skipped, not counted wrong
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.TotalScore != 3 {
		t.Errorf("total = %d, want 3", res.TotalScore)
	}
	if len(res.Results) != 4 {
		t.Errorf("results = %d, want 4 (unanswered question skipped)", len(res.Results))
	}
	// full attempt: band resolved from the table (raw 3 -> 2.5)
	if res.BandScore == nil || *res.BandScore != 2.5 {
		t.Errorf("band = %v, want 2.5", res.BandScore)
	}

	got, _ := store.GetAttempt(ctx, a.ID)
	if got.Status != StatusEnded {
		t.Errorf("status = %s, want %s", got.Status, StatusEnded)
	}
	if got.Score != 3 {
		t.Errorf("persisted score = %d, want 3", got.Score)
	}
	if got.OverallBand == nil || *got.OverallBand != 2.5 {
		t.Errorf("persisted band = %v, want 2.5", got.OverallBand)
	}
	if got.SubmittedAt == nil {
		t.Error("submitted_at not set")
	}
}

func TestSubmitObjectiveAnswersDeterministic(t *testing.T) {
	svc, store := newTestService(t)
	seedObjectiveTest(t, store)
	ctx := context.Background()

	answers := []AnswerInput{
		{QuestionNumber: 1, AnswerContent: "Paris"},
		{QuestionNumber: 2, AnswerContent: "forty two"},
		{QuestionNumber: 4, AnswerContent: "true"},
		{QuestionNumber: 5, AnswerContent: "false"},
	}
	a1, _ := store.NewAttempt(ctx, "t-obj", "u1", nil)
	a2, _ := store.NewAttempt(ctx, "t-obj", "u1", nil)
	r1, err := svc.SubmitObjectiveAnswers(ctx, a1.ID, "u1", answers)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	r2, err := svc.SubmitObjectiveAnswers(ctx, a2.ID, "u1", answers)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if r1.TotalScore != r2.TotalScore {
		t.Errorf("scores differ: %d vs %d", r1.TotalScore, r2.TotalScore)
	}
}

func TestSubmitObjectiveAnswersPartialAttemptHasNoBand(t *testing.T) {
	svc, store := newTestService(t)
	seedObjectiveTest(t, store)
	ctx := context.Background()

	a, err := store.NewAttempt(ctx, "t-obj", "u1", []string{"sec-listening"})
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	res, err := svc.SubmitObjectiveAnswers(ctx, a.ID, "u1", []AnswerInput{
		{QuestionNumber: 1, AnswerContent: "paris"},
		{QuestionNumber: 2, AnswerContent: "42"},
		{QuestionNumber: 3, AnswerContent: "blue whale"},
		{QuestionNumber: 4, AnswerContent: "true"}, // not part of the attempt's sections
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.TotalScore != 3 {
		t.Errorf("total = %d, want 3", res.TotalScore)
	}
	if res.BandScore != nil {
		t.Errorf("band = %v, want absent for a partial attempt", *res.BandScore)
	}
	// questions outside the attempted sections are never graded
	for _, r := range res.Results {
		if r.QuestionNumber == 4 {
			t.Error("question from an unattempted section was graded")
		}
	}
	got, _ := store.GetAttempt(ctx, a.ID)
	if got.OverallBand != nil {
		t.Errorf("persisted band = %v, want nil", *got.OverallBand)
	}
}

func TestSubmitObjectiveAnswersForbidden(t *testing.T) {
	svc, store := newTestService(t)
	seedObjectiveTest(t, store)
	ctx := context.Background()

	a, _ := store.NewAttempt(ctx, "t-obj", "u1", nil)
	if _, err := svc.SubmitObjectiveAnswers(ctx, a.ID, "intruder", nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestSubmitObjectiveAnswersNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.SubmitObjectiveAnswers(context.Background(), "nope", "u1", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitObjectiveAnswersAlreadySubmitted(t *testing.T) {
	svc, store := newTestService(t)
	seedObjectiveTest(t, store)
	ctx := context.Background()

	a, _ := store.NewAttempt(ctx, "t-obj", "u1", nil)
	if _, err := svc.SubmitObjectiveAnswers(ctx, a.ID, "u1", nil); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.SubmitObjectiveAnswers(ctx, a.ID, "u1", nil); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("err = %v, want ErrAlreadySubmitted", err)
	}
}

func TestSubmitObjectiveAnswersSingleWinner(t *testing.T) {
	svc, store := newTestService(t)
	seedObjectiveTest(t, store)
	ctx := context.Background()

	a, _ := store.NewAttempt(ctx, "t-obj", "u1", nil)
	answers := []AnswerInput{{QuestionNumber: 1, AnswerContent: "paris"}}

	const callers = 2
	errsCh := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitObjectiveAnswers(ctx, a.ID, "u1", answers)
			errsCh <- err
		}()
	}
	wg.Wait()
	close(errsCh)

	ok, conflicts := 0, 0
	for err := range errsCh {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadySubmitted):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Errorf("winners = %d, conflicts = %d; want exactly one of each", ok, conflicts)
	}
}

func TestSubmitObjectiveAnswersRepeatedSectionStillPartial(t *testing.T) {
	svc, store := newTestService(t)
	seedObjectiveTest(t, store)
	ctx := context.Background()

	// listening twice, reading never: still a one-section partial attempt
	a, err := store.NewAttempt(ctx, "t-obj", "u1", []string{"sec-listening", "sec-listening"})
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	res, err := svc.SubmitObjectiveAnswers(ctx, a.ID, "u1", []AnswerInput{
		{QuestionNumber: 1, AnswerContent: "paris"},
		{QuestionNumber: 2, AnswerContent: "42"},
		{QuestionNumber: 3, AnswerContent: "blue whale"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.TotalScore != 3 {
		t.Errorf("total = %d, want 3 with no double counting", res.TotalScore)
	}
	if res.BandScore != nil {
		t.Errorf("band = %v, want absent while a section is skipped", *res.BandScore)
	}
	if len(res.Results) != 3 {
		t.Errorf("results = %d, want each question graded once", len(res.Results))
	}
	answers, err := store.ListAnswers(ctx, a.ID)
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	if len(answers) != 3 {
		t.Errorf("persisted answers = %d, want 3", len(answers))
	}
}
