package exam

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bandprep/bandprep-api/internal/audit"
	"github.com/bandprep/bandprep-api/internal/band"
	"github.com/bandprep/bandprep-api/internal/grading"
)

// Service implements the two scoring operations on top of a Store. It is
// stateless between calls; the only shared state it touches are the
// attempt and answer rows behind the Store.
type Service struct {
	store       Store
	events      audit.Recorder
	log         *zap.Logger
	now         func() time.Time
	newID       func() string
	bandProfile string
}

type ServiceOption func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithIDSource overrides the answer-ID generator, for tests.
func WithIDSource(f func() string) ServiceOption {
	return func(s *Service) { s.newID = f }
}

// WithBandProfile sets the fallback band table for tests that don't carry
// their own profile.
func WithBandProfile(key string) ServiceOption {
	return func(s *Service) { s.bandProfile = key }
}

func NewService(store Store, events audit.Recorder, log *zap.Logger, opts ...ServiceOption) *Service {
	if events == nil {
		events = audit.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:       store,
		events:      events,
		log:         log,
		now:         time.Now,
		newID:       uuid.NewString,
		bandProfile: "ielts.40",
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DictationAnswer is what the caller gets back from grading one dictation
// response. CorrectAnswer carries the reference script for display; it is
// not duplicated into the persisted answer.
type DictationAnswer struct {
	AnswerID      string            `json:"answer_id"`
	Mistakes      []grading.Mistake `json:"mistakes"`
	Accuracy      float64           `json:"accuracy"`
	IsCorrect     bool              `json:"is_correct"`
	CorrectAnswer string            `json:"correct_answer"`
}

// GradeDictationAnswer grades one free-text transcription against its
// question's reference script and persists the resulting answer. Each
// call inserts a fresh answer row; replaying the same submission is not
// idempotent.
func (s *Service) GradeDictationAnswer(ctx context.Context, attemptSectionID, questionID, answerText string) (DictationAnswer, error) {
	as, err := s.store.GetAttemptSection(ctx, attemptSectionID)
	if err != nil {
		return DictationAnswer{}, err
	}
	attempt, err := s.store.GetAttempt(ctx, as.AttemptID)
	if err != nil {
		return DictationAnswer{}, err
	}
	t, err := s.store.GetTestAdmin(ctx, attempt.TestID)
	if err != nil {
		return DictationAnswer{}, err
	}
	q, err := findQuestion(t, as.SectionID, questionID)
	if err != nil {
		return DictationAnswer{}, err
	}

	res := grading.GradeDictation(q.AnswerKey, answerText)

	acc := res.Accuracy
	ans := Answer{
		ID:               s.newID(),
		AttemptSectionID: attemptSectionID,
		QuestionID:       questionID,
		Content:          answerText,
		IsCorrect:        res.IsCorrect,
		Mistakes:         res.Mistakes,
		Accuracy:         &acc,
		CreatedAt:        s.now().Unix(),
	}
	if ans, err = s.store.InsertAnswer(ctx, ans); err != nil {
		return DictationAnswer{}, err
	}
	s.record(ctx, audit.TypeDictationGraded, ans.ID, map[string]interface{}{
		"attempt_section_id": attemptSectionID,
		"question_id":        questionID,
		"accuracy":           res.Accuracy,
		"mistakes":           len(res.Mistakes),
	})

	return DictationAnswer{
		AnswerID:      ans.ID,
		Mistakes:      res.Mistakes,
		Accuracy:      res.Accuracy,
		IsCorrect:     res.IsCorrect,
		CorrectAnswer: q.AnswerKey,
	}, nil
}

// AnswerInput is one submitted objective answer, addressed by the
// question's number within the test.
type AnswerInput struct {
	QuestionNumber int    `json:"question_number"`
	AnswerContent  string `json:"answer_content"`
}

type QuestionResult struct {
	QuestionNumber int    `json:"question_number"`
	QuestionID     string `json:"question_id"`
	IsCorrect      bool   `json:"is_correct"`
}

type SubmitResult struct {
	AttemptID  string           `json:"attempt_id"`
	TotalScore int              `json:"total_score"`
	BandScore  *float64         `json:"band_score,omitempty"`
	Results    []QuestionResult `json:"results"`
}

// SubmitObjectiveAnswers matches every submitted answer against the
// stored keys across all sections of the attempt, persists the graded
// answers, and finalizes the attempt. Questions with no submitted answer
// are skipped entirely: they score nothing but are not counted wrong.
// A band is resolved only when the attempt covers every section of the
// test. Exactly one concurrent submission per attempt can win the
// finalize; the rest fail with ErrAlreadySubmitted.
func (s *Service) SubmitObjectiveAnswers(ctx context.Context, attemptID, callerID string, answers []AnswerInput) (SubmitResult, error) {
	attempt, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return SubmitResult{}, err
	}
	if attempt.UserID != callerID {
		return SubmitResult{}, fmt.Errorf("attempt %s owned by another user: %w", attemptID, ErrForbidden)
	}
	if attempt.Status == StatusEnded {
		return SubmitResult{}, fmt.Errorf("attempt %s: %w", attemptID, ErrAlreadySubmitted)
	}
	t, err := s.store.GetTestAdmin(ctx, attempt.TestID)
	if err != nil {
		return SubmitResult{}, err
	}

	byNumber := make(map[int]string, len(answers))
	for _, in := range answers {
		byNumber[in.QuestionNumber] = in.AnswerContent
	}
	sectionsByID := make(map[string]Section, len(t.Sections))
	for _, sec := range t.Sections {
		sectionsByID[sec.ID] = sec
	}

	score := 0
	results := []QuestionResult{}
	now := s.now().Unix()
	for _, as := range attempt.Sections {
		sec, ok := sectionsByID[as.SectionID]
		if !ok {
			return SubmitResult{}, fmt.Errorf("section %s: %w", as.SectionID, ErrNotFound)
		}
		for _, q := range sec.Questions {
			content, answered := byNumber[q.Number]
			if !answered {
				continue
			}
			correct := grading.MatchAnswer(q.AnswerKey, content)
			if correct {
				score++
			}
			_, err := s.store.InsertAnswer(ctx, Answer{
				ID:               s.newID(),
				AttemptSectionID: as.ID,
				QuestionID:       q.ID,
				Content:          content,
				IsCorrect:        correct,
				CreatedAt:        now,
			})
			if err != nil {
				return SubmitResult{}, err
			}
			results = append(results, QuestionResult{QuestionNumber: q.Number, QuestionID: q.ID, IsCorrect: correct})
		}
	}

	// a band only exists for full attempts; partial ones keep it absent
	var bandScore *float64
	if len(attempt.Sections) == len(t.Sections) {
		table, ok := band.Lookup(t.Profile)
		if !ok {
			table, _ = band.Lookup(s.bandProfile)
		}
		if table != nil {
			b := table.Resolve(score)
			bandScore = &b
		}
	}

	updated, err := s.store.FinalizeAttempt(ctx, attemptID, score, bandScore, now)
	if err != nil {
		return SubmitResult{}, err
	}
	s.record(ctx, audit.TypeAttemptSubmitted, attemptID, map[string]interface{}{
		"user_id": callerID,
		"score":   score,
		"band":    updated.OverallBand,
	})

	return SubmitResult{
		AttemptID:  attemptID,
		TotalScore: score,
		BandScore:  updated.OverallBand,
		Results:    results,
	}, nil
}

func (s *Service) record(ctx context.Context, typ, key string, data map[string]interface{}) {
	buf, err := json.Marshal(data)
	if err != nil {
		buf = []byte("{}")
	}
	if err := s.events.Append(ctx, audit.Event{Type: typ, Key: key, DataJSON: string(buf)}); err != nil {
		s.log.Warn("event log append failed", zap.String("type", typ), zap.String("key", key), zap.Error(err))
	}
}

func findQuestion(t Test, sectionID, questionID string) (Question, error) {
	for _, sec := range t.Sections {
		if sec.ID != sectionID {
			continue
		}
		for _, q := range sec.Questions {
			if q.ID == questionID {
				return q, nil
			}
		}
	}
	return Question{}, fmt.Errorf("question %s: %w", questionID, ErrNotFound)
}
