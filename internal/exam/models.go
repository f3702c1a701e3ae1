package exam

import "github.com/bandprep/bandprep-api/internal/grading"

// Question types.
const (
	QuestionObjective = "objective" // matched against the answer key verbatim
	QuestionDictation = "dictation" // answer key holds the reference script
)

type Question struct {
	ID         string `json:"id"`
	Number     int    `json:"number"`
	Type       string `json:"type"`
	PromptHTML string `json:"prompt_html,omitempty"`
	// AnswerKey is the stored correct answer for objective questions and
	// the full reference script for dictation questions. Stripped when a
	// test is served to students.
	AnswerKey string `json:"answer_key,omitempty"`
}

type Section struct {
	ID        string     `json:"id"`
	Skill     string     `json:"skill"` // listening|reading|...
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

type Test struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	// Profile selects the band conversion table ("ielts.40" by default).
	Profile   string    `json:"profile,omitempty"`
	Sections  []Section `json:"sections"`
	CreatedAt int64     `json:"created_at,omitempty"`
}

type TestSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Profile      string `json:"profile,omitempty"`
	NumSections  int    `json:"num_sections"`
	NumQuestions int    `json:"num_questions"`
	CreatedAt    int64  `json:"created_at,omitempty"`
}

// Attempt lifecycle. Transitions are monotonic: pending moves to ongoing
// when the first answer lands, ongoing (or pending) moves to ended exactly
// once at finalize. There is no way back from ended.
const (
	StatusPending = "pending"
	StatusOngoing = "ongoing"
	StatusEnded   = "ended"
)

type Attempt struct {
	ID          string           `json:"id"`
	TestID      string           `json:"test_id"`
	UserID      string           `json:"user_id"`
	Status      string           `json:"status"`
	Score       int              `json:"score"`
	OverallBand *float64         `json:"overall_band,omitempty"`
	StartedAt   int64            `json:"started_at"`
	SubmittedAt *int64           `json:"submitted_at,omitempty"`
	Sections    []AttemptSection `json:"sections,omitempty"`
}

// AttemptSection joins an attempt to one section of its test. An attempt
// covering fewer sections than the test defines is a partial attempt and
// never receives a band.
type AttemptSection struct {
	ID        string `json:"id"`
	AttemptID string `json:"attempt_id"`
	SectionID string `json:"section_id"`
}

// Answer is the persisted result of grading one question for one attempt
// section. Mistakes and Accuracy are only set for dictation answers.
type Answer struct {
	ID               string            `json:"id"`
	AttemptSectionID string            `json:"attempt_section_id"`
	QuestionID       string            `json:"question_id"`
	Content          string            `json:"content"`
	IsCorrect        bool              `json:"is_correct"`
	Mistakes         []grading.Mistake `json:"mistakes,omitempty"`
	Accuracy         *float64          `json:"accuracy,omitempty"`
	CreatedAt        int64             `json:"created_at"`
}

// Summary condenses a test for list endpoints.
func (t Test) Summary() TestSummary {
	nq := 0
	for _, s := range t.Sections {
		nq += len(s.Questions)
	}
	return TestSummary{
		ID:           t.ID,
		Title:        t.Title,
		Profile:      t.Profile,
		NumSections:  len(t.Sections),
		NumQuestions: nq,
		CreatedAt:    t.CreatedAt,
	}
}
