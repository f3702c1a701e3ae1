package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bandprep/bandprep-api/internal/grading"
)

// SQLStore persists tests, attempts and answers over database/sql. The
// same statements run on sqlite and postgres; section and mistake payloads
// are stored as JSON columns.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutTest(ctx context.Context, t Test) error {
	sj, err := json.Marshal(t.Sections)
	if err != nil {
		return err
	}
	if t.Profile == "" {
		t.Profile = "ielts.40"
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tests (id,title,profile,sections_json,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, profile=EXCLUDED.profile, sections_json=EXCLUDED.sections_json`,
		t.ID, t.Title, t.Profile, string(sj), time.Now().Unix())
	return err
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	t, err := s.GetTestAdmin(ctx, id)
	if err != nil {
		return Test{}, err
	}
	return stripKeys(t), nil
}

func (s *SQLStore) GetTestAdmin(ctx context.Context, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,profile,sections_json,created_at FROM tests WHERE id=$1`, id)
	var t Test
	var sj string
	if err := row.Scan(&t.ID, &t.Title, &t.Profile, &sj, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, fmt.Errorf("test %s: %w", id, ErrNotFound)
		}
		return Test{}, err
	}
	if err := json.Unmarshal([]byte(sj), &t.Sections); err != nil {
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) ListTests(ctx context.Context, opts ListOpts) ([]TestSummary, error) {
	limit, offset := opts.Limit, opts.Offset
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	q := `SELECT id,title,profile,sections_json,created_at FROM tests`
	args := []interface{}{}
	if opts.Q != "" {
		q += ` WHERE lower(title) LIKE $1`
		args = append(args, "%"+strings.ToLower(opts.Q)+"%")
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT %d OFFSET %d`, limit, offset)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TestSummary{}
	for rows.Next() {
		var t Test
		var sj string
		if err := rows.Scan(&t.ID, &t.Title, &t.Profile, &sj, &t.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sj), &t.Sections); err != nil {
			return nil, err
		}
		out = append(out, t.Summary())
	}
	return out, rows.Err()
}

func (s *SQLStore) NewAttempt(ctx context.Context, testID, userID string, sectionIDs []string) (Attempt, error) {
	t, err := s.GetTestAdmin(ctx, testID)
	if err != nil {
		return Attempt{}, err
	}
	if len(sectionIDs) == 0 {
		for _, sec := range t.Sections {
			sectionIDs = append(sectionIDs, sec.ID)
		}
	}
	// drop repeats up front instead of tripping UNIQUE(attempt_id, section_id)
	seen := map[string]bool{}
	deduped := sectionIDs[:0:0]
	for _, sid := range sectionIDs {
		if !hasSection(t, sid) {
			return Attempt{}, fmt.Errorf("section %s: %w", sid, ErrNotFound)
		}
		if seen[sid] {
			continue
		}
		seen[sid] = true
		deduped = append(deduped, sid)
	}
	sectionIDs = deduped

	a := Attempt{
		ID:        uuid.NewString(),
		TestID:    testID,
		UserID:    userID,
		Status:    StatusPending,
		StartedAt: time.Now().Unix(),
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Attempt{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO attempts (id,test_id,user_id,status,score,started_at)
		VALUES ($1,$2,$3,$4,0,$5)`,
		a.ID, a.TestID, a.UserID, a.Status, a.StartedAt)
	if err != nil {
		return Attempt{}, err
	}
	for _, sid := range sectionIDs {
		as := AttemptSection{ID: uuid.NewString(), AttemptID: a.ID, SectionID: sid}
		_, err = tx.ExecContext(ctx, `INSERT INTO attempt_sections (id,attempt_id,section_id) VALUES ($1,$2,$3)`,
			as.ID, as.AttemptID, as.SectionID)
		if err != nil {
			return Attempt{}, err
		}
		a.Sections = append(a.Sections, as)
	}
	if err := tx.Commit(); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,test_id,user_id,status,score,overall_band,started_at,submitted_at FROM attempts WHERE id=$1`, id)
	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
		}
		return Attempt{}, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,attempt_id,section_id FROM attempt_sections WHERE attempt_id=$1 ORDER BY id`, id)
	if err != nil {
		return Attempt{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var as AttemptSection
		if err := rows.Scan(&as.ID, &as.AttemptID, &as.SectionID); err != nil {
			return Attempt{}, err
		}
		a.Sections = append(a.Sections, as)
	}
	return a, rows.Err()
}

func (s *SQLStore) GetAttemptSection(ctx context.Context, id string) (AttemptSection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,attempt_id,section_id FROM attempt_sections WHERE id=$1`, id)
	var as AttemptSection
	if err := row.Scan(&as.ID, &as.AttemptID, &as.SectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AttemptSection{}, fmt.Errorf("attempt section %s: %w", id, ErrNotFound)
		}
		return AttemptSection{}, err
	}
	return as, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	limit, offset := opts.Limit, opts.Offset
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	where := []string{}
	args := []interface{}{}
	add := func(cond, val string) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if opts.TestID != "" {
		add("test_id=$%d", opts.TestID)
	}
	if opts.UserID != "" {
		add("user_id=$%d", opts.UserID)
	}
	if opts.Status != "" {
		add("status=$%d", opts.Status)
	}
	q := `SELECT id,test_id,user_id,status,score,overall_band,started_at,submitted_at FROM attempts`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += fmt.Sprintf(` ORDER BY started_at DESC, id LIMIT %d OFFSET %d`, limit, offset)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) InsertAnswer(ctx context.Context, a Answer) (Answer, error) {
	as, err := s.GetAttemptSection(ctx, a.AttemptSectionID)
	if err != nil {
		return Answer{}, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}
	mj := ""
	if len(a.Mistakes) > 0 {
		buf, err := json.Marshal(a.Mistakes)
		if err != nil {
			return Answer{}, err
		}
		mj = string(buf)
	}
	var acc sql.NullFloat64
	if a.Accuracy != nil {
		acc = sql.NullFloat64{Float64: *a.Accuracy, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO answers (id,attempt_section_id,question_id,content,is_correct,mistakes_json,accuracy,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.AttemptSectionID, a.QuestionID, a.Content, boolToInt(a.IsCorrect), mj, acc, a.CreatedAt)
	if err != nil {
		return Answer{}, err
	}
	// first persisted answer moves the attempt out of pending
	_, err = s.db.ExecContext(ctx, `UPDATE attempts SET status=$1 WHERE id=$2 AND status=$3`,
		StatusOngoing, as.AttemptID, StatusPending)
	if err != nil {
		return Answer{}, err
	}
	return a, nil
}

func (s *SQLStore) ListAnswers(ctx context.Context, attemptID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a.id,a.attempt_section_id,a.question_id,a.content,a.is_correct,a.mistakes_json,a.accuracy,a.created_at
		FROM answers a JOIN attempt_sections s ON a.attempt_section_id = s.id
		WHERE s.attempt_id=$1 ORDER BY a.created_at, a.id`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Answer{}
	for rows.Next() {
		var a Answer
		var correct int64
		var mj string
		var acc sql.NullFloat64
		if err := rows.Scan(&a.ID, &a.AttemptSectionID, &a.QuestionID, &a.Content, &correct, &mj, &acc, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.IsCorrect = correct != 0
		if mj != "" {
			var ms []grading.Mistake
			if err := json.Unmarshal([]byte(mj), &ms); err != nil {
				return nil, err
			}
			a.Mistakes = ms
		}
		if acc.Valid {
			v := acc.Float64
			a.Accuracy = &v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) FinalizeAttempt(ctx context.Context, attemptID string, score int, bandVal *float64, submittedAt int64) (Attempt, error) {
	var bv sql.NullFloat64
	if bandVal != nil {
		bv = sql.NullFloat64{Float64: *bandVal, Valid: true}
	}
	// compare-and-set on status so concurrent submissions cannot both win
	res, err := s.db.ExecContext(ctx, `UPDATE attempts SET status=$1, score=$2, overall_band=$3, submitted_at=$4
		WHERE id=$5 AND status != $6`,
		StatusEnded, score, bv, submittedAt, attemptID, StatusEnded)
	if err != nil {
		return Attempt{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Attempt{}, err
	}
	if n == 0 {
		if _, gerr := s.GetAttempt(ctx, attemptID); gerr != nil {
			return Attempt{}, gerr
		}
		return Attempt{}, fmt.Errorf("attempt %s: %w", attemptID, ErrAlreadySubmitted)
	}
	return s.GetAttempt(ctx, attemptID)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(r rowScanner) (Attempt, error) {
	var a Attempt
	var bv sql.NullFloat64
	var sub sql.NullInt64
	if err := r.Scan(&a.ID, &a.TestID, &a.UserID, &a.Status, &a.Score, &bv, &a.StartedAt, &sub); err != nil {
		return Attempt{}, err
	}
	if bv.Valid {
		v := bv.Float64
		a.OverallBand = &v
	}
	if sub.Valid {
		v := sub.Int64
		a.SubmittedAt = &v
	}
	return a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
