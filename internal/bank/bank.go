// Package bank is the application state container: the question pools,
// exams, student roster, submissions and curriculum. Every mutation reads
// the current snapshot, computes a new one and saves it in a single store
// transaction, so a failed operation leaves the state untouched.
package bank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/assembler"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/csvimport"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/store"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/textnorm"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownPool   = errors.New("unknown question pool")
	ErrStudentFields = errors.New("student id, name and password are required")
	ErrNoRows        = errors.New("no valid rows found")
	ErrNoCredentials = errors.New("invalid student id or password")
)

// Pool names one of the two question collections.
type Pool string

const (
	PoolReview Pool = "review"
	PoolExam   Pool = "exam"
)

// ParsePool validates a pool name.
func ParsePool(s string) (Pool, error) {
	switch Pool(s) {
	case PoolReview, PoolExam:
		return Pool(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPool, s)
}

func (p Pool) key() string {
	if p == PoolExam {
		return store.ExamQuestions
	}
	return store.ReviewQuestions
}

func (p Pool) questions(snap *model.Snapshot) *[]model.Question {
	if p == PoolExam {
		return &snap.ExamQuestions
	}
	return &snap.ReviewQuestions
}

// Bank serializes all writes through one mutex.
type Bank struct {
	mu     sync.Mutex
	store  *store.Store
	parser *csvimport.Parser
	asm    *assembler.Assembler
	now    func() time.Time
	newID  func() string
}

// Option configures a Bank.
type Option func(*Bank)

// WithClock sets the time source for submission timestamps and seed data.
func WithClock(now func() time.Time) Option {
	return func(b *Bank) { b.now = now }
}

// WithIDs sets the identifier generator used for re-keyed records.
func WithIDs(newID func() string) Option {
	return func(b *Bank) { b.newID = newID }
}

// New returns a Bank. A nil parser uses the default keyword tables and a
// nil assembler uses the default tier table.
func New(st *store.Store, parser *csvimport.Parser, asm *assembler.Assembler, opts ...Option) *Bank {
	if parser == nil {
		parser, _ = csvimport.New()
	}
	if asm == nil {
		asm = assembler.New(nil, nil)
	}
	b := &Bank{
		store:  st,
		parser: parser,
		asm:    asm,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Snapshot returns the current state.
func (b *Bank) Snapshot(ctx context.Context) (model.Snapshot, error) {
	return b.store.LoadSnapshot(ctx)
}

// update runs fn against the current snapshot and saves the collections
// named by keys when fn succeeds.
func (b *Bank) update(ctx context.Context, fn func(*model.Snapshot) error, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap, err := b.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if err := fn(&snap); err != nil {
		return err
	}
	if err := b.store.SaveSnapshot(ctx, snap, keys...); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Questions returns one pool.
func (b *Bank) Questions(ctx context.Context, pool Pool) ([]model.Question, error) {
	if pool == PoolExam {
		return b.store.LoadExamQuestions(ctx)
	}
	return b.store.LoadReviewQuestions(ctx)
}

// ImportQuestions parses a question sheet and appends its rows to pool.
func (b *Bank) ImportQuestions(ctx context.Context, pool Pool, text string) (int, error) {
	qs := b.parser.Questions(text)
	if len(qs) == 0 {
		return 0, ErrNoRows
	}
	added, err := b.AddQuestions(ctx, pool, qs)
	return len(added), err
}

// AddQuestions appends qs to pool. Questions without an id, or whose id is
// already taken, get a fresh one.
func (b *Bank) AddQuestions(ctx context.Context, pool Pool, qs []model.Question) ([]model.Question, error) {
	var added []model.Question
	err := b.update(ctx, func(snap *model.Snapshot) error {
		list := pool.questions(snap)
		taken := make(map[string]bool, len(*list)+len(qs))
		for _, q := range *list {
			taken[q.ID] = true
		}
		added = make([]model.Question, 0, len(qs))
		for _, q := range qs {
			if q.ID == "" || taken[q.ID] {
				q.ID = "q-" + b.newID()
			}
			taken[q.ID] = true
			added = append(added, q)
		}
		*list = append(*list, added...)
		return nil
	}, pool.key())
	if err != nil {
		return nil, err
	}
	slog.Info("questions added", "pool", pool, "count", len(added))
	return added, nil
}

// ReplacePool overwrites pool with qs.
func (b *Bank) ReplacePool(ctx context.Context, pool Pool, qs []model.Question) error {
	return b.update(ctx, func(snap *model.Snapshot) error {
		*pool.questions(snap) = slices.Clone(qs)
		return nil
	}, pool.key())
}

// DeleteQuestion removes the question with id from pool.
func (b *Bank) DeleteQuestion(ctx context.Context, pool Pool, id string) error {
	return b.update(ctx, func(snap *model.Snapshot) error {
		list := pool.questions(snap)
		n := len(*list)
		*list = slices.DeleteFunc(*list, func(q model.Question) bool { return q.ID == id })
		if len(*list) == n {
			return fmt.Errorf("question %q: %w", id, ErrNotFound)
		}
		return nil
	}, pool.key())
}

// ImportExams parses an exam summary sheet. Exams replace existing ones
// with the same id; new ids are appended.
func (b *Bank) ImportExams(ctx context.Context, text string) (int, error) {
	exams := b.parser.Exams(text)
	if len(exams) == 0 {
		return 0, ErrNoRows
	}
	err := b.update(ctx, func(snap *model.Snapshot) error {
		snap.Exams = mergeByKey(snap.Exams, exams, func(e model.ExamConfig) string { return e.ID })
		return nil
	}, store.Exams)
	return len(exams), err
}

// CreateExam assembles a new exam from the exam pool.
func (b *Bank) CreateExam(ctx context.Context, d assembler.Draft) (model.ExamConfig, error) {
	var exam model.ExamConfig
	err := b.update(ctx, func(snap *model.Snapshot) error {
		var err error
		exam, err = b.asm.NewExam(d, snap.ExamQuestions)
		if err != nil {
			return err
		}
		snap.Exams = append(snap.Exams, exam)
		return nil
	}, store.Exams)
	if err != nil {
		return model.ExamConfig{}, err
	}
	slog.Info("exam created", "id", exam.ID, "title", exam.Title, "questions", exam.QuestionCount)
	return exam, nil
}

// Exam returns the exam with id.
func (b *Bank) Exam(ctx context.Context, id string) (model.ExamConfig, error) {
	exams, err := b.store.LoadExams(ctx)
	if err != nil {
		return model.ExamConfig{}, err
	}
	i := slices.IndexFunc(exams, func(e model.ExamConfig) bool { return e.ID == id })
	if i < 0 {
		return model.ExamConfig{}, fmt.Errorf("exam %q: %w", id, ErrNotFound)
	}
	return exams[i], nil
}

// DeleteExam removes one exam.
func (b *Bank) DeleteExam(ctx context.Context, id string) error {
	return b.update(ctx, func(snap *model.Snapshot) error {
		n := len(snap.Exams)
		snap.Exams = slices.DeleteFunc(snap.Exams, func(e model.ExamConfig) bool { return e.ID == id })
		if len(snap.Exams) == n {
			return fmt.Errorf("exam %q: %w", id, ErrNotFound)
		}
		return nil
	}, store.Exams)
}

// ClearExams removes every exam.
func (b *Bank) ClearExams(ctx context.Context) error {
	return b.update(ctx, func(snap *model.Snapshot) error {
		snap.Exams = []model.ExamConfig{}
		return nil
	}, store.Exams)
}

// AddStudent adds an account, replacing any account with the same id.
func (b *Bank) AddStudent(ctx context.Context, a model.StudentAccount) (model.StudentAccount, error) {
	a.ID = textnorm.Clean(a.ID)
	a.Name = textnorm.Clean(a.Name)
	a.Class = textnorm.Clean(a.Class)
	a.Password = textnorm.Clean(a.Password)
	if a.ID == "" || a.Name == "" || a.Password == "" {
		return model.StudentAccount{}, ErrStudentFields
	}
	err := b.update(ctx, func(snap *model.Snapshot) error {
		snap.Accounts = mergeByKey(snap.Accounts, []model.StudentAccount{a}, func(s model.StudentAccount) string { return s.ID })
		return nil
	}, store.Accounts)
	return a, err
}

// DeleteStudent removes the account with id.
func (b *Bank) DeleteStudent(ctx context.Context, id string) error {
	return b.update(ctx, func(snap *model.Snapshot) error {
		n := len(snap.Accounts)
		snap.Accounts = slices.DeleteFunc(snap.Accounts, func(s model.StudentAccount) bool { return s.ID == id })
		if len(snap.Accounts) == n {
			return fmt.Errorf("student %q: %w", id, ErrNotFound)
		}
		return nil
	}, store.Accounts)
}

// ImportStudents parses a roster and merges it by id.
func (b *Bank) ImportStudents(ctx context.Context, text string) (int, error) {
	accounts := b.parser.Accounts(text)
	if len(accounts) == 0 {
		return 0, ErrNoRows
	}
	err := b.update(ctx, func(snap *model.Snapshot) error {
		snap.Accounts = mergeByKey(snap.Accounts, accounts, func(s model.StudentAccount) string { return s.ID })
		return nil
	}, store.Accounts)
	return len(accounts), err
}

// ImportCurriculum parses a syllabus and merges it by (grade, topic, lesson).
func (b *Bank) ImportCurriculum(ctx context.Context, text string) (int, error) {
	items := b.parser.Curriculum(text)
	if len(items) == 0 {
		return 0, ErrNoRows
	}
	err := b.update(ctx, func(snap *model.Snapshot) error {
		snap.Curriculum = mergeByKey(snap.Curriculum, items, model.CurriculumItem.Key)
		return nil
	}, store.Curriculum)
	return len(items), err
}

// Authenticate returns the account matching id and password.
func (b *Bank) Authenticate(ctx context.Context, id, password string) (model.StudentAccount, error) {
	accounts, err := b.store.LoadAccounts(ctx)
	if err != nil {
		return model.StudentAccount{}, err
	}
	acc, ok := MatchStudent(accounts, id, password)
	if !ok {
		return model.StudentAccount{}, ErrNoCredentials
	}
	return acc, nil
}

// RecordSubmission stores a finished attempt. The exam must exist; a
// missing id, title or timestamp is filled in.
func (b *Bank) RecordSubmission(ctx context.Context, sub model.StudentSubmission) (model.StudentSubmission, error) {
	err := b.update(ctx, func(snap *model.Snapshot) error {
		i := slices.IndexFunc(snap.Exams, func(e model.ExamConfig) bool { return e.ID == sub.ExamID })
		if i < 0 {
			return fmt.Errorf("exam %q: %w", sub.ExamID, ErrNotFound)
		}
		if sub.ID == "" {
			sub.ID = "sub-" + b.newID()
		}
		if sub.ExamTitle == "" {
			sub.ExamTitle = snap.Exams[i].Title
		}
		if len(sub.Answers) > 0 {
			grade(&sub, snap.Exams[i])
		}
		if sub.SubmittedAt == 0 {
			sub.SubmittedAt = b.now().UnixMilli()
		}
		snap.Submissions = append(snap.Submissions, sub)
		return nil
	}, store.Submissions)
	if err != nil {
		return model.StudentSubmission{}, err
	}
	return sub, nil
}

// grade scores sub against the exam's questions on a ten-point scale,
// rounded to two decimals.
func grade(sub *model.StudentSubmission, exam model.ExamConfig) {
	correct := 0
	for _, q := range exam.SpecificQuestions {
		if tag := sub.Answers[q.ID]; tag != "" && model.NormalizeAnswerTag(string(tag)) == q.Correct {
			correct++
		}
	}
	sub.CorrectCount = correct
	sub.TotalQuestions = len(exam.SpecificQuestions)
	sub.Score = 0
	if sub.TotalQuestions > 0 {
		sub.Score = math.Round(float64(correct)*1000/float64(sub.TotalQuestions)) / 100
	}
}

// HasSubmitted reports whether studentID has a recorded attempt at examID.
func (b *Bank) HasSubmitted(ctx context.Context, studentID, examID string) (bool, error) {
	subs, err := b.store.LoadSubmissions(ctx)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(subs, func(s model.StudentSubmission) bool {
		return s.StudentID == studentID && s.ExamID == examID
	}), nil
}

// ClearSubmissions removes the submission history.
func (b *Bank) ClearSubmissions(ctx context.Context) error {
	return b.update(ctx, func(snap *model.Snapshot) error {
		snap.Submissions = []model.StudentSubmission{}
		return nil
	}, store.Submissions)
}

// Available reports how many exam-pool questions each tier of s could
// draw from.
func (b *Bank) Available(ctx context.Context, s model.ExamSection) (map[model.Level]int, error) {
	pool, err := b.store.LoadExamQuestions(ctx)
	if err != nil {
		return nil, err
	}
	return b.asm.Available(pool, s), nil
}

// mergeByKey replaces items of dst whose key appears in src and appends
// the rest of src in order. The last src item wins for repeated keys.
func mergeByKey[T any](dst, src []T, key func(T) string) []T {
	out := slices.Clone(dst)
	index := make(map[string]int, len(out))
	for i, v := range out {
		index[key(v)] = i
	}
	for _, v := range src {
		k := key(v)
		if i, ok := index[k]; ok {
			out[i] = v
			continue
		}
		index[k] = len(out)
		out = append(out, v)
	}
	return out
}
