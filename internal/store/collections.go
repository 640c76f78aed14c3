package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

// Collection names.
const (
	ReviewQuestions = "review_questions"
	ExamQuestions   = "exam_questions"
	Exams           = "exams"
	Accounts        = "student_accounts"
	Submissions     = "submissions"
	Curriculum      = "curriculum"
)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func load[T any](ctx context.Context, q querier, key string) ([]T, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM collections WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	items := []T{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func save[T any](ctx context.Context, q querier, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO collections (key, value, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, string(raw), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// LoadReviewQuestions returns the practice pool.
func (s *Store) LoadReviewQuestions(ctx context.Context) ([]model.Question, error) {
	return load[model.Question](ctx, s.db, ReviewQuestions)
}

// SaveReviewQuestions replaces the practice pool.
func (s *Store) SaveReviewQuestions(ctx context.Context, qs []model.Question) error {
	return save(ctx, s.db, ReviewQuestions, qs)
}

// LoadExamQuestions returns the pool exams are assembled from.
func (s *Store) LoadExamQuestions(ctx context.Context) ([]model.Question, error) {
	return load[model.Question](ctx, s.db, ExamQuestions)
}

// SaveExamQuestions replaces the exam pool.
func (s *Store) SaveExamQuestions(ctx context.Context, qs []model.Question) error {
	return save(ctx, s.db, ExamQuestions, qs)
}

func (s *Store) LoadExams(ctx context.Context) ([]model.ExamConfig, error) {
	return load[model.ExamConfig](ctx, s.db, Exams)
}

func (s *Store) SaveExams(ctx context.Context, exams []model.ExamConfig) error {
	return save(ctx, s.db, Exams, exams)
}

func (s *Store) LoadAccounts(ctx context.Context) ([]model.StudentAccount, error) {
	return load[model.StudentAccount](ctx, s.db, Accounts)
}

func (s *Store) SaveAccounts(ctx context.Context, accounts []model.StudentAccount) error {
	return save(ctx, s.db, Accounts, accounts)
}

func (s *Store) LoadSubmissions(ctx context.Context) ([]model.StudentSubmission, error) {
	return load[model.StudentSubmission](ctx, s.db, Submissions)
}

func (s *Store) SaveSubmissions(ctx context.Context, subs []model.StudentSubmission) error {
	return save(ctx, s.db, Submissions, subs)
}

func (s *Store) LoadCurriculum(ctx context.Context) ([]model.CurriculumItem, error) {
	return load[model.CurriculumItem](ctx, s.db, Curriculum)
}

func (s *Store) SaveCurriculum(ctx context.Context, items []model.CurriculumItem) error {
	return save(ctx, s.db, Curriculum, items)
}

// LoadSnapshot reads every collection.
func (s *Store) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	var err error
	if snap.ReviewQuestions, err = s.LoadReviewQuestions(ctx); err != nil {
		return snap, err
	}
	if snap.ExamQuestions, err = s.LoadExamQuestions(ctx); err != nil {
		return snap, err
	}
	if snap.Exams, err = s.LoadExams(ctx); err != nil {
		return snap, err
	}
	if snap.Accounts, err = s.LoadAccounts(ctx); err != nil {
		return snap, err
	}
	if snap.Submissions, err = s.LoadSubmissions(ctx); err != nil {
		return snap, err
	}
	if snap.Curriculum, err = s.LoadCurriculum(ctx); err != nil {
		return snap, err
	}
	return snap, nil
}

// SaveSnapshot replaces the named collections (all of them when keys is
// empty) in one transaction. Either every collection is written or none.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.Snapshot, keys ...string) error {
	if len(keys) == 0 {
		keys = []string{ReviewQuestions, ExamQuestions, Exams, Accounts, Submissions, Curriculum}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		var err error
		switch key {
		case ReviewQuestions:
			err = save(ctx, tx, key, snap.ReviewQuestions)
		case ExamQuestions:
			err = save(ctx, tx, key, snap.ExamQuestions)
		case Exams:
			err = save(ctx, tx, key, snap.Exams)
		case Accounts:
			err = save(ctx, tx, key, snap.Accounts)
		case Submissions:
			err = save(ctx, tx, key, snap.Submissions)
		case Curriculum:
			err = save(ctx, tx, key, snap.Curriculum)
		default:
			err = fmt.Errorf("unknown collection %q", key)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
