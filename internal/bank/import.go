package bank

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned for an import kind that does not exist.
var ErrUnknownKind = errors.New("unknown import kind")

// ImportKind names what a spreadsheet import contains.
type ImportKind string

const (
	ImportReviewQuestions ImportKind = "questions"
	ImportExamQuestions   ImportKind = "exam-questions"
	ImportAccounts        ImportKind = "accounts"
	ImportExams           ImportKind = "exams"
	ImportCurriculum      ImportKind = "curriculum"
)

// ImportKinds lists the accepted kinds.
var ImportKinds = []ImportKind{ImportReviewQuestions, ImportExamQuestions, ImportAccounts, ImportExams, ImportCurriculum}

// ParseImportKind accepts a kind name case-insensitively.
func ParseImportKind(s string) (ImportKind, error) {
	k := ImportKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ImportKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Import routes a spreadsheet to the matching import operation and
// returns the number of rows taken.
func (b *Bank) Import(ctx context.Context, kind ImportKind, text string) (int, error) {
	switch kind {
	case ImportReviewQuestions:
		return b.ImportQuestions(ctx, PoolReview, text)
	case ImportExamQuestions:
		return b.ImportQuestions(ctx, PoolExam, text)
	case ImportAccounts:
		return b.ImportStudents(ctx, text)
	case ImportExams:
		return b.ImportExams(ctx, text)
	case ImportCurriculum:
		return b.ImportCurriculum(ctx, text)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
