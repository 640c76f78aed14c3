package bank

import (
	"context"
	"crypto/subtle"
	"strconv"
	"strings"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/textnorm"
)

// MatchStudent finds the account with id whose password equals password.
func MatchStudent(accounts []model.StudentAccount, id, password string) (model.StudentAccount, bool) {
	id = textnorm.Clean(id)
	if id == "" {
		return model.StudentAccount{}, false
	}
	for _, a := range accounts {
		if a.ID != id {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(a.Password), []byte(password)) == 1 {
			return a, true
		}
		return model.StudentAccount{}, false
	}
	return model.StudentAccount{}, false
}

// FilterSubmissions keeps submissions whose student name, class or exam
// title contains term, ignoring case. An empty term keeps everything.
func FilterSubmissions(subs []model.StudentSubmission, term string) []model.StudentSubmission {
	term = textnorm.Fold(term)
	if term == "" {
		return subs
	}
	out := []model.StudentSubmission{}
	for _, s := range subs {
		if containsFold(s.StudentName, term) || containsFold(s.Class, term) || containsFold(s.ExamTitle, term) {
			out = append(out, s)
		}
	}
	return out
}

// FilterStudents keeps accounts whose id, name or class contains term.
func FilterStudents(accounts []model.StudentAccount, term string) []model.StudentAccount {
	term = textnorm.Fold(term)
	if term == "" {
		return accounts
	}
	out := []model.StudentAccount{}
	for _, a := range accounts {
		if containsFold(a.ID, term) || containsFold(a.Name, term) || containsFold(a.Class, term) {
			out = append(out, a)
		}
	}
	return out
}

func containsFold(s, folded string) bool {
	return strings.Contains(textnorm.Fold(s), folded)
}

// AverageScore is the mean score, 0 for no submissions.
func AverageScore(subs []model.StudentSubmission) float64 {
	if len(subs) == 0 {
		return 0
	}
	var total float64
	for _, s := range subs {
		total += s.Score
	}
	return total / float64(len(subs))
}

// ScoresTSV renders "name<TAB>score" lines for pasting into a spreadsheet.
func ScoresTSV(subs []model.StudentSubmission) string {
	var sb strings.Builder
	for i, s := range subs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.ReplaceAll(s.StudentName, "\t", " "))
		sb.WriteByte('\t')
		sb.WriteString(strconv.FormatFloat(s.Score, 'f', -1, 64))
	}
	return sb.String()
}

// Results returns the submissions of one exam, or of all exams when
// examID is empty, with their average score.
func (b *Bank) Results(ctx context.Context, examID string) (model.ResultsExport, error) {
	return b.store.ExportResults(ctx, examID)
}
