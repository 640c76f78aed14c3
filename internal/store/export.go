package store

import (
	"context"
	"fmt"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

// ExportResults builds the export document for submissions, limited to
// one exam when examID is not empty.
func (s *Store) ExportResults(ctx context.Context, examID string) (model.ResultsExport, error) {
	subs, err := s.LoadSubmissions(ctx)
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("list submissions: %w", err)
	}

	out := model.ResultsExport{ExamID: examID, Results: []model.StudentSubmission{}}
	var total float64
	for _, sub := range subs {
		if examID != "" && sub.ExamID != examID {
			continue
		}
		if out.ExamTitle == "" && examID != "" {
			out.ExamTitle = sub.ExamTitle
		}
		out.Results = append(out.Results, sub)
		total += sub.Score
	}
	out.Count = len(out.Results)
	if out.Count > 0 {
		out.AverageScore = total / float64(out.Count)
	}
	return out, nil
}
