package llm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jinzhu/copier"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/textnorm"
)

var draftFields = []string{
	"lop", "chuDe", "bai", "mucDo", "cauHoi", "linkAnh",
	"dapAnA", "dapAnB", "dapAnC", "dapAnD", "dapAnDung", "goiY", "loiGiai",
}

// questionListSchema is the structured output every AI operation asks for.
var questionListSchema = func() *Schema {
	props := make(map[string]any, len(draftFields))
	for _, f := range draftFields {
		props[f] = map[string]any{"type": "string"}
	}
	props["dapAnDung"] = map[string]any{"type": "string", "enum": []any{"A", "B", "C", "D"}}
	required := make([]any, len(draftFields))
	for i, f := range draftFields {
		required[i] = f
	}
	return &Schema{
		Name:        "question-list",
		Description: "Danh sách câu hỏi trắc nghiệm bốn lựa chọn",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":                 "object",
						"properties":           props,
						"required":             required,
						"additionalProperties": false,
					},
				},
			},
			"required":             []any{"questions"},
			"additionalProperties": false,
		},
	}
}()

type questionList struct {
	Questions []model.QuestionDraft `json:"questions"`
}

func decodeDrafts(content json.RawMessage) ([]model.QuestionDraft, error) {
	var list questionList
	if err := json.Unmarshal(content, &list); err != nil {
		return nil, &ErrInvalidResponse{Content: content, Err: fmt.Errorf("decode questions: %w", err)}
	}
	return list.Questions, nil
}

// Defaults fill the fields a draft leaves empty.
type Defaults struct {
	Grade      string
	Topic      string
	Lesson     string
	Difficulty string
}

// ToQuestions turns drafts into bank questions. Ids are
// "<prefix>-<unix millis>-<index>"; empty fields take the defaults and
// the answer tag is normalized. Drafts without a body are dropped.
func ToQuestions(drafts []model.QuestionDraft, prefix string, def Defaults, now time.Time) []model.Question {
	out := make([]model.Question, 0, len(drafts))
	for i, d := range drafts {
		for _, f := range []*string{
			&d.Grade, &d.Topic, &d.Lesson, &d.Difficulty, &d.Body,
			&d.OptionA, &d.OptionB, &d.OptionC, &d.OptionD, &d.Hint, &d.Solution,
		} {
			*f = textnorm.Clean(*f)
		}
		if d.Body == "" {
			continue
		}
		var q model.Question
		if err := copier.Copy(&q, &d); err != nil {
			continue
		}
		q.ID = fmt.Sprintf("%s-%d-%d", prefix, now.UnixMilli(), i)
		q.Grade = orDefault(q.Grade, def.Grade)
		q.Topic = orDefault(q.Topic, def.Topic)
		q.Lesson = orDefault(q.Lesson, def.Lesson)
		q.Difficulty = orDefault(q.Difficulty, def.Difficulty)
		q.ImageURL = model.DisplayImageURL(d.ImageURL)
		q.Correct = model.NormalizeAnswerTag(d.Correct)
		out = append(out, q)
	}
	return out
}

// DraftsOf converts bank questions back to drafts, used as examples.
func DraftsOf(qs []model.Question) []model.QuestionDraft {
	out := make([]model.QuestionDraft, len(qs))
	for i, q := range qs {
		_ = copier.Copy(&out[i], &q)
		out[i].Correct = string(q.Correct)
	}
	return out
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
