// Package jsoncell recovers the exam structure stored as JSON inside a
// single spreadsheet cell. Such cells are often mangled by CSV quoting,
// so recovery tries the text as-is, then with the quoting undone, and
// finally falls back to the first bracketed span.
package jsoncell

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/textnorm"
)

// Kind tags which variant a Structure holds.
type Kind int

const (
	// KindUnknown is an empty or unrecoverable cell.
	KindUnknown Kind = iota
	// KindSections is a list of section filters.
	KindSections
	// KindQuestions is a frozen question list.
	KindQuestions
)

func (k Kind) String() string {
	switch k {
	case KindSections:
		return "sections"
	case KindQuestions:
		return "questions"
	default:
		return "unknown"
	}
}

// Structure is the recovered content of a structure cell. Only the slice
// matching Kind is set.
type Structure struct {
	Kind      Kind
	Sections  []model.ExamSection
	Questions []model.Question
}

// bodyKeys are the element keys that mark a frozen question list.
var bodyKeys = []string{"cauHoi"}

var arraySpan = regexp.MustCompile(`(?s)\[.*\]`)

var errNotArray = errors.New("no JSON array found")

// Recover parses a structure cell. It never fails: anything that cannot be
// read is logged and yields an empty Structure.
func Recover(cell string) Structure {
	raw := strings.TrimSpace(cell)
	if raw == "" {
		return Structure{}
	}
	var lastErr error
	for _, candidate := range candidates(raw) {
		items, err := parseArray(candidate)
		if err != nil {
			lastErr = err
			continue
		}
		st, err := classify(items)
		if err != nil {
			lastErr = err
			continue
		}
		return st
	}
	slog.Warn("could not recover exam structure", "cell", abbreviate(raw, 120), "error", lastErr)
	return Structure{}
}

// candidates returns the cell as written and, when different, the cell
// with one layer of wrapping quotes removed and doubled quotes collapsed.
func candidates(raw string) []string {
	cleaned := raw
	if len(cleaned) >= 2 && strings.HasPrefix(cleaned, `"`) && strings.HasSuffix(cleaned, `"`) {
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, `""`, `"`))
	if cleaned == raw {
		return []string{raw}
	}
	return []string{raw, cleaned}
}

func parseArray(s string) ([]json.RawMessage, error) {
	text := s
	if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
		text = arraySpan.FindString(s)
		if text == "" {
			return nil, errNotArray
		}
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func classify(items []json.RawMessage) (Structure, error) {
	if len(items) == 0 {
		return Structure{}, nil
	}
	var first map[string]json.RawMessage
	if err := json.Unmarshal(items[0], &first); err != nil {
		return Structure{}, err
	}
	if hasBody(first) {
		qs := make([]model.Question, 0, len(items))
		for _, it := range items {
			var qc questionCell
			if err := json.Unmarshal(it, &qc); err != nil {
				return Structure{}, err
			}
			qs = append(qs, qc.question())
		}
		return Structure{Kind: KindQuestions, Questions: qs}, nil
	}
	secs := make([]model.ExamSection, 0, len(items))
	for _, it := range items {
		var sc sectionCell
		if err := json.Unmarshal(it, &sc); err != nil {
			return Structure{}, err
		}
		secs = append(secs, sc.section())
	}
	return Structure{Kind: KindSections, Sections: secs}, nil
}

func hasBody(obj map[string]json.RawMessage) bool {
	for _, k := range bodyKeys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		var s looseString
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			return true
		}
	}
	return false
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

type questionCell struct {
	ID         looseString `json:"id"`
	Grade      looseString `json:"lop"`
	Topic      looseString `json:"chuDe"`
	Lesson     looseString `json:"bai"`
	Difficulty looseString `json:"mucDo"`
	Body       looseString `json:"cauHoi"`
	ImageURL   looseString `json:"linkAnh"`
	OptionA    looseString `json:"dapAnA"`
	OptionB    looseString `json:"dapAnB"`
	OptionC    looseString `json:"dapAnC"`
	OptionD    looseString `json:"dapAnD"`
	Correct    looseString `json:"dapAnDung"`
	Hint       looseString `json:"goiY"`
	Solution   looseString `json:"loiGiai"`
}

func (c questionCell) question() model.Question {
	return model.Question{
		ID:         string(c.ID),
		Grade:      string(c.Grade),
		Topic:      string(c.Topic),
		Lesson:     string(c.Lesson),
		Difficulty: string(c.Difficulty),
		Body:       string(c.Body),
		ImageURL:   string(c.ImageURL),
		OptionA:    string(c.OptionA),
		OptionB:    string(c.OptionB),
		OptionC:    string(c.OptionC),
		OptionD:    string(c.OptionD),
		Correct:    model.NormalizeAnswerTag(string(c.Correct)),
		Hint:       string(c.Hint),
		Solution:   string(c.Solution),
	}
}

type sectionCell struct {
	ID               looseString `json:"id"`
	Grade            looseString `json:"targetClass"`
	Topic            looseString `json:"selectedTopic"`
	Lesson           looseString `json:"selectedLesson"`
	CountRecall      looseInt    `json:"countBiet"`
	CountUnderstand  looseInt    `json:"countHieu"`
	CountApplication looseInt    `json:"countVanDung"`
}

func (c sectionCell) section() model.ExamSection {
	return model.ExamSection{
		ID:               string(c.ID),
		Grade:            textnorm.Clean(string(c.Grade)),
		Topic:            textnorm.Clean(string(c.Topic)),
		Lesson:           textnorm.Clean(string(c.Lesson)),
		CountRecall:      int(c.CountRecall),
		CountUnderstand:  int(c.CountUnderstand),
		CountApplication: int(c.CountApplication),
	}
}
