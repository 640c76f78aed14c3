package csvimport

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/jsoncell"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/textnorm"
)

const (
	defaultExamTitle    = "Bài thi không tên"
	defaultExamDuration = 45
	defaultExamVariants = 1
	mixedClass          = "Mixed"
)

// Parser turns delimited text into domain records.
type Parser struct {
	questions  *Schema
	accounts   *Schema
	exams      *Schema
	curriculum *Schema
	now        func() time.Time
}

// Option configures a Parser.
type Option func(*Parser) error

// WithSynonyms extends the default keyword tables.
func WithSynonyms(syn Synonyms) Option {
	return func(p *Parser) error {
		for _, x := range []struct {
			name  string
			s     *Schema
			extra map[Field][]string
		}{
			{"questions", p.questions, syn.Questions},
			{"accounts", p.accounts, syn.Accounts},
			{"exams", p.exams, syn.Exams},
			{"curriculum", p.curriculum, syn.Curriculum},
		} {
			if err := x.s.extend(x.extra); err != nil {
				return fmt.Errorf("%s synonyms: %w", x.name, err)
			}
		}
		return nil
	}
}

// WithClock sets the time source used for exam creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) error {
		p.now = now
		return nil
	}
}

// New returns a Parser using the default keyword tables.
func New(opts ...Option) (*Parser, error) {
	p := &Parser{
		questions:  QuestionSchema(),
		accounts:   AccountSchema(),
		exams:      ExamSchema(),
		curriculum: CurriculumSchema(),
		now:        time.Now,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

var defaultParser = mustNew()

func mustNew() *Parser {
	p, err := New()
	if err != nil {
		panic(err)
	}
	return p
}

// ParseQuestions parses a question bank with the default keyword table.
func ParseQuestions(text string) []model.Question { return defaultParser.Questions(text) }

// ParseAccounts parses a student roster with the default keyword table.
func ParseAccounts(text string) []model.StudentAccount { return defaultParser.Accounts(text) }

// ParseExams parses an exam summary with the default keyword table.
func ParseExams(text string) []model.ExamConfig { return defaultParser.Exams(text) }

// ParseCurriculum parses a syllabus with the default keyword table.
func ParseCurriculum(text string) []model.CurriculumItem { return defaultParser.Curriculum(text) }

// Questions parses a question bank. Rows without a question body are
// dropped. Ids are "q-<row>" where row counts non-blank lines.
func (p *Parser) Questions(text string) []model.Question {
	rows := records(text)
	m, start, _ := p.questions.resolve(rows)
	out := make([]model.Question, 0, len(rows))
	for i := start; i < len(rows); i++ {
		cols := rows[i]
		body := cell(cols, m.Index(FieldBody))
		if body == "" {
			slog.Debug("skipping question row without body", "row", i)
			continue
		}
		out = append(out, model.Question{
			ID:         fmt.Sprintf("q-%d", i),
			Grade:      cell(cols, m.Index(FieldGrade)),
			Topic:      cell(cols, m.Index(FieldTopic)),
			Lesson:     cell(cols, m.Index(FieldLesson)),
			Difficulty: cell(cols, m.Index(FieldLevel)),
			Body:       body,
			ImageURL:   cell(cols, m.Index(FieldImage)),
			OptionA:    cell(cols, m.Index(FieldOptionA)),
			OptionB:    cell(cols, m.Index(FieldOptionB)),
			OptionC:    cell(cols, m.Index(FieldOptionC)),
			OptionD:    cell(cols, m.Index(FieldOptionD)),
			Correct:    model.NormalizeAnswerTag(cell(cols, m.Index(FieldCorrect))),
			Hint:       cell(cols, m.Index(FieldHint)),
			Solution:   cell(cols, m.Index(FieldSolution)),
		})
	}
	return out
}

// Accounts parses a student roster. Rows need an id and a password; the
// display name falls back to the id.
func (p *Parser) Accounts(text string) []model.StudentAccount {
	rows := records(text)
	m, start, _ := p.accounts.resolve(rows)
	out := make([]model.StudentAccount, 0, len(rows))
	for i := start; i < len(rows); i++ {
		cols := rows[i]
		if len(cols) < 2 {
			continue
		}
		id := cell(cols, m.Index(FieldID))
		pass := cell(cols, m.Index(FieldPassword))
		if id == "" || pass == "" {
			slog.Debug("skipping account row without id or password", "row", i)
			continue
		}
		name := cell(cols, m.Index(FieldName))
		if name == "" {
			name = id
		}
		out = append(out, model.StudentAccount{
			ID:       id,
			Password: pass,
			Name:     name,
			Class:    cell(cols, m.Index(FieldClass)),
		})
	}
	return out
}

// Exams parses an exam summary. Closed exams and stray header rows are
// skipped; the structure cell is recovered into sections or a frozen
// question list.
func (p *Parser) Exams(text string) []model.ExamConfig {
	rows := records(text)
	m, start, _ := p.exams.resolve(rows)
	out := make([]model.ExamConfig, 0, len(rows))
	for i := start; i < len(rows); i++ {
		cols := rows[i]
		if len(cols) < 4 {
			continue
		}
		title := cell(cols, m.Index(FieldTitle))
		if title == "" {
			title = defaultExamTitle
		}
		if strings.Contains(textnorm.Fold(title), "tên kỳ thi") {
			continue
		}
		if textnorm.Fold(cell(cols, m.Index(FieldStatus))) == "closed" {
			continue
		}
		id := cell(cols, m.Index(FieldID))
		if id == "" {
			id = fmt.Sprintf("exam-%d", i)
		}

		raw := cell(cols, m.Index(FieldStructure))
		if raw == "" {
			raw = "[]"
		}
		st := jsoncell.Recover(raw)

		exam := model.ExamConfig{
			ID:               id,
			Title:            title,
			Date:             isoDate(cell(cols, m.Index(FieldDate))),
			Duration:         leadingInt(cell(cols, m.Index(FieldDuration)), defaultExamDuration),
			Variants:         leadingInt(cell(cols, m.Index(FieldVariants)), defaultExamVariants),
			TargetClass:      mixedClass,
			Sections:         st.Sections,
			ShuffleQuestions: true,
			ShuffleAnswers:   true,
			AllowReview:      true,
			CreatedAt:        p.now().UnixMilli(),
		}
		if st.Kind == jsoncell.KindQuestions {
			exam.SpecificQuestions = st.Questions
		}
		if exam.Sections == nil {
			exam.Sections = []model.ExamSection{}
		}
		if exam.SpecificQuestions == nil {
			exam.SpecificQuestions = []model.Question{}
		}
		exam.QuestionCount = questionCount(exam)
		out = append(out, exam)
	}
	return out
}

// Curriculum parses a syllabus. Without a header row nothing is returned.
// A row is kept when any of grade, topic or lesson is set; rows are
// deduplicated on (grade, topic, lesson).
func (p *Parser) Curriculum(text string) []model.CurriculumItem {
	rows := records(text)
	m, start, ok := p.curriculum.resolve(rows)
	out := make([]model.CurriculumItem, 0)
	if !ok {
		return out
	}
	seen := make(map[string]bool)
	for i := start; i < len(rows); i++ {
		cols := rows[i]
		item := model.CurriculumItem{
			Grade:  cell(cols, m.Index(FieldGrade)),
			Topic:  cell(cols, m.Index(FieldTopic)),
			Lesson: cell(cols, m.Index(FieldLesson)),
		}
		if item.Grade == "" && item.Topic == "" && item.Lesson == "" {
			continue
		}
		if seen[item.Key()] {
			continue
		}
		seen[item.Key()] = true
		out = append(out, item)
	}
	return out
}

func questionCount(e model.ExamConfig) int {
	if len(e.SpecificQuestions) > 0 {
		return len(e.SpecificQuestions)
	}
	n := 0
	for _, s := range e.Sections {
		n += s.Total()
	}
	return n
}

// isoDate converts D/M/YYYY into YYYY-MM-DD. Other values pass through.
func isoDate(s string) string {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return fmt.Sprintf("%s-%s-%s", parts[2], pad2(parts[1]), pad2(parts[0]))
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// leadingInt parses the leading digits of s ("45 phút" -> 45). Values that
// are missing or not positive yield def.
func leadingInt(s string, def int) int {
	end := 0
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return def
	}
	return n
}
