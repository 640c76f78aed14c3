package model

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// UserRole represents a caller's access level.
type UserRole string

const (
	// UserRoleStudent is a student signed in with an account from the roster.
	UserRoleStudent UserRole = "student"
	// UserRoleAdmin operates the admin panel.
	UserRoleAdmin UserRole = "admin"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject string
	Name    string
	Class   string
	Role    UserRole
}

type principalCtxKey struct{}

// ContextWithPrincipal stores the caller in the request context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext retrieves the authenticated caller from context, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalCtxKey{}).(*Principal)
	return p
}

// AnswerTag identifies one of the four options of a question.
type AnswerTag string

const (
	AnswerA AnswerTag = "A"
	AnswerB AnswerTag = "B"
	AnswerC AnswerTag = "C"
	AnswerD AnswerTag = "D"
)

// NormalizeAnswerTag upper-cases raw, takes its first character and
// returns it when it is A-D. Anything else yields AnswerA.
func NormalizeAnswerTag(raw string) AnswerTag {
	s := strings.TrimSpace(raw)
	if s == "" {
		return AnswerA
	}
	first, _ := utf8.DecodeRuneInString(s)
	switch tag := AnswerTag(string(unicode.ToUpper(first))); tag {
	case AnswerA, AnswerB, AnswerC, AnswerD:
		return tag
	}
	return AnswerA
}

// Question is one multiple-choice item of the bank. JSON keys match the
// format persisted in exam sheets so structure cells round-trip.
type Question struct {
	ID         string    `json:"id"`
	Grade      string    `json:"lop"`
	Topic      string    `json:"chuDe"`
	Lesson     string    `json:"bai"`
	Difficulty string    `json:"mucDo"`
	Body       string    `json:"cauHoi"`
	ImageURL   string    `json:"linkAnh"`
	OptionA    string    `json:"dapAnA"`
	OptionB    string    `json:"dapAnB"`
	OptionC    string    `json:"dapAnC"`
	OptionD    string    `json:"dapAnD"`
	Correct    AnswerTag `json:"dapAnDung"`
	Hint       string    `json:"goiY"`
	Solution   string    `json:"loiGiai"`
}

// Option returns the text of the option identified by tag.
func (q Question) Option(tag AnswerTag) string {
	switch tag {
	case AnswerA:
		return q.OptionA
	case AnswerB:
		return q.OptionB
	case AnswerC:
		return q.OptionC
	case AnswerD:
		return q.OptionD
	}
	return ""
}

// AllGrades is the section grade sentinel that disables grade filtering.
const AllGrades = "All"

// Level is a cognitive-demand tier.
type Level string

const (
	LevelRecall      Level = "biet"
	LevelUnderstand  Level = "hieu"
	LevelApplication Level = "vandung"
)

// ExamSection is one slice of an exam blueprint.
type ExamSection struct {
	ID               string `json:"id"`
	Grade            string `json:"targetClass"`
	Topic            string `json:"selectedTopic"`
	Lesson           string `json:"selectedLesson"`
	CountRecall      int    `json:"countBiet"`
	CountUnderstand  int    `json:"countHieu"`
	CountApplication int    `json:"countVanDung"`
}

// Count returns the requested count for a tier.
func (s ExamSection) Count(l Level) int {
	switch l {
	case LevelRecall:
		return s.CountRecall
	case LevelUnderstand:
		return s.CountUnderstand
	case LevelApplication:
		return s.CountApplication
	}
	return 0
}

// Total is the number of questions the section asks for.
func (s ExamSection) Total() int {
	return s.CountRecall + s.CountUnderstand + s.CountApplication
}

// ExamConfig is an assembled exam. SpecificQuestions is authoritative;
// Sections is kept as provenance only.
type ExamConfig struct {
	ID                string        `json:"id"`
	Title             string        `json:"title"`
	Date              string        `json:"date"`
	Duration          int           `json:"duration"`
	Variants          int           `json:"variants"`
	TargetClass       string        `json:"targetClass"`
	Sections          []ExamSection `json:"sections"`
	SpecificQuestions []Question    `json:"specificQuestions"`
	QuestionCount     int           `json:"questionCount"`
	ShuffleQuestions  bool          `json:"shuffleQuestions"`
	ShuffleAnswers    bool          `json:"shuffleAnswers"`
	AllowDuplicates   bool          `json:"allowDuplicates"`
	AllowReview       bool          `json:"allowReview"`
	HideTakenVariants bool          `json:"hideTakenVariants"`
	CreatedAt         int64         `json:"createdAt"`
}

// ForStudent returns a copy of e with answer tags and solutions removed
// from its questions.
func (e ExamConfig) ForStudent() ExamConfig {
	qs := make([]Question, len(e.SpecificQuestions))
	for i, q := range e.SpecificQuestions {
		q.Correct = ""
		q.Solution = ""
		qs[i] = q
	}
	e.SpecificQuestions = qs
	return e
}

// StudentAccount is a roster entry. Passwords are stored as given.
type StudentAccount struct {
	ID       string `json:"id"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Class    string `json:"className"`
}

// StudentSubmission is a finished attempt reported by the student client.
type StudentSubmission struct {
	ID             string  `json:"id"`
	StudentID      string  `json:"studentId"`
	StudentName    string  `json:"studentName"`
	Class          string  `json:"className"`
	ExamID         string  `json:"examId"`
	ExamTitle      string  `json:"examTitle"`
	Variant        int     `json:"variant"`
	Score          float64 `json:"score"`
	CorrectCount   int     `json:"correctCount"`
	TotalQuestions int     `json:"totalQuestions"`
	SubmittedAt    int64   `json:"submittedAt"`
	// Answers maps question id to the chosen tag. When present the
	// server grades the attempt.
	Answers map[string]AnswerTag `json:"answers,omitempty"`
}

// CurriculumItem is one (grade, topic, lesson) entry of the syllabus.
type CurriculumItem struct {
	Grade  string `json:"lop"`
	Topic  string `json:"chuDe"`
	Lesson string `json:"bai"`
}

// Key is the composite identity used to deduplicate curriculum rows.
func (c CurriculumItem) Key() string {
	return c.Grade + "|" + c.Topic + "|" + c.Lesson
}

// QuestionDraft is a question proposed by the AI service before ids and
// defaults are assigned. Field names mirror Question for mapping.
type QuestionDraft struct {
	Grade      string `json:"lop"`
	Topic      string `json:"chuDe"`
	Lesson     string `json:"bai"`
	Difficulty string `json:"mucDo"`
	Body       string `json:"cauHoi"`
	ImageURL   string `json:"linkAnh"`
	OptionA    string `json:"dapAnA"`
	OptionB    string `json:"dapAnB"`
	OptionC    string `json:"dapAnC"`
	OptionD    string `json:"dapAnD"`
	Correct    string `json:"dapAnDung"`
	Hint       string `json:"goiY"`
	Solution   string `json:"loiGiai"`
}
