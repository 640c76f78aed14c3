// Package assembler turns section blueprints into a frozen list of exam
// questions.
package assembler

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/selector"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/textnorm"
)

var (
	ErrMissingTitle = errors.New("exam title is required")
	ErrNoSections   = errors.New("exam needs at least one section")
	ErrEmptyExam    = errors.New("no questions match the exam sections")
	ErrSectionTopic = errors.New("section topic is required")
	ErrSectionCount = errors.New("section must ask for at least one question")
)

const (
	defaultDuration = 45
	defaultVariants = 1
	mixedClass      = "Mixed"
)

// Assembler resolves sections against a question pool.
type Assembler struct {
	tiers TierTable
	rng   *rand.Rand
	now   func() time.Time
	newID func() string
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock sets the time source for exam dates and timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithIDs sets the identifier generator for exams and sections.
func WithIDs(newID func() string) Option {
	return func(a *Assembler) { a.newID = newID }
}

// New returns an Assembler. A nil rng draws from the global source and an
// empty table falls back to DefaultTiers.
func New(tiers TierTable, rng *rand.Rand, opts ...Option) *Assembler {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	a := &Assembler{
		tiers: tiers,
		rng:   rng,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Tiers returns the tier table in use.
func (a *Assembler) Tiers() TierTable { return a.tiers }

// Filter returns the questions matching a section's grade, topic and
// lesson. An "All" or empty grade and an empty topic or lesson do not
// filter.
func Filter(pool []model.Question, s model.ExamSection) []model.Question {
	grade := strings.TrimSpace(s.Grade)
	out := make([]model.Question, 0)
	for _, q := range pool {
		if grade != "" && grade != model.AllGrades && !textnorm.Equal(q.Grade, grade) {
			continue
		}
		if strings.TrimSpace(s.Topic) != "" && !textnorm.Equal(q.Topic, s.Topic) {
			continue
		}
		if strings.TrimSpace(s.Lesson) != "" && !textnorm.Equal(q.Lesson, s.Lesson) {
			continue
		}
		out = append(out, q)
	}
	return out
}

func (a *Assembler) partition(qs []model.Question, tier Tier) []model.Question {
	out := make([]model.Question, 0)
	for _, q := range qs {
		if tier.Matches(q.Difficulty) {
			out = append(out, q)
		}
	}
	return out
}

// Available counts the questions a section could draw per tier.
func (a *Assembler) Available(pool []model.Question, s model.ExamSection) map[model.Level]int {
	filtered := Filter(pool, s)
	counts := make(map[model.Level]int, len(a.tiers))
	for _, tier := range a.tiers {
		counts[tier.Level] = len(a.partition(filtered, tier))
	}
	return counts
}

// Assemble draws each section's tier counts from the pool. Within a
// section questions are ordered by tier table order; sections follow in
// the order given. A tier with fewer questions than requested contributes
// what it has.
func (a *Assembler) Assemble(pool []model.Question, sections []model.ExamSection) []model.Question {
	out := make([]model.Question, 0)
	for _, s := range sections {
		filtered := Filter(pool, s)
		for _, tier := range a.tiers {
			n := s.Count(tier.Level)
			if n <= 0 {
				continue
			}
			out = append(out, selector.Select(a.partition(filtered, tier), n, a.rng)...)
		}
	}
	return out
}

// ValidateSection checks a section before it is added to a draft.
func ValidateSection(s model.ExamSection) error {
	if strings.TrimSpace(s.Topic) == "" {
		return ErrSectionTopic
	}
	if s.CountRecall < 0 || s.CountUnderstand < 0 || s.CountApplication < 0 || s.Total() <= 0 {
		return ErrSectionCount
	}
	return nil
}

// Draft is an exam being composed in the admin panel.
type Draft struct {
	Title             string              `json:"title"`
	Date              string              `json:"date"`
	Duration          int                 `json:"duration"`
	Variants          int                 `json:"variants"`
	Sections          []model.ExamSection `json:"sections"`
	ShuffleQuestions  bool                `json:"shuffleQuestions"`
	ShuffleAnswers    bool                `json:"shuffleAnswers"`
	AllowReview       bool                `json:"allowReview"`
	HideTakenVariants bool                `json:"hideTakenVariants"`
}

// NewDraft returns a draft with the usual defaults.
func NewDraft() Draft {
	return Draft{
		Duration:         defaultDuration,
		Variants:         defaultVariants,
		ShuffleQuestions: true,
		ShuffleAnswers:   true,
		AllowReview:      true,
	}
}

// NewExam validates a draft and freezes its questions. The returned exam
// owns copies of the selected questions.
func (a *Assembler) NewExam(d Draft, pool []model.Question) (model.ExamConfig, error) {
	title := textnorm.Clean(d.Title)
	if title == "" {
		return model.ExamConfig{}, ErrMissingTitle
	}
	if len(d.Sections) == 0 {
		return model.ExamConfig{}, ErrNoSections
	}
	sections := make([]model.ExamSection, len(d.Sections))
	for i, s := range d.Sections {
		if err := ValidateSection(s); err != nil {
			return model.ExamConfig{}, fmt.Errorf("section %d: %w", i+1, err)
		}
		s.Grade = textnorm.Clean(s.Grade)
		s.Topic = textnorm.Clean(s.Topic)
		s.Lesson = textnorm.Clean(s.Lesson)
		if s.ID == "" {
			s.ID = a.newID()
		}
		sections[i] = s
	}

	questions := a.Assemble(pool, sections)
	if len(questions) == 0 {
		return model.ExamConfig{}, ErrEmptyExam
	}

	now := a.now()
	date := strings.TrimSpace(d.Date)
	if date == "" {
		date = now.Format(time.DateOnly)
	}
	duration := d.Duration
	if duration <= 0 {
		duration = defaultDuration
	}
	variants := d.Variants
	if variants <= 0 {
		variants = defaultVariants
	}

	return model.ExamConfig{
		ID:                "exam-" + a.newID(),
		Title:             title,
		Date:              date,
		Duration:          duration,
		Variants:          variants,
		TargetClass:       mixedClass,
		Sections:          sections,
		SpecificQuestions: questions,
		QuestionCount:     len(questions),
		ShuffleQuestions:  d.ShuffleQuestions,
		ShuffleAnswers:    d.ShuffleAnswers,
		AllowReview:       d.AllowReview,
		HideTakenVariants: d.HideTakenVariants,
		CreatedAt:         now.UnixMilli(),
	}, nil
}
