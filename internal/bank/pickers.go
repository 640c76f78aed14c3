package bank

import (
	"context"
	"slices"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/textnorm"
)

// Pickers lists the distinct grades, topics and lessons offered by the
// section editor.
type Pickers struct {
	Grades  []string `json:"grades"`
	Topics  []string `json:"topics"`
	Lessons []string `json:"lessons"`
}

// Pickers narrows topics by grade and lessons by grade and topic. An empty
// grade or AllGrades leaves grades unfiltered.
func (b *Bank) Pickers(ctx context.Context, grade, topic string) (Pickers, error) {
	pool, err := b.store.LoadExamQuestions(ctx)
	if err != nil {
		return Pickers{}, err
	}
	return pickers(pool, grade, topic), nil
}

func pickers(pool []model.Question, grade, topic string) Pickers {
	grade = textnorm.Clean(grade)
	topic = textnorm.Clean(topic)
	anyGrade := grade == "" || grade == model.AllGrades

	var p Pickers
	p.Grades = distinct(pool, func(q model.Question) (string, bool) { return q.Grade, true })
	p.Topics = distinct(pool, func(q model.Question) (string, bool) {
		return q.Topic, anyGrade || textnorm.Equal(q.Grade, grade)
	})
	p.Lessons = distinct(pool, func(q model.Question) (string, bool) {
		ok := (anyGrade || textnorm.Equal(q.Grade, grade)) && (topic == "" || textnorm.Equal(q.Topic, topic))
		return q.Lesson, ok
	})
	return p
}

func distinct(pool []model.Question, pick func(model.Question) (string, bool)) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, q := range pool {
		v, ok := pick(q)
		v = textnorm.Clean(v)
		if !ok || v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
