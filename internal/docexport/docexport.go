// Package docexport renders an exam as a Word (.docx) document: the
// questions with their options, then an answer key with solutions.
package docexport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/fumiama/go-docx"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

// ErrNoQuestions is returned for an exam without a frozen question list.
var ErrNoQuestions = errors.New("exam has no questions")

const (
	defaultFetchLimit = 4
	defaultMaxImage   = 8 << 20
)

// Document is the exam content to render.
type Document struct {
	Title     string
	Duration  int
	Questions []model.Question
}

// FromExam builds a Document from the exam's frozen questions. Exams that
// only carry sections are refused.
func FromExam(exam model.ExamConfig) (Document, error) {
	if len(exam.SpecificQuestions) == 0 {
		return Document{}, ErrNoQuestions
	}
	return Document{
		Title:     exam.Title,
		Duration:  exam.Duration,
		Questions: exam.SpecificQuestions,
	}, nil
}

var whitespace = regexp.MustCompile(`\s+`)

// FileName returns the download name for an exam title.
func FileName(title string) string {
	name := whitespace.ReplaceAllString(strings.TrimSpace(title), "_")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "de_thi"
	}
	return name + ".docx"
}

// Exporter builds documents, fetching question images over HTTP.
type Exporter struct {
	client     *http.Client
	proxy      string
	fetchLimit int
	maxImage   int64
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithHTTPClient sets the client used to fetch images.
func WithHTTPClient(c *http.Client) Option {
	return func(x *Exporter) { x.client = c }
}

// WithProxy routes image fetches through a resizing proxy. The template
// must contain one %s, replaced by the query-escaped image URL, e.g.
// "https://wsrv.nl/?url=%s&output=png&w=800&q=80".
func WithProxy(template string) Option {
	return func(x *Exporter) { x.proxy = template }
}

// WithFetchLimit bounds the number of concurrent image fetches.
func WithFetchLimit(n int) Option {
	return func(x *Exporter) {
		if n > 0 {
			x.fetchLimit = n
		}
	}
}

// New returns an Exporter.
func New(opts ...Option) *Exporter {
	x := &Exporter{
		client:     &http.Client{Timeout: 20 * time.Second},
		fetchLimit: defaultFetchLimit,
		maxImage:   defaultMaxImage,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Build renders doc as a .docx package. Images that cannot be fetched or
// decoded are replaced by a link to the online copy.
func (x *Exporter) Build(ctx context.Context, doc Document) ([]byte, error) {
	if len(doc.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	images, err := x.prefetch(ctx, doc.Questions)
	if err != nil {
		return nil, err
	}

	w := docx.New().WithDefaultTheme()
	layout(w, doc, images)
	w.WithA4Page()

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}
