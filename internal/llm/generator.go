package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/llm/prompts"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/textnorm"
)

var (
	ErrMissingTopic    = errors.New("topic is required")
	ErrEmptySource     = errors.New("text or a file is required")
	ErrNoSeeds         = errors.New("example questions are required")
	ErrUnsupportedFile = errors.New("only image or PDF files are supported")
)

const (
	defaultCount    = 5
	maxCount        = 50
	maxSeedExamples = 10
)

// Defaults applied to extracted questions.
var extractDefaults = Defaults{
	Grade:      "12",
	Topic:      "Chưa phân loại",
	Lesson:     "Tổng hợp",
	Difficulty: "Hiểu",
}

// Source is material to generate from or extract questions out of.
type Source struct {
	Text     string
	MIMEType string
	Data     []byte
}

// Empty reports whether the source carries neither text nor a file.
func (s Source) Empty() bool {
	return strings.TrimSpace(s.Text) == "" && len(s.Data) == 0
}

// DecodeSource builds a Source from text and an optional base64 file. A
// "data:<mime>;base64," prefix is accepted and supplies the MIME type.
func DecodeSource(text, b64, mimeType string) (Source, error) {
	src := Source{Text: text, MIMEType: strings.TrimSpace(mimeType)}
	b64 = strings.TrimSpace(b64)
	if b64 == "" {
		return src, nil
	}
	if rest, ok := strings.CutPrefix(b64, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found {
			return Source{}, fmt.Errorf("malformed data URL")
		}
		if m, _, _ := strings.Cut(meta, ";"); m != "" {
			src.MIMEType = m
		}
		b64 = payload
	}
	a := Attachment{MIMEType: src.MIMEType}
	if !a.IsImage() && !a.IsPDF() {
		return Source{}, fmt.Errorf("%w: %q", ErrUnsupportedFile, src.MIMEType)
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Source{}, fmt.Errorf("decode file: %w", err)
	}
	src.Data = data
	return src, nil
}

func (s Source) attachments() []Attachment {
	if len(s.Data) == 0 {
		return nil
	}
	return []Attachment{{MIMEType: s.MIMEType, Data: s.Data}}
}

// GenerateInput asks for new questions on a topic.
type GenerateInput struct {
	Grade      string `json:"grade"`
	Topic      string `json:"topic"`
	Lesson     string `json:"lesson"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
	Additional string `json:"additionalPrompt"`
	Source     Source `json:"-"`
}

// Generator drafts questions through a Provider.
type Generator struct {
	cfg      Config
	provider Provider
	factory  func(ctx context.Context, apiKey string) (Provider, error)
	now      func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithFactory sets how providers are built for requests carrying their
// own API key.
func WithFactory(f func(ctx context.Context, apiKey string) (Provider, error)) GeneratorOption {
	return func(g *Generator) { g.factory = f }
}

// WithClock sets the time source used in question ids.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator returns a Generator. p serves requests without their own
// key and may be nil when the server has no key configured.
func NewGenerator(cfg Config, p Provider, opts ...GeneratorOption) *Generator {
	g := &Generator{
		cfg:      cfg,
		provider: p,
		now:      time.Now,
	}
	g.factory = func(ctx context.Context, apiKey string) (Provider, error) {
		return NewProvider(ctx, g.cfg, apiKey)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) providerFor(ctx context.Context, apiKey string) (Provider, error) {
	if apiKey = strings.TrimSpace(apiKey); apiKey != "" {
		return g.factory(ctx, apiKey)
	}
	if g.provider == nil {
		return nil, ErrNoAPIKey
	}
	return g.provider, nil
}

func (g *Generator) ask(ctx context.Context, apiKey, prompt string, src Source) ([]model.QuestionDraft, error) {
	p, err := g.providerFor(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	system, err := prompts.System()
	if err != nil {
		return nil, err
	}
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	resp, err := p.Generate(ctx, Request{
		System: system,
		Messages: []Message{{
			Role:        RoleUser,
			Content:     prompt,
			Attachments: src.attachments(),
		}},
		Schema:      questionListSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}
	return decodeDrafts(resp.Content)
}

// Generate drafts new questions on a topic, optionally grounded on source
// material. Grade and topic come from the request; lesson falls back to
// "AI".
func (g *Generator) Generate(ctx context.Context, in GenerateInput, apiKey string) ([]model.Question, error) {
	in.Topic = textnorm.Clean(in.Topic)
	if in.Topic == "" {
		return nil, ErrMissingTopic
	}
	in.Count = clampCount(in.Count)
	if in.Difficulty = textnorm.Clean(in.Difficulty); in.Difficulty == "" {
		in.Difficulty = extractDefaults.Difficulty
	}

	prompt, err := prompts.Generate(prompts.GenerateData{
		Grade:         textnorm.Clean(in.Grade),
		Topic:         in.Topic,
		Lesson:        textnorm.Clean(in.Lesson),
		Difficulty:    in.Difficulty,
		Count:         in.Count,
		Additional:    in.Additional,
		SourceText:    in.Source.Text,
		HasAttachment: len(in.Source.Data) > 0,
	})
	if err != nil {
		return nil, err
	}
	drafts, err := g.ask(ctx, apiKey, prompt, in.Source)
	if err != nil {
		return nil, err
	}

	qs := ToQuestions(drafts, "ai", Defaults{
		Grade:      textnorm.Clean(in.Grade),
		Topic:      in.Topic,
		Lesson:     "AI",
		Difficulty: in.Difficulty,
	}, g.now())
	// Grade and topic follow the request even when the model suggests others.
	for i := range qs {
		if in.Grade != "" {
			qs[i].Grade = textnorm.Clean(in.Grade)
		}
		qs[i].Topic = in.Topic
	}
	return qs, nil
}

// Extract pulls the questions out of pasted text or an attached image or
// PDF.
func (g *Generator) Extract(ctx context.Context, src Source, apiKey string) ([]model.Question, error) {
	if src.Empty() {
		return nil, ErrEmptySource
	}
	prompt, err := prompts.Extract(prompts.ExtractData{
		Text:          src.Text,
		HasAttachment: len(src.Data) > 0,
	})
	if err != nil {
		return nil, err
	}
	drafts, err := g.ask(ctx, apiKey, prompt, src)
	if err != nil {
		return nil, err
	}
	return ToQuestions(drafts, "ext", extractDefaults, g.now()), nil
}

// GenerateSimilar drafts count variations of the seed questions. Empty
// fields are taken from the first seed.
func (g *Generator) GenerateSimilar(ctx context.Context, seeds []model.Question, count int, apiKey string) ([]model.Question, error) {
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}
	examples, err := json.Marshal(DraftsOf(seeds[:min(len(seeds), maxSeedExamples)]))
	if err != nil {
		return nil, fmt.Errorf("encode examples: %w", err)
	}
	prompt, err := prompts.Similar(prompts.SimilarData{
		Count:    clampCount(count),
		Examples: string(examples),
	})
	if err != nil {
		return nil, err
	}
	drafts, err := g.ask(ctx, apiKey, prompt, Source{})
	if err != nil {
		return nil, err
	}
	first := seeds[0]
	return ToQuestions(drafts, "sim", Defaults{
		Grade:      first.Grade,
		Topic:      first.Topic,
		Lesson:     first.Lesson,
		Difficulty: first.Difficulty,
	}, g.now()), nil
}

func clampCount(n int) int {
	if n <= 0 {
		return defaultCount
	}
	return min(n, maxCount)
}
