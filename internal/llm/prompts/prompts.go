// Package prompts renders the Vietnamese prompts sent to the AI service.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const maxSourceRunes = 20000

var sourceTagRegex = regexp.MustCompile(`(?i)</?\s*source-material\b[^>]*>`)

var (
	loadOnce  sync.Once
	loadErr   error
	templates *template.Template
)

// GenerateData holds template data for topic-driven generation.
type GenerateData struct {
	Grade         string
	Topic         string
	Lesson        string
	Difficulty    string
	Count         int
	Additional    string
	SourceText    string
	HasAttachment bool
}

// ExtractData holds template data for extracting questions from material.
type ExtractData struct {
	Text          string
	HasAttachment bool
}

// SimilarData holds template data for generating variations of examples.
type SimilarData struct {
	Count    int
	Examples string
}

func load() error {
	loadOnce.Do(func() {
		templates, loadErr = template.ParseFS(templateFS, "templates/*.tmpl")
		if loadErr != nil {
			loadErr = fmt.Errorf("parse prompt templates: %w", loadErr)
		}
	})
	return loadErr
}

func render(name string, data any) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// System is the shared system prompt.
func System() (string, error) {
	return render("system.tmpl", nil)
}

// Generate builds the prompt for generating questions on a topic.
func Generate(d GenerateData) (string, error) {
	d.SourceText = sanitizeSource(d.SourceText)
	d.Additional = sanitizeSource(d.Additional)
	return render("generate.tmpl", d)
}

// Extract builds the prompt for pulling questions out of pasted text or
// an attached image/PDF.
func Extract(d ExtractData) (string, error) {
	d.Text = sanitizeSource(d.Text)
	return render("extract.tmpl", d)
}

// Similar builds the prompt for variations of example questions.
func Similar(d SimilarData) (string, error) {
	d.Examples = sanitizeSource(d.Examples)
	return render("similar.tmpl", d)
}

// sanitizeSource drops delimiter tags from user material and caps its
// length.
func sanitizeSource(s string) string {
	s = sourceTagRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxSourceRunes {
		runes := []rune(s)
		s = string(runes[:maxSourceRunes]) + "\n\n[Nội dung đã được rút gọn]"
	}
	return s
}
