// Package handler serves the JSON API used by the admin panel and by the
// student client.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/auth"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/bank"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/docexport"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/i18n"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/llm"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

const (
	defaultMaxBody = 32 << 20
	aiTimeout      = 3 * time.Minute
)

// Config holds the HTTP-level settings.
type Config struct {
	// Lang is the fallback language for messages.
	Lang string
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string
	// MaxBodyBytes caps request bodies; imports and AI uploads are the
	// largest.
	MaxBodyBytes int64
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	bank   *bank.Bank
	auth   *auth.Service
	gen    *llm.Generator
	docs   *docexport.Exporter
	config Config
}

// New creates a new Handler.
func New(b *bank.Bank, a *auth.Service, gen *llm.Generator, docs *docexport.Exporter, cfg Config) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBody
	}
	if docs == nil {
		docs = docexport.New()
	}
	return &Handler{bank: b, auth: a, gen: gen, docs: docs, config: cfg}
}

// Router returns the full middleware stack and routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(h.config.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	r.Use(i18n.Middleware(h.config.Lang))
	h.Routes(r)
	return r
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.limitBody)

		r.Post("/login", h.handleAdminLogin)
		r.Post("/students/login", h.handleStudentLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.Middleware(model.UserRoleStudent))
			r.Get("/exams", h.handleListExams)
			r.Get("/exams/{id}", h.handleGetExam)
			r.Post("/submissions", h.handleSubmit)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.auth.Middleware())

			r.Get("/state", h.handleState)

			r.Get("/pools/{pool}", h.handleGetPool)
			r.Put("/pools/{pool}", h.handleReplacePool)
			r.Post("/pools/{pool}", h.handleAddQuestions)
			r.Delete("/pools/{pool}/{id}", h.handleDeleteQuestion)
			r.Post("/import/{kind}", h.handleImport)

			r.Get("/pickers", h.handlePickers)
			r.Post("/sections/available", h.handleAvailable)

			r.Post("/exams", h.handleCreateExam)
			r.Delete("/exams", h.handleClearExams)
			r.Delete("/exams/{id}", h.handleDeleteExam)
			r.Get("/exams/{id}/docx", h.handleExamDocx)
			r.Get("/exams.csv", h.handleExamsCSV)

			r.Get("/students", h.handleListStudents)
			r.Post("/students", h.handleAddStudent)
			r.Delete("/students/{id}", h.handleDeleteStudent)

			r.Get("/submissions", h.handleListSubmissions)
			r.Get("/submissions.tsv", h.handleSubmissionsTSV)
			r.Delete("/submissions", h.handleClearSubmissions)
			r.Get("/results", h.handleResults)

			r.Route("/ai", func(r chi.Router) {
				r.Use(middleware.Timeout(aiTimeout))
				r.Post("/generate", h.handleAIGenerate)
				r.Post("/extract", h.handleAIExtract)
				r.Post("/similar", h.handleAISimilar)
				r.Post("/questions.tsv", h.handleQuestionsTSV)
			})
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}
