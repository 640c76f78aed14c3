package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/assembler"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/bank"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/csvimport"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/docexport"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/i18n"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

type countResponse struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := h.bank.Snapshot(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func poolParam(r *http.Request) (bank.Pool, error) {
	return bank.ParsePool(chi.URLParam(r, "pool"))
}

func (h *Handler) handleGetPool(w http.ResponseWriter, r *http.Request) {
	pool, err := poolParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	qs, err := h.bank.Questions(r.Context(), pool)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

func (h *Handler) handleReplacePool(w http.ResponseWriter, r *http.Request) {
	pool, err := poolParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var qs []model.Question
	if err := decodeJSON(r, &qs); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.bank.ReplacePool(r.Context(), pool, qs); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddQuestions(w http.ResponseWriter, r *http.Request) {
	pool, err := poolParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var qs []model.Question
	if err := decodeJSON(r, &qs); err != nil {
		fail(w, r, err)
		return
	}
	added, err := h.bank.AddQuestions(r.Context(), pool, qs)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	pool, err := poolParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.bank.DeleteQuestion(r.Context(), pool, chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImport reads a CSV/TSV body. Kinds: questions, exam-questions,
// accounts, exams, curriculum.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	text, err := readText(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	ctx := r.Context()
	kind, err := bank.ParseImportKind(chi.URLParam(r, "kind"))
	if err != nil {
		fail(w, r, err)
		return
	}
	n, err := h.bank.Import(ctx, kind, text)
	if err != nil {
		fail(w, r, err)
		return
	}
	slog.Info("imported rows", "kind", kind, "count", n)
	writeJSON(w, http.StatusOK, countResponse{Count: n, Message: i18n.Tp(ctx, "RowsImported", n)})
}

func (h *Handler) handlePickers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := h.bank.Pickers(r.Context(), q.Get("grade"), q.Get("topic"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleAvailable(w http.ResponseWriter, r *http.Request) {
	var s model.ExamSection
	if err := decodeJSON(r, &s); err != nil {
		fail(w, r, err)
		return
	}
	counts, err := h.bank.Available(r.Context(), s)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

type examResponse struct {
	Exam    model.ExamConfig `json:"exam"`
	Message string           `json:"message"`
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	d := assembler.NewDraft()
	if err := decodeJSON(r, &d); err != nil {
		fail(w, r, err)
		return
	}
	exam, err := h.bank.CreateExam(r.Context(), d)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, examResponse{
		Exam:    exam,
		Message: i18n.Tp(r.Context(), "ExamCreated", exam.QuestionCount),
	})
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	if err := h.bank.DeleteExam(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearExams(w http.ResponseWriter, r *http.Request) {
	if err := h.bank.ClearExams(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExamDocx(w http.ResponseWriter, r *http.Request) {
	exam, err := h.bank.Exam(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	doc, err := docexport.FromExam(exam)
	if err != nil {
		fail(w, r, err)
		return
	}
	data, err := h.docs.Build(r.Context(), doc)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", attachment(docexport.FileName(exam.Title)))
	_, _ = w.Write(data)
}

func (h *Handler) handleExamsCSV(w http.ResponseWriter, r *http.Request) {
	snap, err := h.bank.Snapshot(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := csvimport.WriteExams(&buf, snap.Exams); err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment("danh_sach_ky_thi.csv"))
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	snap, err := h.bank.Snapshot(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bank.FilterStudents(snap.Accounts, r.URL.Query().Get("q")))
}

func (h *Handler) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	var acct model.StudentAccount
	if err := decodeJSON(r, &acct); err != nil {
		fail(w, r, err)
		return
	}
	saved, err := h.bank.AddStudent(r.Context(), acct)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.bank.DeleteStudent(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type submissionsResponse struct {
	Results      []model.StudentSubmission `json:"results"`
	Count        int                       `json:"count"`
	AverageScore float64                   `json:"averageScore"`
}

func (h *Handler) filteredSubmissions(r *http.Request) ([]model.StudentSubmission, error) {
	snap, err := h.bank.Snapshot(r.Context())
	if err != nil {
		return nil, err
	}
	return bank.FilterSubmissions(snap.Submissions, r.URL.Query().Get("q")), nil
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.filteredSubmissions(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionsResponse{
		Results:      subs,
		Count:        len(subs),
		AverageScore: bank.AverageScore(subs),
	})
}

func (h *Handler) handleSubmissionsTSV(w http.ResponseWriter, r *http.Request) {
	subs, err := h.filteredSubmissions(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeText(w, "text/tab-separated-values", bank.ScoresTSV(subs))
}

func (h *Handler) handleClearSubmissions(w http.ResponseWriter, r *http.Request) {
	if err := h.bank.ClearSubmissions(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	res, err := h.bank.Results(r.Context(), r.URL.Query().Get("exam"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// attachment builds a Content-Disposition value with an ASCII fallback
// and the UTF-8 file name.
func attachment(name string) string {
	ascii := []rune(name)
	for i, c := range ascii {
		if c > 0x7e || c < 0x20 || c == '"' || c == '\\' {
			ascii[i] = '_'
		}
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, string(ascii), url.PathEscape(name))
}
