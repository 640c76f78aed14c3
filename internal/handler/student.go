package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

func isStudent(r *http.Request) (*model.Principal, bool) {
	p := model.PrincipalFromContext(r.Context())
	return p, p != nil && p.Role == model.UserRoleStudent
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	snap, err := h.bank.Snapshot(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	exams := snap.Exams
	if _, ok := isStudent(r); ok {
		exams = make([]model.ExamConfig, len(snap.Exams))
		for i, e := range snap.Exams {
			exams[i] = e.ForStudent()
		}
	}
	writeJSON(w, http.StatusOK, exams)
}

// handleGetExam returns one exam. Students see answers and solutions
// only after submitting, and only when the exam allows review.
func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	exam, err := h.bank.Exam(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if p, ok := isStudent(r); ok {
		review := false
		if exam.AllowReview {
			if review, err = h.bank.HasSubmitted(r.Context(), p.Subject, exam.ID); err != nil {
				fail(w, r, err)
				return
			}
		}
		if !review {
			exam = exam.ForStudent()
		}
	}
	writeJSON(w, http.StatusOK, exam)
}

// handleSubmit records a finished attempt. Students submit as themselves;
// the identity in the token overrides the body.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub model.StudentSubmission
	if err := decodeJSON(r, &sub); err != nil {
		fail(w, r, err)
		return
	}
	if p, ok := isStudent(r); ok {
		sub.StudentID = p.Subject
		sub.StudentName = p.Name
		sub.Class = p.Class
	}
	saved, err := h.bank.RecordSubmission(r.Context(), sub)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
