package handler

import (
	"log/slog"
	"net/http"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

type tokenResponse struct {
	Token   string                `json:"token"`
	Student *model.StudentAccount `json:"student,omitempty"`
}

func (h *Handler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	token, err := h.auth.AdminLogin(req.Password)
	if err != nil {
		slog.Warn("admin login failed", "remote", r.RemoteAddr)
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) handleStudentLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	acct, err := h.bank.Authenticate(r.Context(), req.ID, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	token, err := h.auth.Issue(model.Principal{
		Subject: acct.ID,
		Name:    acct.Name,
		Class:   acct.Class,
		Role:    model.UserRoleStudent,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	acct.Password = ""
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, Student: &acct})
}
