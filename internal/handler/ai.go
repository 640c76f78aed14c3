package handler

import (
	"net/http"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/csvimport"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/llm"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

// sourceRequest is the material part of an AI request. File is base64,
// optionally as a data URL.
type sourceRequest struct {
	Text     string `json:"text"`
	File     string `json:"file"`
	MIMEType string `json:"mimeType"`
	APIKey   string `json:"apiKey"`
}

func (s sourceRequest) source() (llm.Source, error) {
	return llm.DecodeSource(s.Text, s.File, s.MIMEType)
}

type questionsResponse struct {
	Questions []model.Question `json:"questions"`
}

func (h *Handler) handleAIGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		llm.GenerateInput
		sourceRequest
	}
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	src, err := req.source()
	if err != nil {
		fail(w, r, err)
		return
	}
	in := req.GenerateInput
	in.Source = src
	qs, err := h.gen.Generate(r.Context(), in, req.APIKey)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questionsResponse{qs})
}

func (h *Handler) handleAIExtract(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	src, err := req.source()
	if err != nil {
		fail(w, r, err)
		return
	}
	qs, err := h.gen.Extract(r.Context(), src, req.APIKey)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questionsResponse{qs})
}

func (h *Handler) handleAISimilar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Questions []model.Question `json:"questions"`
		Count     int              `json:"count"`
		APIKey    string           `json:"apiKey"`
	}
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	qs, err := h.gen.GenerateSimilar(r.Context(), req.Questions, req.Count, req.APIKey)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questionsResponse{qs})
}

// handleQuestionsTSV renders questions as 13 tab-separated columns for
// pasting into the question spreadsheet.
func (h *Handler) handleQuestionsTSV(w http.ResponseWriter, r *http.Request) {
	var req questionsResponse
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	writeText(w, "text/tab-separated-values", csvimport.QuestionsTSV(req.Questions, r.URL.Query().Get("header") == "1"))
}
