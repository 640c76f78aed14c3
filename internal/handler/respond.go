package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/assembler"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/auth"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/bank"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/docexport"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/i18n"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/llm"
)

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("bad request")

// refusals maps input errors to a status and a message ID.
var refusals = []struct {
	err    error
	status int
	msgID  string
}{
	{errBadRequest, http.StatusBadRequest, "BadRequest"},
	{bank.ErrUnknownKind, http.StatusNotFound, "UnknownImportKind"},
	{assembler.ErrMissingTitle, http.StatusBadRequest, "MissingTitle"},
	{assembler.ErrNoSections, http.StatusBadRequest, "NoSections"},
	{assembler.ErrSectionTopic, http.StatusBadRequest, "SectionTopic"},
	{assembler.ErrSectionCount, http.StatusBadRequest, "SectionCount"},
	{assembler.ErrEmptyExam, http.StatusBadRequest, "EmptyExam"},
	{bank.ErrStudentFields, http.StatusBadRequest, "StudentFields"},
	{bank.ErrNoRows, http.StatusBadRequest, "NoRows"},
	{bank.ErrUnknownPool, http.StatusNotFound, "UnknownPool"},
	{bank.ErrNotFound, http.StatusNotFound, "NotFound"},
	{bank.ErrNoCredentials, http.StatusUnauthorized, "StudentLoginFailed"},
	{auth.ErrBadPassword, http.StatusUnauthorized, "AdminLoginFailed"},
	{docexport.ErrNoQuestions, http.StatusBadRequest, "NoExamQuestions"},
	{llm.ErrNoAPIKey, http.StatusBadRequest, "NoAPIKey"},
	{llm.ErrMissingTopic, http.StatusBadRequest, "MissingTopic"},
	{llm.ErrEmptySource, http.StatusBadRequest, "EmptySource"},
	{llm.ErrNoSeeds, http.StatusBadRequest, "NoSeeds"},
	{llm.ErrUnsupportedFile, http.StatusBadRequest, "UnsupportedFile"},
}

type errorBody struct {
	Error string `json:"error"`
}

// fail writes err as a localized JSON error. Input errors map to 4xx,
// AI service failures to 502 and everything else to 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	for _, ref := range refusals {
		if errors.Is(err, ref.err) {
			slog.Debug("request refused", "path", r.URL.Path, "error", err)
			writeJSON(w, ref.status, errorBody{i18n.T(r.Context(), ref.msgID)})
			return
		}
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{i18n.T(r.Context(), "BadRequest")})
		return
	}
	if llm.IsServiceError(err) {
		slog.Warn("AI request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{i18n.Td(r.Context(), "AIFailed", map[string]any{"Detail": err.Error()})})
		return
	}
	slog.Error("request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{i18n.T(r.Context(), "InternalError")})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeText(w http.ResponseWriter, contentType, text string) {
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	_, _ = io.WriteString(w, text)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func readText(r *http.Request) (string, error) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
