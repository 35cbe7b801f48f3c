package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dsjohal14/studybank/internal/scope/answers"
)

// HandlePutAnswer saves the user's answer for a question
func (h *Handler) HandlePutAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.bank.Has(id) {
		writeError(w, http.StatusNotFound, "question not found", "NOT_FOUND")
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid answer request")
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return
	}

	rec, err := h.answers.Upsert(r.Context(), id, req.MyAnswer)
	if err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("failed to save answer")
		writeError(w, http.StatusInternalServerError, "failed to save answer", "PERSIST_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, AnswerResponse{ID: id, MyAnswer: rec.MyAnswer, UpdatedAt: rec.UpdatedAt})
}

// HandleClearAnswer stores an empty answer; the record is kept
func (h *Handler) HandleClearAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.bank.Has(id) {
		writeError(w, http.StatusNotFound, "question not found", "NOT_FOUND")
		return
	}

	rec, err := h.answers.Clear(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("failed to clear answer")
		writeError(w, http.StatusInternalServerError, "failed to clear answer", "PERSIST_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, AnswerResponse{ID: id, MyAnswer: rec.MyAnswer, UpdatedAt: rec.UpdatedAt})
}

// HandleExport downloads every saved answer as indented JSON
func (h *Handler) HandleExport(w http.ResponseWriter, _ *http.Request) {
	data, err := h.answers.ExportJSON()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to export answers")
		writeError(w, http.StatusInternalServerError, "failed to export answers", "EXPORT_FAILED")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", answers.ExportFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleImport merges a previously exported mapping, last writer wins
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "import too large", "TOO_LARGE")
		return
	}

	n, err := h.answers.ImportJSON(r.Context(), data)
	if err != nil {
		if errors.Is(err, answers.ErrMalformedImport) {
			h.logger.Warn().Err(err).Msg("rejected malformed import")
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "import is not a mapping of question id to answer record",
				Code:    "MALFORMED_IMPORT",
				Details: err.Error(),
			})
			return
		}
		h.logger.Error().Err(err).Msg("failed to import answers")
		writeError(w, http.StatusInternalServerError, "failed to import answers", "PERSIST_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{Imported: n, Total: h.answers.Count()})
}
