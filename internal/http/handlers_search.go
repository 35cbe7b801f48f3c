package httpapi

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/dsjohal14/studybank/internal/scope/bank"
	"github.com/dsjohal14/studybank/internal/scope/pipeline"
	"github.com/dsjohal14/studybank/internal/scope/search"
)

// HandleSearch runs the query pipeline for the posted query context
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid search request")
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return
	}

	qtype, err := bank.ParseType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_TYPE")
		return
	}

	qc := pipeline.Context{
		Query:    req.Query,
		Type:     qtype,
		Module:   req.Module,
		ActiveID: req.ActiveID,
	}

	var res pipeline.Result
	if req.Select != "" {
		res, qc = h.pipeline.Select(qc, req.Select)
	} else {
		res, qc = h.pipeline.Run(qc)
	}

	results := make([]SearchResult, len(res.Hits))
	for i, hit := range res.Hits {
		q := hit.Question
		results[i] = SearchResult{
			ID:        q.ID,
			Number:    q.Number,
			Module:    q.Module,
			Type:      q.Type,
			TypeLabel: q.Type.Label(),
			Heading:   q.Heading(),
			Preview:   q.Preview(),
			Score:     hit.Score,
		}
	}

	resp := SearchResponse{
		Results:       results,
		Count:         len(results),
		Total:         res.Total,
		Query:         req.Query,
		ActiveID:      qc.ActiveID,
		ActiveChanged: res.ActiveChanged,
	}
	if req.Module != "" && !slices.Contains(h.bank.Modules(), req.Module) {
		resp.Suggestions = search.Suggest(h.bank.Modules(), req.Module, 3)
	}

	h.logger.Info().
		Str("query", req.Query).
		Str("type", string(qtype)).
		Str("module", req.Module).
		Int("results", len(results)).
		Msg("search completed")

	writeJSON(w, http.StatusOK, resp)
}

// HandleQuestion returns the detail view of a question.
// A saved answer shadows the seed carried by the dataset.
func (h *Handler) HandleQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q, ok := h.bank.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "question not found", "NOT_FOUND")
		return
	}

	detail := QuestionDetail{
		Question:  q,
		TypeLabel: q.Type.Label(),
		Sources:   make([]string, len(q.Source)),
	}
	for i, src := range q.Source {
		detail.Sources[i] = src.String()
	}
	detail.MyAnswer, detail.AnswerUpdatedAt = h.answers.Resolve(q)

	writeJSON(w, http.StatusOK, detail)
}
