package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dsjohal14/studybank/internal/libs/obs"
	"github.com/dsjohal14/studybank/internal/scope/answers"
	"github.com/dsjohal14/studybank/internal/scope/bank"
	"github.com/dsjohal14/studybank/internal/scope/db"
	"github.com/dsjohal14/studybank/internal/scope/pipeline"
	"github.com/dsjohal14/studybank/internal/scope/search"
)

func setupTestHandler(t *testing.T) (*Handler, *chi.Mux) {
	t.Helper()

	page := 12
	b, err := bank.New([]bank.Question{
		{ID: "q1", Number: "1", Module: "Ethics", Type: bank.TypeSingle, Stem: "What is informed consent?", MyAnswer: "seed answer", UpdatedAt: "2024-05-01"},
		{ID: "q2", Number: "2", Module: "Ethics", Type: bank.TypeMulti, Stem: "Which duties apply to confidentiality?"},
		{ID: "q3", Number: "3", Module: "Pharmacology", Type: bank.TypeSingle, Stem: "Describe the half-life of a drug.",
			Source: []bank.SourceRef{{File: "pharm.pdf", Page: &page}}},
	})
	if err != nil {
		t.Fatalf("failed to build bank: %v", err)
	}

	kv, err := db.NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	obs.InitLogger("error") // Quiet logs during tests
	logger := obs.Logger("test")

	store := answers.Open(context.Background(), kv, logger)
	p := pipeline.New(search.NewIndex(b.All()), logger)
	handler := NewHandler(b, p, store, logger)

	return handler, handler.Routes()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	_, router := setupTestHandler(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("expected status healthy, got %v", resp.Status)
	}
	if resp.Questions != 3 || resp.Answers != 0 {
		t.Errorf("unexpected counts: %+v", resp)
	}
}

func TestHandleModules(t *testing.T) {
	_, router := setupTestHandler(t)

	w := doJSON(t, router, http.MethodGet, "/modules", nil)
	var resp ModulesResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)

	if len(resp.Modules) != 2 || resp.Modules[0] != "Ethics" || resp.Modules[1] != "Pharmacology" {
		t.Errorf("unexpected modules %v", resp.Modules)
	}
}

func TestHandleSearch(t *testing.T) {
	_, router := setupTestHandler(t)

	tests := []struct {
		name       string
		req        SearchRequest
		wantStatus int
		wantIDs    []string
		wantActive string
	}{
		{"empty query lists all", SearchRequest{}, http.StatusOK, []string{"q1", "q2", "q3"}, "q1"},
		{"type filter", SearchRequest{Type: "single"}, http.StatusOK, []string{"q1", "q3"}, "q1"},
		{"type and module", SearchRequest{Type: "single", Module: "Ethics"}, http.StatusOK, []string{"q1"}, "q1"},
		{"active kept", SearchRequest{Type: "single", ActiveID: "q3"}, http.StatusOK, []string{"q1", "q3"}, "q3"},
		{"active falls back", SearchRequest{Type: "single", ActiveID: "q2"}, http.StatusOK, []string{"q1", "q3"}, "q1"},
		{"select", SearchRequest{Select: "q2"}, http.StatusOK, []string{"q1", "q2", "q3"}, "q2"},
		{"fuzzy query", SearchRequest{Query: "half-life"}, http.StatusOK, []string{"q3"}, "q3"},
		{"no results clears active", SearchRequest{Query: "zzzzzzzzzz", ActiveID: "q1"}, http.StatusOK, []string{}, ""},
		{"invalid type", SearchRequest{Type: "essay"}, http.StatusBadRequest, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/search", tt.req)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp SearchResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Count != len(tt.wantIDs) {
				t.Fatalf("expected %d results, got %d", len(tt.wantIDs), resp.Count)
			}
			for i, id := range tt.wantIDs {
				if resp.Results[i].ID != id {
					t.Errorf("result %d: expected %s, got %s", i, id, resp.Results[i].ID)
				}
			}
			if resp.ActiveID != tt.wantActive {
				t.Errorf("expected active %q, got %q", tt.wantActive, resp.ActiveID)
			}
			if resp.Total != 3 {
				t.Errorf("expected total 3, got %d", resp.Total)
			}
		})
	}
}

func TestHandleSearchInvalidJSON(t *testing.T) {
	_, router := setupTestHandler(t)

	w := doJSON(t, router, http.MethodPost, "/search", "{broken")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestHandleSearchSuggestsModule(t *testing.T) {
	_, router := setupTestHandler(t)

	w := doJSON(t, router, http.MethodPost, "/search", SearchRequest{Module: "pharma"})
	var resp SearchResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)

	if resp.Count != 0 {
		t.Errorf("expected no results for unknown module, got %d", resp.Count)
	}
	if len(resp.Suggestions) == 0 || resp.Suggestions[0] != "Pharmacology" {
		t.Errorf("expected Pharmacology suggestion, got %v", resp.Suggestions)
	}
}

func TestHandleQuestion(t *testing.T) {
	_, router := setupTestHandler(t)

	w := doJSON(t, router, http.MethodGet, "/questions/q3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var detail QuestionDetail
	_ = json.NewDecoder(w.Body).Decode(&detail)
	if detail.ID != "q3" || detail.TypeLabel != "Single choice" {
		t.Errorf("unexpected detail %+v", detail)
	}
	if len(detail.Sources) != 1 || detail.Sources[0] != "pharm.pdf · p.12" {
		t.Errorf("unexpected sources %v", detail.Sources)
	}

	w = doJSON(t, router, http.MethodGet, "/questions/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestAnswerLifecycle(t *testing.T) {
	_, router := setupTestHandler(t)

	// the dataset seed shows until the user saves
	w := doJSON(t, router, http.MethodGet, "/questions/q1", nil)
	detail := decodeDetail(t, w.Body.Bytes())
	if detail.MyAnswer != "seed answer" || detail.AnswerUpdatedAt != "2024-05-01" {
		t.Errorf("expected seed answer, got %q at %q", detail.MyAnswer, detail.AnswerUpdatedAt)
	}

	w = doJSON(t, router, http.MethodPut, "/answers/q1", AnswerRequest{MyAnswer: "my own"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var saved AnswerResponse
	_ = json.NewDecoder(w.Body).Decode(&saved)
	if saved.MyAnswer != "my own" || saved.UpdatedAt == "" {
		t.Errorf("unexpected saved answer %+v", saved)
	}

	w = doJSON(t, router, http.MethodGet, "/questions/q1", nil)
	detail = decodeDetail(t, w.Body.Bytes())
	if detail.MyAnswer != "my own" {
		t.Errorf("expected saved answer to shadow seed, got %q", detail.MyAnswer)
	}

	w = doJSON(t, router, http.MethodDelete, "/answers/q1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/questions/q1", nil)
	detail = decodeDetail(t, w.Body.Bytes())
	if detail.MyAnswer != "" {
		t.Errorf("expected cleared answer, got %q", detail.MyAnswer)
	}

	// a cleared answer is sent as "", not left out
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode detail: %v", err)
	}
	if got, ok := raw["myAnswer"]; !ok || string(got) != `""` {
		t.Errorf("expected myAnswer \"\" in response, got %s", got)
	}

	w = doJSON(t, router, http.MethodPut, "/answers/missing", AnswerRequest{MyAnswer: "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func decodeDetail(t *testing.T, body []byte) QuestionDetail {
	t.Helper()
	var detail QuestionDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		t.Fatalf("failed to decode detail: %v", err)
	}
	return detail
}

func TestExportImport(t *testing.T) {
	h, router := setupTestHandler(t)

	doJSON(t, router, http.MethodPut, "/answers/q2", AnswerRequest{MyAnswer: "duty of care"})

	w := doJSON(t, router, http.MethodGet, "/answers/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "myAnswers.json") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	exported := w.Body.String()
	if !strings.Contains(exported, "\n  \"q2\"") {
		t.Errorf("expected indented export, got %s", exported)
	}

	w = doJSON(t, router, http.MethodPost, "/answers/import",
		`{"q2":{"myAnswer":"older","updatedAt":"2000-01-01T00:00:00.000Z"},"q9":{"myAnswer":"unknown id"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp ImportResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Imported != 2 || resp.Total != 2 {
		t.Errorf("unexpected import response %+v", resp)
	}

	rec, _ := h.answers.Get("q2")
	if rec.MyAnswer != "older" {
		t.Errorf("expected last writer to win, got %q", rec.MyAnswer)
	}
}

func TestImportMalformed(t *testing.T) {
	h, router := setupTestHandler(t)

	doJSON(t, router, http.MethodPut, "/answers/q1", AnswerRequest{MyAnswer: "keep"})
	before, _ := h.answers.ExportJSON()

	for _, body := range []string{"not json", "null", "[1,2]", `{"q1":"flat"}`} {
		w := doJSON(t, router, http.MethodPost, "/answers/import", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%q: expected status 400, got %d", body, w.Code)
			continue
		}
		var resp ErrorResponse
		_ = json.NewDecoder(w.Body).Decode(&resp)
		if resp.Code != "MALFORMED_IMPORT" {
			t.Errorf("%q: expected MALFORMED_IMPORT, got %s", body, resp.Code)
		}
	}

	after, _ := h.answers.ExportJSON()
	if !bytes.Equal(before, after) {
		t.Errorf("state changed after malformed import:\n%s\n%s", before, after)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, router := setupTestHandler(t)

	doJSON(t, router, http.MethodPost, "/search", SearchRequest{Query: "consent"})
	w := doJSON(t, router, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "studybank_search_total") {
		t.Error("expected search counter in metrics output")
	}
}
