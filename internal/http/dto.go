// Package httpapi provides HTTP handlers and data transfer objects for the study bank API.
package httpapi

import "github.com/dsjohal14/studybank/internal/scope/bank"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Questions int    `json:"questions"`
	Answers   int    `json:"answers"`
}

// ModulesResponse lists the modules of the bank
type ModulesResponse struct {
	Modules []string `json:"modules"`
}

// SearchRequest carries the full query context of the caller
type SearchRequest struct {
	Query    string `json:"query"`
	Type     string `json:"type,omitempty"`
	Module   string `json:"module,omitempty"`
	ActiveID string `json:"active_id,omitempty"`
	Select   string `json:"select,omitempty"` // id the user picked, if any
}

// SearchResult is one row of the result list
type SearchResult struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Module    string    `json:"module,omitempty"`
	Type      bank.Type `json:"type"`
	TypeLabel string    `json:"type_label"`
	Heading   string    `json:"heading"`
	Preview   string    `json:"preview"`
	Score     float64   `json:"score"`
}

// SearchResponse represents search results and the reconciled selection
type SearchResponse struct {
	Results       []SearchResult `json:"results"`
	Count         int            `json:"count"`
	Total         int            `json:"total"`
	Query         string         `json:"query"`
	ActiveID      string         `json:"active_id,omitempty"`
	ActiveChanged bool           `json:"active_changed"`
	Suggestions   []string       `json:"suggestions,omitempty"` // for an unknown module
}

// QuestionDetail is the detail view of one question
type QuestionDetail struct {
	bank.Question
	MyAnswer        string   `json:"myAnswer"` // resolved answer, "" once cleared
	TypeLabel       string   `json:"type_label"`
	Sources         []string `json:"sources"`
	AnswerUpdatedAt string   `json:"answer_updated_at,omitempty"`
}

// AnswerRequest is the body of PUT /answers/{id}
type AnswerRequest struct {
	MyAnswer string `json:"myAnswer"`
}

// AnswerResponse is the stored record for one question
type AnswerResponse struct {
	ID        string `json:"id"`
	MyAnswer  string `json:"myAnswer"`
	UpdatedAt string `json:"updatedAt"`
}

// ImportResponse reports a merge import
type ImportResponse struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
}

// ErrorResponse represents API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
