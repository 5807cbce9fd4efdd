package models

import (
	"time"

	"github.com/tcgwatch/pricewatch/pricewatch/aggregator"
	dbmodels "github.com/tcgwatch/pricewatch/pricewatch/database/models"
	"github.com/tcgwatch/pricewatch/pricewatch/ingest"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     *APIError `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// APIError describes what went wrong. Code is a stable machine-readable
// identifier; Message is safe to show to a user.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func NewErrorResponse(code, message string, details map[string]string) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now(),
	}
}

// ScrapeRequest is the body of POST /api/scrape.
type ScrapeRequest struct {
	Query     string `json:"query"`
	SetName   string `json:"setName"`
	SetNumber string `json:"setNumber"`
}

type ScrapeResponse struct {
	Message string                `json:"message"`
	Results []ingest.ScrapeResult `json:"results"`
}

type JobResponse struct {
	RunID   string `json:"runId,omitempty"`
	Message string `json:"message"`
	Updated int    `json:"updated"`
	Total   int    `json:"total"`
}

// SourceView joins a persisted source with the live state of its provider,
// when one is registered.
type SourceView struct {
	*dbmodels.Source
	Provider *aggregator.ProviderStatus `json:"provider,omitempty"`
}

type PriceHistoryResponse struct {
	CardID  int64                      `json:"cardId"`
	Days    int                        `json:"days"`
	Records []dbmodels.PriceRecordView `json:"records"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}
