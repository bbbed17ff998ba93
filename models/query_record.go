package models

import (
	"time"

	"github.com/google/uuid"
)

// QueryStatus represents the lifecycle state of a query request
type QueryStatus string

const (
	QueryStatusProcessing QueryStatus = "processing"
	QueryStatusCompleted  QueryStatus = "completed"
	QueryStatusFailed     QueryStatus = "failed"
)

// IsTerminal reports whether the status permits no further transitions
func (s QueryStatus) IsTerminal() bool {
	return s == QueryStatusCompleted || s == QueryStatusFailed
}

// Answer is the generation result together with the exact contexts the
// model was shown, so the audit trail matches what the model actually saw.
type Answer struct {
	FinalAnswer     string    `json:"final_answer"`
	ContextsUsed    []string  `json:"contexts_used"`
	RelevanceScores []float64 `json:"relevance_scores"`
	Model           string    `json:"model"`
	Timestamp       time.Time `json:"timestamp"`
}

// QueryRecord tracks one query request through the pipeline.
// Records live only in process memory and are evicted by TTL.
type QueryRecord struct {
	ID           string      `json:"request_id"`
	Status       QueryStatus `json:"status"`
	Result       *Answer     `json:"result,omitempty"`
	ErrorType    string      `json:"error_type,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

// NewQueryRecord creates a record in the processing state
func NewQueryRecord() *QueryRecord {
	return &QueryRecord{
		ID:        uuid.New().String(),
		Status:    QueryStatusProcessing,
		CreatedAt: time.Now(),
	}
}

// MarkAsCompleted marks the record as completed with its answer
func (r *QueryRecord) MarkAsCompleted(answer *Answer) {
	r.Status = QueryStatusCompleted
	r.Result = answer
	now := time.Now()
	r.CompletedAt = &now
}

// MarkAsFailed marks the record as failed with the causing error kind
func (r *QueryRecord) MarkAsFailed(errorType, errorMessage string) {
	r.Status = QueryStatusFailed
	r.ErrorType = errorType
	r.ErrorMessage = errorMessage
	now := time.Now()
	r.CompletedAt = &now
}
