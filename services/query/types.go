package query

import "time"

// QueryRequest is the request body for submitting a question. RequestID
// lets the caller pick the tracking identifier; the server generates a
// UUID when it is absent.
type QueryRequest struct {
	Text      string `json:"text" validate:"required"`
	TopK      int    `json:"top_k,omitempty" validate:"omitempty,gte=0"`
	RequestID string `json:"request_id,omitempty" validate:"omitempty,max=128"`
}

// QueryResponse is the synchronous pipeline result returned to the
// caller. Contexts and scores are index-aligned.
type QueryResponse struct {
	RequestID       string    `json:"request_id"`
	Status          string    `json:"status"`
	FinalAnswer     string    `json:"final_answer"`
	ContextsUsed    []string  `json:"contexts_used"`
	RelevanceScores []float64 `json:"relevance_scores"`
	Model           string    `json:"model"`
	Timestamp       time.Time `json:"timestamp"`
}
