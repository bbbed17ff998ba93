package retrieval

// Metadata keys the playbook index attaches to every stored chunk.
const (
	FieldContent      = "content"
	FieldText         = "text"
	FieldSection      = "section"
	FieldDocID        = "doc_id"
	FieldIncidentType = "incident_type"
)

// Match is one retrieval result: a similarity score (higher = more
// relevant) and the chunk metadata stored alongside the vector.
type Match struct {
	Score    float64
	Metadata map[string]string
}

// Content returns the chunk text, falling back from the content field to
// the legacy text field. The second return is false when the match
// carries no retrievable text and must be excluded from assembly.
func (m Match) Content() (string, bool) {
	if v, ok := m.Metadata[FieldContent]; ok && v != "" {
		return v, true
	}
	if v, ok := m.Metadata[FieldText]; ok && v != "" {
		return v, true
	}
	return "", false
}
