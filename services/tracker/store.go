package tracker

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/socdesk/playbook-rag/models"
	"github.com/socdesk/playbook-rag/services"
)

// Store keeps in-flight and finished query records in memory. Finished
// records are evicted after their TTL so the store does not grow
// without bound.
type Store struct {
	mu      sync.Mutex
	records map[string]*models.QueryRecord
	ttl     time.Duration
	logger  *zap.Logger
}

// Stats summarizes the store contents by status.
type Stats struct {
	Active    int `json:"active_requests"`
	Completed int `json:"completed_requests"`
	Failed    int `json:"failed_requests"`
}

// NewStore creates an empty tracker store with the given retention TTL.
func NewStore(ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		records: make(map[string]*models.QueryRecord),
		ttl:     ttl,
		logger:  logger,
	}
}

// Create registers a new record in the processing state and returns it.
// A blank id gets a generated UUID; a caller-supplied id must not
// collide with a live record.
func (s *Store) Create(id string) (*models.QueryRecord, error) {
	record := models.NewQueryRecord()
	if id != "" {
		record.ID = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return nil, services.ErrDuplicateRequest
	}
	s.records[record.ID] = record
	return record, nil
}

// GetStatus returns a snapshot of the record with the given ID.
func (s *Store) GetStatus(id string) (*models.QueryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[id]
	if !exists {
		return nil, services.ErrRequestNotFound
	}

	snapshot := *record
	return &snapshot, nil
}

// MarkCompleted transitions the record to completed and attaches the
// answer. Terminal records cannot transition again.
func (s *Store) MarkCompleted(id string, answer *models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[id]
	if !exists {
		return services.ErrRequestNotFound
	}
	if record.Status.IsTerminal() {
		return services.ErrTerminalState
	}

	record.MarkAsCompleted(answer)
	return nil
}

// MarkFailed transitions the record to failed and records the error
// type and message. Terminal records cannot transition again.
func (s *Store) MarkFailed(id, errorType, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[id]
	if !exists {
		return services.ErrRequestNotFound
	}
	if record.Status.IsTerminal() {
		return services.ErrTerminalState
	}

	record.MarkAsFailed(errorType, errorMessage)
	return nil
}

// GetStats returns current record counts by status.
func (s *Store) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats Stats
	for _, record := range s.records {
		switch record.Status {
		case models.QueryStatusProcessing:
			stats.Active++
		case models.QueryStatusCompleted:
			stats.Completed++
		case models.QueryStatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// CleanupExpired removes terminal records older than the TTL and
// returns how many were evicted. Records still processing are never
// evicted.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, record := range s.records {
		if !record.Status.IsTerminal() || record.CompletedAt == nil {
			continue
		}
		if now.Sub(*record.CompletedAt) > s.ttl {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

// StartCleanupWorker evicts expired records on the given interval until
// stopCh is closed.
func (s *Store) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.CleanupExpired(); removed > 0 {
				s.logger.Debug("evicted expired query records",
					zap.Int("removed", removed))
			}
		case <-stopCh:
			return
		}
	}
}
