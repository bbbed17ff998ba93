package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/socdesk/playbook-rag/config"
	"github.com/socdesk/playbook-rag/models"
	"github.com/socdesk/playbook-rag/services"
	"github.com/socdesk/playbook-rag/services/embedding"
	"github.com/socdesk/playbook-rag/services/prompt"
	"github.com/socdesk/playbook-rag/services/providers"
	"github.com/socdesk/playbook-rag/services/retrieval"
	"github.com/socdesk/playbook-rag/services/tracker"
)

// NoContextAnswer is returned when retrieval finds nothing above the
// relevance threshold. This outcome is a completed answer, not an error.
const NoContextAnswer = "No relevant context found in knowledge base. " +
	"Please refine your query or check if the information exists in the database."

// Service orchestrates the retrieval-augmented answer pipeline.
type Service struct {
	embedder   embedding.Embedder
	searcher   retrieval.Searcher
	registry   *providers.Registry
	tracker    *tracker.Store
	pipeline   config.PipelineConfig
	generation config.GenerationConfig
	logger     *zap.Logger
}

// NewService creates a pipeline service with all collaborators wired.
func NewService(
	embedder embedding.Embedder,
	searcher retrieval.Searcher,
	registry *providers.Registry,
	store *tracker.Store,
	pipeline config.PipelineConfig,
	generation config.GenerationConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		embedder:   embedder,
		searcher:   searcher,
		registry:   registry,
		tracker:    store,
		pipeline:   pipeline,
		generation: generation,
		logger:     logger,
	}
}

// ProcessQuery runs the full pipeline for one question and returns the
// synchronous result. Every accepted request gets a tracked record that
// ends in a terminal state, success or failure.
func (s *Service) ProcessQuery(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	// Step 1: Validate before any upstream work
	if strings.TrimSpace(req.Text) == "" {
		return nil, services.ErrEmptyQuery
	}
	if req.TopK < 0 {
		return nil, services.ErrInvalidTopK
	}

	topK := retrieval.ClampTopK(req.TopK, s.pipeline.DefaultTopK, s.pipeline.MaxTopK)

	// Step 2: Register the request for status tracking
	record, err := s.tracker.Create(strings.TrimSpace(req.RequestID))
	if err != nil {
		return nil, err
	}
	logger := s.logger.With(zap.String("request_id", record.ID))
	logger.Debug("query accepted",
		zap.Int("top_k", topK),
		zap.Int("text_chars", len(req.Text)))

	// Step 3: Embed the question
	vector, err := s.embedder.Embed(ctx, req.Text)
	if err != nil {
		return nil, s.fail(record.ID, logger, "embedding", err)
	}
	logger.Debug("question embedded", zap.Int("dimension", len(vector)))

	// Step 4: Nearest-neighbor search
	matches, err := s.searcher.Search(ctx, vector, topK)
	if err != nil {
		return nil, s.fail(record.ID, logger, "retrieval", err)
	}
	logger.Debug("index searched", zap.Int("matches", len(matches)))

	// Step 5: Relevance filter and context assembly
	relevant := retrieval.FilterByScore(matches, s.pipeline.RelevanceThreshold)
	assembled := prompt.Assemble(relevant, s.pipeline.MaxContextDocs, s.pipeline.MaxCharsPerDoc)
	logger.Debug("context assembled",
		zap.Int("relevant", len(relevant)),
		zap.Int("contexts", len(assembled.Contexts)))

	if assembled.Empty() {
		answer := &models.Answer{
			FinalAnswer:     NoContextAnswer,
			ContextsUsed:    []string{},
			RelevanceScores: []float64{},
			Model:           s.generation.Model,
			Timestamp:       time.Now(),
		}
		if err := s.tracker.MarkCompleted(record.ID, answer); err != nil {
			logger.Error("failed to record completion", zap.Error(err))
			return nil, s.withRequestID(record.ID, err)
		}
		logger.Debug("no relevant context, returning fallback answer")
		return s.buildResponse(record.ID, answer), nil
	}

	// Step 6: Grounded generation
	provider, err := s.registry.Get(s.generation.Backend)
	if err != nil {
		return nil, s.fail(record.ID, logger, "provider lookup",
			services.WrapInternal("generation backend not registered", err))
	}

	result, err := provider.Generate(ctx, providers.GenerateRequest{
		Prompt:          prompt.BuildPrompt(assembled.Text, req.Text),
		Model:           s.generation.Model,
		Temperature:     s.generation.Temperature,
		MaxOutputTokens: s.generation.MaxOutputTokens,
	})
	if err != nil {
		return nil, s.fail(record.ID, logger, "generation", err)
	}

	// Step 7: Record the terminal result
	answer := &models.Answer{
		FinalAnswer:     result.Text,
		ContextsUsed:    assembled.Contexts,
		RelevanceScores: assembled.Scores,
		Model:           result.Model,
		Timestamp:       time.Now(),
	}
	if err := s.tracker.MarkCompleted(record.ID, answer); err != nil {
		logger.Error("failed to record completion", zap.Error(err))
		return nil, s.withRequestID(record.ID, err)
	}

	logger.Debug("query completed",
		zap.Int("contexts_used", len(answer.ContextsUsed)),
		zap.String("model", answer.Model))

	return s.buildResponse(record.ID, answer), nil
}

// GetRequestStatus returns the tracked record for a request ID.
func (s *Service) GetRequestStatus(id string) (*models.QueryRecord, error) {
	return s.tracker.GetStatus(id)
}

// GetTrackerStats exposes record counts for the health endpoint.
func (s *Service) GetTrackerStats() tracker.Stats {
	return s.tracker.GetStats()
}

// fail records the terminal failure and returns an error carrying the
// request ID, so callers can still look the record up afterwards.
func (s *Service) fail(recordID string, logger *zap.Logger, stage string, err error) error {
	logger.Warn("pipeline stage failed",
		zap.String("stage", stage),
		zap.Error(err))

	errType := string(services.GetErrorType(err))
	if errType == "" {
		errType = string(services.ErrorTypeInternal)
	}
	if markErr := s.tracker.MarkFailed(recordID, errType, err.Error()); markErr != nil {
		logger.Error("failed to mark record as failed", zap.Error(markErr))
	}
	return s.withRequestID(recordID, err)
}

// withRequestID rebuilds the error with the request ID in its details,
// without touching the shared sentinel the error may have started from.
func (s *Service) withRequestID(recordID string, err error) error {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		out := services.NewDomainError(domainErr.Type, domainErr.Message, domainErr.Err)
		for k, v := range domainErr.Details {
			out = out.WithDetail(k, v)
		}
		return out.WithDetail("request_id", recordID)
	}
	return services.NewDomainError(services.ErrorTypeInternal, "query pipeline failed", err).
		WithDetail("request_id", recordID)
}

func (s *Service) buildResponse(recordID string, answer *models.Answer) *QueryResponse {
	return &QueryResponse{
		RequestID:       recordID,
		Status:          string(models.QueryStatusCompleted),
		FinalAnswer:     answer.FinalAnswer,
		ContextsUsed:    answer.ContextsUsed,
		RelevanceScores: answer.RelevanceScores,
		Model:           answer.Model,
		Timestamp:       answer.Timestamp,
	}
}
