package query

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/socdesk/playbook-rag/config"
	"github.com/socdesk/playbook-rag/models"
	"github.com/socdesk/playbook-rag/services"
	"github.com/socdesk/playbook-rag/services/providers"
	"github.com/socdesk/playbook-rag/services/retrieval"
	"github.com/socdesk/playbook-rag/services/tracker"
)

type stubEmbedder struct {
	calls  int
	vector []float64
	err    error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

type stubSearcher struct {
	calls     int
	lastLimit int
	matches   []retrieval.Match
	err       error
	onSearch  func()
}

func (s *stubSearcher) Search(ctx context.Context, vector []float64, limit int) ([]retrieval.Match, error) {
	s.calls++
	s.lastLimit = limit
	if s.onSearch != nil {
		s.onSearch()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.matches, nil
}

type stubGenerator struct {
	calls      int
	lastPrompt string
	text       string
	err        error
}

func (s *stubGenerator) Name() string { return "ollama" }

func (s *stubGenerator) Generate(ctx context.Context, req providers.GenerateRequest) (*providers.GenerateResponse, error) {
	s.calls++
	s.lastPrompt = req.Prompt
	if s.err != nil {
		return nil, s.err
	}
	return &providers.GenerateResponse{Text: s.text, Model: req.Model}, nil
}

type pipelineFixture struct {
	service   *Service
	embedder  *stubEmbedder
	searcher  *stubSearcher
	generator *stubGenerator
	store     *tracker.Store
}

func newFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	embedder := &stubEmbedder{vector: []float64{0.1, 0.2, 0.3}}
	searcher := &stubSearcher{
		matches: []retrieval.Match{
			{Score: 0.91, Metadata: map[string]string{retrieval.FieldContent: "isolate the host"}},
		},
	}
	generator := &stubGenerator{text: "1. Isolate the host immediately."}

	registry := providers.NewRegistry()
	require.NoError(t, registry.Register(generator))

	store := tracker.NewStore(time.Hour, zap.NewNop())

	service := NewService(embedder, searcher, registry, store,
		config.PipelineConfig{
			RelevanceThreshold: 0.7,
			DefaultTopK:        5,
			MaxTopK:            10,
			MaxContextDocs:     3,
			MaxCharsPerDoc:     500,
		},
		config.GenerationConfig{
			Backend:         "ollama",
			Model:           "llama3.2:3b",
			Temperature:     0.1,
			MaxOutputTokens: 512,
		},
		zap.NewNop())

	return &pipelineFixture{
		service:   service,
		embedder:  embedder,
		searcher:  searcher,
		generator: generator,
		store:     store,
	}
}

func TestProcessQuery_Success(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.ProcessQuery(context.Background(), QueryRequest{
		Text: "How do I contain a phishing incident?",
	})

	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, "1. Isolate the host immediately.", resp.FinalAnswer)
	assert.Equal(t, []string{"isolate the host"}, resp.ContextsUsed)
	assert.Equal(t, []float64{0.91}, resp.RelevanceScores)
	assert.Equal(t, "llama3.2:3b", resp.Model)
	assert.NotEmpty(t, resp.RequestID)

	record, err := f.store.GetStatus(resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, models.QueryStatusCompleted, record.Status)
	require.NotNil(t, record.Result)
	assert.Equal(t, resp.FinalAnswer, record.Result.FinalAnswer)
}

func TestProcessQuery_BlankText(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			resp, err := f.service.ProcessQuery(context.Background(), QueryRequest{Text: tt.text})

			assert.Nil(t, resp)
			assert.True(t, services.IsValidationError(err))
			assert.Equal(t, 0, f.embedder.calls)
			assert.Equal(t, 0, f.searcher.calls)
			assert.Equal(t, 0, f.generator.calls)

			stats := f.store.GetStats()
			assert.Equal(t, tracker.Stats{}, stats, "rejected requests are never tracked")
		})
	}
}

func TestProcessQuery_TopKClamping(t *testing.T) {
	tests := []struct {
		name          string
		topK          int
		expectedLimit int
	}{
		{"unset applies default", 0, 5},
		{"within bounds", 7, 7},
		{"above max clamps", 50, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.service.ProcessQuery(context.Background(), QueryRequest{
				Text: "containment steps",
				TopK: tt.topK,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expectedLimit, f.searcher.lastLimit)
		})
	}
}

func TestProcessQuery_CallerSuppliedRequestID(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.ProcessQuery(context.Background(), QueryRequest{
		Text:      "containment steps",
		RequestID: "client-chosen-id",
	})

	require.NoError(t, err)
	assert.Equal(t, "client-chosen-id", resp.RequestID)

	record, err := f.store.GetStatus("client-chosen-id")
	require.NoError(t, err)
	assert.Equal(t, models.QueryStatusCompleted, record.Status)
}

func TestProcessQuery_GeneratesIDWhenAbsent(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.ProcessQuery(context.Background(), QueryRequest{
		Text: "containment steps",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.RequestID)
}

func TestProcessQuery_DuplicateRequestID(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ProcessQuery(context.Background(), QueryRequest{
		Text:      "first question",
		RequestID: "client-chosen-id",
	})
	require.NoError(t, err)

	resp, err := f.service.ProcessQuery(context.Background(), QueryRequest{
		Text:      "second question",
		RequestID: "client-chosen-id",
	})

	assert.Nil(t, resp)
	assert.True(t, services.IsConflictError(err))
	assert.Equal(t, 1, f.embedder.calls, "rejected duplicate never reaches the pipeline")
}

func TestProcessQuery_CompletionOnTerminalRecord(t *testing.T) {
	f := newFixture(t)
	f.searcher.onSearch = func() {
		require.NoError(t, f.store.MarkFailed("client-chosen-id", "internal", "terminated elsewhere"))
	}

	resp, err := f.service.ProcessQuery(context.Background(), QueryRequest{
		Text:      "containment steps",
		RequestID: "client-chosen-id",
	})

	assert.Nil(t, resp)
	assert.True(t, services.IsConflictError(err))
	assert.Equal(t, "client-chosen-id", services.GetErrorDetails(err)["request_id"])

	record, getErr := f.store.GetStatus("client-chosen-id")
	require.NoError(t, getErr)
	assert.Equal(t, "terminated elsewhere", record.ErrorMessage,
		"the already-terminal record is left untouched")
}

func TestProcessQuery_NegativeTopK(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.ProcessQuery(context.Background(), QueryRequest{
		Text: "containment steps",
		TopK: -1,
	})

	assert.Nil(t, resp)
	assert.True(t, services.IsValidationError(err))
	assert.Equal(t, 0, f.embedder.calls)
}

func TestProcessQuery_NoRelevantContext(t *testing.T) {
	f := newFixture(t)
	f.searcher.matches = []retrieval.Match{
		{Score: 0.42, Metadata: map[string]string{retrieval.FieldContent: "barely related"}},
		{Score: 0.15, Metadata: map[string]string{retrieval.FieldContent: "unrelated"}},
	}

	resp, err := f.service.ProcessQuery(context.Background(), QueryRequest{
		Text: "how do I respond to a novel incident?",
	})

	require.NoError(t, err, "no relevant context is an answer, not an error")
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, NoContextAnswer, resp.FinalAnswer)
	assert.Empty(t, resp.ContextsUsed)
	assert.Empty(t, resp.RelevanceScores)
	assert.Equal(t, 0, f.generator.calls, "generation is skipped without context")

	record, err := f.store.GetStatus(resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, models.QueryStatusCompleted, record.Status)
}

func TestProcessQuery_TextlessMatchesAreNoContext(t *testing.T) {
	f := newFixture(t)
	f.searcher.matches = []retrieval.Match{
		{Score: 0.95, Metadata: map[string]string{retrieval.FieldSection: "Phase 1"}},
	}

	resp, err := f.service.ProcessQuery(context.Background(), QueryRequest{Text: "question"})

	require.NoError(t, err)
	assert.Equal(t, NoContextAnswer, resp.FinalAnswer)
	assert.Equal(t, 0, f.generator.calls)
}

func TestProcessQuery_TruncationFlowsToResponse(t *testing.T) {
	f := newFixture(t)
	f.searcher.matches = []retrieval.Match{
		{Score: 0.92, Metadata: map[string]string{retrieval.FieldContent: strings.Repeat("A", 1000)}},
		{Score: 0.5, Metadata: map[string]string{retrieval.FieldContent: "B"}},
	}

	resp, err := f.service.ProcessQuery(context.Background(), QueryRequest{Text: "question"})

	require.NoError(t, err)
	assert.Equal(t, []string{strings.Repeat("A", 500)}, resp.ContextsUsed)
	assert.Equal(t, []float64{0.92}, resp.RelevanceScores)
	assert.Contains(t, f.generator.lastPrompt, strings.Repeat("A", 500))
	assert.NotContains(t, f.generator.lastPrompt, strings.Repeat("A", 501))
}

func TestProcessQuery_PromptContainsQuestionAndContext(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ProcessQuery(context.Background(), QueryRequest{
		Text: "What are the eradication steps?",
	})

	require.NoError(t, err)
	assert.Contains(t, f.generator.lastPrompt, "USER QUESTION: What are the eradication steps?")
	assert.Contains(t, f.generator.lastPrompt, "isolate the host")
}

func TestProcessQuery_StageFailuresMarkRecordFailed(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(f *pipelineFixture)
		expectedType  string
		generatorRuns int
	}{
		{
			name: "embedding timeout",
			setup: func(f *pipelineFixture) {
				f.embedder.err = services.ErrEmbeddingTimeout
			},
			expectedType: "upstream_timeout",
		},
		{
			name: "index unavailable",
			setup: func(f *pipelineFixture) {
				f.searcher.err = services.ErrIndexUnavailable
			},
			expectedType: "upstream_unavailable",
		},
		{
			name: "generation protocol error",
			setup: func(f *pipelineFixture) {
				f.generator.err = services.ErrEmptyGeneration
			},
			expectedType:  "upstream_protocol",
			generatorRuns: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			resp, err := f.service.ProcessQuery(context.Background(), QueryRequest{Text: "question"})

			assert.Nil(t, resp)
			require.Error(t, err)
			assert.Equal(t, tt.generatorRuns, f.generator.calls)

			stats := f.store.GetStats()
			assert.Equal(t, 1, stats.Failed)

			requestID, ok := services.GetErrorDetails(err)["request_id"].(string)
			require.True(t, ok, "pipeline errors carry the request id")

			record, getErr := f.store.GetStatus(requestID)
			require.NoError(t, getErr)
			assert.Equal(t, models.QueryStatusFailed, record.Status)
			assert.Equal(t, tt.expectedType, record.ErrorType)
			assert.NotEmpty(t, record.ErrorMessage)
		})
	}
}

func TestProcessQuery_FailureErrorKeepsType(t *testing.T) {
	f := newFixture(t)
	f.embedder.err = services.ErrEmbeddingTimeout

	_, err := f.service.ProcessQuery(context.Background(), QueryRequest{Text: "question"})

	assert.True(t, services.IsTimeoutError(err))
	assert.Empty(t, services.GetErrorDetails(services.ErrEmbeddingTimeout),
		"shared sentinel must not accumulate details")
}
