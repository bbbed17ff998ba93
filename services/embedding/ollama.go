package embedding

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/socdesk/playbook-rag/services"
	"go.uber.org/zap"
)

// Embedder converts text into a fixed-dimension vector via an external
// embedding provider. Implementations are stateless and idempotent per
// call; retry decisions belong to the caller.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// OllamaEmbedder generates embeddings using the Ollama API
type OllamaEmbedder struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOllamaEmbedder creates a new Ollama-backed embedder
func NewOllamaEmbedder(host, model string, timeout time.Duration, logger *zap.Logger) (*OllamaEmbedder, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeValidation, "invalid embedding host URL", err)
	}

	return &OllamaEmbedder{
		client:  api.NewClient(hostURL, http.DefaultClient),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Embed generates an embedding for the given text.
// Blank input is rejected before any outbound call.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, services.ErrEmptyQuery
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := api.EmbeddingRequest{
		Model:  e.model,
		Prompt: text,
	}

	resp, err := e.client.Embeddings(ctx, &req)
	if err != nil {
		e.logger.Warn("embedding request failed",
			zap.String("model", e.model),
			zap.Error(err))
		return nil, classifyEmbeddingError(err)
	}

	if len(resp.Embedding) == 0 {
		e.logger.Error("embedding provider returned an empty vector",
			zap.String("model", e.model))
		return nil, services.ErrEmptyEmbedding
	}

	return resp.Embedding, nil
}

// classifyEmbeddingError maps transport failures onto the upstream error
// taxonomy: deadline expiry is a timeout, everything else on the wire is
// unavailability.
func classifyEmbeddingError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.NewDomainError(services.ErrorTypeTimeout, "embedding provider timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.NewDomainError(services.ErrorTypeTimeout, "embedding provider timed out", err)
	}
	return services.NewDomainError(services.ErrorTypeUnavailable, "embedding provider unavailable", err)
}
