package providers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/socdesk/playbook-rag/services"
)

// ProviderNameOllama is the registry key for the Ollama backend.
const ProviderNameOllama = "ollama"

// OllamaProvider generates answers through a local Ollama server.
type OllamaProvider struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOllamaProvider creates a provider pointed at the given Ollama host.
func NewOllamaProvider(host, model string, timeout time.Duration, logger *zap.Logger) (*OllamaProvider, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeValidation, "invalid ollama host URL", err)
	}

	return &OllamaProvider{
		client:  api.NewClient(hostURL, http.DefaultClient),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Name implements Provider.
func (p *OllamaProvider) Name() string {
	return ProviderNameOllama
}

// Generate implements Provider. The streamed response chunks are
// accumulated into a single answer string.
func (p *OllamaProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	genCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	stream := false
	ollamaReq := &api.GenerateRequest{
		Model:  model,
		Prompt: req.Prompt,
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": req.Temperature,
			"top_p":       0.9,
			"num_predict": req.MaxOutputTokens,
		},
	}

	var answer strings.Builder
	err := p.client.Generate(genCtx, ollamaReq, func(resp api.GenerateResponse) error {
		answer.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return nil, p.classifyGenerateError(err)
	}

	text := strings.TrimSpace(answer.String())
	if text == "" {
		return nil, services.ErrEmptyGeneration
	}

	p.logger.Debug("generation completed",
		zap.String("model", model),
		zap.Int("answer_chars", len(text)))

	return &GenerateResponse{
		Text:  text,
		Model: model,
	}, nil
}

func (p *OllamaProvider) classifyGenerateError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.WrapTimeout("generation timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.WrapTimeout("generation timed out", err)
	}

	return services.WrapUnavailable("generation backend unavailable", err)
}
