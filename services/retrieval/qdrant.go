package retrieval

import (
	"context"
	"errors"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/socdesk/playbook-rag/services"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Searcher queries an external vector index for the k nearest neighbors
// of a vector, with chunk metadata attached to each match. Results are
// returned in the index's own descending-score order.
type Searcher interface {
	Search(ctx context.Context, vector []float64, limit int) ([]Match, error)
}

// QdrantSearcher queries a qdrant collection over gRPC
type QdrantSearcher struct {
	points     qdrant.PointsClient
	collection string
	dimension  int
	timeout    time.Duration
	logger     *zap.Logger
}

// NewQdrantSearcher connects to qdrant and returns a searcher bound to
// one collection. The returned close function releases the connection.
func NewQdrantSearcher(addr, collection string, dimension int, timeout time.Duration, logger *zap.Logger) (*QdrantSearcher, func() error, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, services.WrapUnavailable("failed to connect to vector index", err)
	}

	searcher := &QdrantSearcher{
		points:     qdrant.NewPointsClient(conn),
		collection: collection,
		dimension:  dimension,
		timeout:    timeout,
		logger:     logger,
	}
	return searcher, conn.Close, nil
}

// Search returns up to limit matches for the vector, ordered by the
// index's descending similarity score. The limit is assumed to be
// clamped by the caller; the dimension invariant is enforced here
// because a mismatch is a client-side contract violation, not a
// retryable upstream fault.
func (s *QdrantSearcher) Search(ctx context.Context, vector []float64, limit int) ([]Match, error) {
	if len(vector) != s.dimension {
		return nil, services.NewDomainError(services.ErrorTypeProtocol,
			"embedding dimension does not match index dimension", nil).
			WithDetail("expected", s.dimension).
			WithDetail("got", len(vector))
	}

	query := make([]float32, len(vector))
	for i, v := range vector {
		query[i] = float32(v)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         query,
		Limit:          uint64(limit),
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Include{
				Include: &qdrant.PayloadIncludeSelector{
					Fields: []string{FieldContent, FieldText, FieldSection, FieldDocID, FieldIncidentType},
				},
			},
		},
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		s.logger.Warn("vector index search failed",
			zap.String("collection", s.collection),
			zap.Int("limit", limit),
			zap.Error(err))
		return nil, classifySearchError(err)
	}

	matches := make([]Match, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		metadata := make(map[string]string, len(point.GetPayload()))
		for key, value := range point.GetPayload() {
			if str := value.GetStringValue(); str != "" {
				metadata[key] = str
			}
		}
		matches = append(matches, Match{
			Score:    float64(point.GetScore()),
			Metadata: metadata,
		})
	}

	return matches, nil
}

// classifySearchError maps gRPC failures onto the upstream error taxonomy
func classifySearchError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.NewDomainError(services.ErrorTypeTimeout, "vector index query timed out", err)
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.DeadlineExceeded:
			return services.NewDomainError(services.ErrorTypeTimeout, "vector index query timed out", err)
		case codes.Unavailable:
			return services.NewDomainError(services.ErrorTypeUnavailable, "vector index unavailable", err)
		case codes.InvalidArgument, codes.NotFound:
			return services.NewDomainError(services.ErrorTypeProtocol, "vector index rejected the query", err)
		}
	}
	return services.NewDomainError(services.ErrorTypeUnavailable, "vector index unavailable", err)
}
