package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	qdrant "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/socdesk/playbook-rag/config"
	"github.com/socdesk/playbook-rag/internal/ingest"
	"github.com/socdesk/playbook-rag/internal/observability"
	"github.com/socdesk/playbook-rag/services/embedding"
)

const upsertBatchSize = 100

func main() {
	playbooksDir := flag.String("playbooks", "./playbooks", "directory containing playbook PDFs")
	recreate := flag.Bool("recreate", false, "drop and recreate the collection before indexing")
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	conn, err := grpc.NewClient(cfg.VectorIndex.Address(),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Fatal("failed to connect to vector index", zap.Error(err))
	}
	defer conn.Close()

	collectionsClient := qdrant.NewCollectionsClient(conn)
	pointsClient := qdrant.NewPointsClient(conn)

	embedder, err := embedding.NewOllamaEmbedder(
		cfg.Embedding.Host, cfg.Embedding.Model, cfg.Embedding.Timeout, logger)
	if err != nil {
		logger.Fatal("failed to create embedder", zap.Error(err))
	}

	if err := setupCollection(ctx, collectionsClient, cfg.VectorIndex.Collection,
		cfg.VectorIndex.Dimension, *recreate, logger); err != nil {
		logger.Fatal("failed to set up collection", zap.Error(err))
	}

	indexed, err := indexPlaybooks(ctx, embedder, pointsClient, cfg.VectorIndex.Collection,
		*playbooksDir, logger)
	if err != nil {
		logger.Fatal("indexing failed", zap.Error(err))
	}

	logger.Info("indexing complete", zap.Int("points", indexed))
}

func setupCollection(ctx context.Context, client qdrant.CollectionsClient,
	collection string, dimension int, recreate bool, logger *zap.Logger) error {

	collections, err := client.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	exists := false
	for _, col := range collections.GetCollections() {
		if col.GetName() == collection {
			exists = true
			break
		}
	}

	if exists && recreate {
		logger.Info("deleting existing collection", zap.String("collection", collection))
		if _, err := client.Delete(ctx, &qdrant.DeleteCollection{
			CollectionName: collection,
		}); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
		exists = false
	}

	if !exists {
		logger.Info("creating collection",
			zap.String("collection", collection),
			zap.Int("dimension", dimension))
		if _, err := client.Create(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: &qdrant.VectorsConfig{
				Config: &qdrant.VectorsConfig_Params{
					Params: &qdrant.VectorParams{
						Size:     uint64(dimension),
						Distance: qdrant.Distance_Cosine,
					},
				},
			},
		}); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
	}

	return nil
}

func indexPlaybooks(ctx context.Context, embedder embedding.Embedder,
	pointsClient qdrant.PointsClient, collection, dir string, logger *zap.Logger) (int, error) {

	files, err := findPDFs(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to find playbook files: %w", err)
	}
	logger.Info("found playbook files", zap.Int("count", len(files)))

	var batch []*qdrant.PointStruct
	var totalPoints int

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := pointsClient.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         batch,
		}); err != nil {
			return fmt.Errorf("failed to upsert points: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for _, path := range files {
		docID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		incidentType := incidentTypeFromDocID(docID)

		text, err := ingest.ExtractText(path)
		if err != nil {
			logger.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			continue
		}

		chunks := ingest.SplitIntoChunks(text)
		logger.Info("processing playbook",
			zap.String("doc_id", docID),
			zap.String("incident_type", incidentType),
			zap.Int("chunks", len(chunks)))

		for _, chunk := range chunks {
			vector, err := embedder.Embed(ctx, chunk.Content)
			if err != nil {
				return totalPoints, fmt.Errorf("failed to embed chunk from %s: %w", docID, err)
			}

			data := make([]float32, len(vector))
			for i, v := range vector {
				data[i] = float32(v)
			}

			totalPoints++
			batch = append(batch, &qdrant.PointStruct{
				Id: &qdrant.PointId{
					PointIdOptions: &qdrant.PointId_Num{Num: uint64(totalPoints)},
				},
				Vectors: &qdrant.Vectors{
					VectorsOptions: &qdrant.Vectors_Vector{
						Vector: &qdrant.Vector{Data: data},
					},
				},
				Payload: map[string]*qdrant.Value{
					"content":       {Kind: &qdrant.Value_StringValue{StringValue: chunk.Content}},
					"section":       {Kind: &qdrant.Value_StringValue{StringValue: chunk.Section}},
					"doc_id":        {Kind: &qdrant.Value_StringValue{StringValue: docID}},
					"incident_type": {Kind: &qdrant.Value_StringValue{StringValue: incidentType}},
				},
			})

			if len(batch) >= upsertBatchSize {
				if err := flush(); err != nil {
					return totalPoints, err
				}
			}
		}
	}

	if err := flush(); err != nil {
		return totalPoints, err
	}
	return totalPoints, nil
}

func findPDFs(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// incidentTypeFromDocID derives the incident category from a playbook
// filename such as "phishing_response_playbook".
func incidentTypeFromDocID(docID string) string {
	name := strings.ToLower(docID)
	for _, suffix := range []string{"_response_playbook", "_playbook", "_response"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}
