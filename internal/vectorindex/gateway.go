// Package vectorindex stores and searches document chunks in a Qdrant
// collection. Per-document replacement is delete-then-insert so the
// collection never keeps stale chunks of a re-synced document.
package vectorindex

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/avelichko/docsbot/pkg/logging"
)

const (
	payloadText       = "text"
	payloadDocID      = "doc_id"
	payloadChunkIndex = "chunk_index"
	payloadChunkKey   = "chunk_key"
)

// pointsNamespace seeds the deterministic point IDs. Qdrant only accepts
// UUID or integer IDs, so the logical key "{doc_id}-{index}" is hashed
// into a UUIDv5; re-syncing a document regenerates identical IDs.
var pointsNamespace = uuid.MustParse("7b9cf3a2-51d4-4f45-9a3c-2e8b6f0d1c55")

// ChunkMeta is the payload stored next to each chunk.
type ChunkMeta struct {
	DocID      string
	ChunkIndex int
}

// pointsAPI is the slice of the qdrant client the gateway needs;
// *qdrant.Client satisfies it.
type pointsAPI interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Delete(ctx context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

type Gateway struct {
	client     pointsAPI
	collection string
	dimension  uint64
	logger     *logging.Logger

	mu      sync.Mutex
	ensured bool
}

// Config carries the connection settings for the Qdrant gRPC endpoint.
type Config struct {
	Host       string
	Port       int
	UseTLS     bool
	Collection string
	Dimension  int
}

// New dials Qdrant and returns a gateway bound to cfg.Collection. The
// collection itself is created lazily on first use.
func New(cfg Config) (*Gateway, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return newGateway(client, cfg.Collection, cfg.Dimension), nil
}

func newGateway(client pointsAPI, collection string, dimension int) *Gateway {
	return &Gateway{
		client:     client,
		collection: collection,
		dimension:  uint64(dimension),
		logger:     logging.NewLogger("vectorindex"),
	}
}

// ReplaceDocument atomically swaps the stored chunk set of docID:
// existing points matching the id are deleted, then the new chunks are
// inserted with a waited upsert. An empty texts slice is a logged no-op.
// When metadata is nil, defaults of {doc_id, chunk_index: i} are used.
func (g *Gateway) ReplaceDocument(ctx context.Context, docID string, texts []string, vectors [][]float32, metadata []ChunkMeta) error {
	if len(texts) == 0 {
		g.logger.Warn("empty chunk set, skipping replace", "doc_id", docID)
		return nil
	}
	if len(texts) != len(vectors) {
		return fmt.Errorf("vectorindex: got %d texts but %d vectors for %s", len(texts), len(vectors), docID)
	}
	if metadata == nil {
		metadata = make([]ChunkMeta, len(texts))
		for i := range metadata {
			metadata[i] = ChunkMeta{DocID: docID, ChunkIndex: i}
		}
	}
	if len(metadata) != len(texts) {
		return fmt.Errorf("vectorindex: got %d texts but %d metadata entries for %s", len(texts), len(metadata), docID)
	}

	if err := g.ensureCollection(ctx); err != nil {
		return err
	}

	g.logger.Debug("deleting existing points", "doc_id", docID)
	if err := g.deleteByDocID(ctx, docID); err != nil {
		return fmt.Errorf("delete existing points for %s: %w", docID, err)
	}

	points := make([]*qdrant.PointStruct, len(texts))
	for i, text := range texts {
		key := fmt.Sprintf("%s-%d", docID, i)
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(key)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadText:       text,
				payloadDocID:      metadata[i].DocID,
				payloadChunkIndex: int64(metadata[i].ChunkIndex),
				payloadChunkKey:   key,
			}),
		}
	}

	g.logger.Debug("inserting chunks", "doc_id", docID, "count", len(points))
	_, err := g.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: g.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upsert points for %s: %w", docID, err)
	}
	return nil
}

// DeleteDocument removes every point of docID; deleting a document with
// no points is safe.
func (g *Gateway) DeleteDocument(ctx context.Context, docID string) error {
	if err := g.ensureCollection(ctx); err != nil {
		return err
	}
	g.logger.Debug("deleting document", "doc_id", docID)
	if err := g.deleteByDocID(ctx, docID); err != nil {
		return fmt.Errorf("delete points for %s: %w", docID, err)
	}
	return nil
}

// Query runs a nearest-neighbor search and returns the matching chunk
// texts as one ordered group per query (a single query vector yields a
// single group).
func (g *Gateway) Query(ctx context.Context, vector []float32, limit int) ([][]string, error) {
	if err := g.ensureCollection(ctx); err != nil {
		return nil, err
	}

	hits, err := g.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: g.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", g.collection, err)
	}

	group := make([]string, 0, len(hits))
	for _, hit := range hits {
		group = append(group, hit.Payload[payloadText].GetStringValue())
	}
	return [][]string{group}, nil
}

func (g *Gateway) deleteByDocID(ctx context.Context, docID string) error {
	_, err := g.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: g.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch(payloadDocID, docID)},
		}),
		Wait: qdrant.PtrOf(true),
	})
	return err
}

// ensureCollection creates the collection on first use and remembers
// the outcome for the lifetime of the gateway.
func (g *Gateway) ensureCollection(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ensured {
		return nil
	}

	exists, err := g.client.CollectionExists(ctx, g.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", g.collection, err)
	}
	if !exists {
		g.logger.Info("creating collection", "collection", g.collection, "dimension", g.dimension)
		err = g.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: g.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     g.dimension,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("create collection %s: %w", g.collection, err)
		}
	}
	g.ensured = true
	return nil
}

func pointID(key string) string {
	return uuid.NewSHA1(pointsNamespace, []byte(key)).String()
}
