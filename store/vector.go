package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const (
	CollectionChatMessages     = "chat_messages"
	CollectionMedicalDocuments = "medical_documents"
)

// Collection is an opaque handle to one logical vector partition.
type Collection struct {
	Name  string
	table string
}

// VectorMatch is one raw nearest-neighbor hit, distance ascending.
type VectorMatch struct {
	ID       string
	Document string
	Metadata map[string]any
	Distance float64
}

// VectorStorer exposes the vector store as add/query/delete/count over named
// collections with equality-map metadata filters.
type VectorStorer interface {
	GetOrCreate(ctx context.Context, name, description string) (*Collection, error)
	Add(ctx context.Context, col *Collection, ids []string, vectors [][]float32, documents []string, metadatas []map[string]any) error
	Query(ctx context.Context, col *Collection, vector []float32, topK int, filter map[string]any) ([]VectorMatch, error)
	DeleteByFilter(ctx context.Context, col *Collection, filter map[string]any) error
	Count(ctx context.Context, col *Collection) (int, error)
}

// VectorStoreError wraps any failure of the vector store. The pipeline policy
// is degrade-and-continue: a failed search becomes an empty result set, a
// failed add/delete is logged and dropped.
type VectorStoreError struct {
	Op  string
	Err error
}

func (e *VectorStoreError) Error() string {
	return fmt.Sprintf("vector store %s failed: %v", e.Op, e.Err)
}

func (e *VectorStoreError) Unwrap() error {
	return e.Err
}

var collectionNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// PgVectorStore keeps each logical collection in its own Postgres table with
// a pgvector embedding column and a jsonb metadata column.
type PgVectorStore struct {
	pool *pgxpool.Pool
	dim  int

	mu      sync.Mutex
	created map[string]*Collection
}

func NewPgVectorStore(pool *pgxpool.Pool, dim int) *PgVectorStore {
	return &PgVectorStore{
		pool:    pool,
		dim:     dim,
		created: make(map[string]*Collection),
	}
}

// GetOrCreate returns the handle for a named collection, creating its table
// on first use. Safe to call repeatedly.
func (s *PgVectorStore) GetOrCreate(ctx context.Context, name, description string) (*Collection, error) {
	s.mu.Lock()
	if col, ok := s.created[name]; ok {
		s.mu.Unlock()
		return col, nil
	}
	s.mu.Unlock()

	if !collectionNameRe.MatchString(name) {
		return nil, &VectorStoreError{Op: "getOrCreate", Err: fmt.Errorf("invalid collection name %q", name)}
	}
	table := "vec_" + name

	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS vector_collections (
		name TEXT PRIMARY KEY,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS %[1]s (
		id TEXT PRIMARY KEY,
		embedding vector(%[2]d) NOT NULL,
		content TEXT NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}'::jsonb
	);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_embedding ON %[1]s USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_metadata ON %[1]s USING gin (metadata);
	`, table, s.dim)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return nil, &VectorStoreError{Op: "getOrCreate", Err: err}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO vector_collections (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, description)
	if err != nil {
		return nil, &VectorStoreError{Op: "getOrCreate", Err: err}
	}

	col := &Collection{Name: name, table: table}
	s.mu.Lock()
	s.created[name] = col
	s.mu.Unlock()
	return col, nil
}

// Add upserts chunks; ids, vectors, documents and metadatas run in parallel.
func (s *PgVectorStore) Add(ctx context.Context, col *Collection, ids []string, vectors [][]float32, documents []string, metadatas []map[string]any) error {
	if len(ids) != len(vectors) || len(ids) != len(documents) || len(ids) != len(metadatas) {
		return &VectorStoreError{Op: "add", Err: fmt.Errorf("mismatched lengths: %d ids, %d vectors, %d documents, %d metadatas",
			len(ids), len(vectors), len(documents), len(metadatas))}
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (id, embedding, content, metadata) VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		embedding = EXCLUDED.embedding,
		content = EXCLUDED.content,
		metadata = EXCLUDED.metadata
	`, col.table)

	for i := range ids {
		meta, err := json.Marshal(metadatas[i])
		if err != nil {
			return &VectorStoreError{Op: "add", Err: err}
		}
		if _, err := s.pool.Exec(ctx, query, ids[i], pgvector.NewVector(vectors[i]), documents[i], meta); err != nil {
			return &VectorStoreError{Op: "add", Err: err}
		}
	}
	return nil
}

// Query returns up to topK matches by cosine distance, restricted to chunks
// whose metadata contains every key/value in filter.
func (s *PgVectorStore) Query(ctx context.Context, col *Collection, vector []float32, topK int, filter map[string]any) ([]VectorMatch, error) {
	if len(vector) == 0 {
		return nil, &VectorStoreError{Op: "query", Err: fmt.Errorf("empty query vector")}
	}

	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, &VectorStoreError{Op: "query", Err: err}
	}

	query := fmt.Sprintf(`
	SELECT id, content, metadata, embedding <=> $1 AS distance
	FROM %s
	WHERE metadata @> $2
	ORDER BY embedding <=> $1
	LIMIT $3
	`, col.table)

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(vector), filterJSON, topK)
	if err != nil {
		return nil, &VectorStoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	var matches []VectorMatch
	for rows.Next() {
		var m VectorMatch
		var meta []byte
		if err := rows.Scan(&m.ID, &m.Document, &meta, &m.Distance); err != nil {
			return nil, &VectorStoreError{Op: "query", Err: err}
		}
		if err := json.Unmarshal(meta, &m.Metadata); err != nil {
			return nil, &VectorStoreError{Op: "query", Err: err}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &VectorStoreError{Op: "query", Err: err}
	}
	return matches, nil
}

// DeleteByFilter removes every chunk matching the filter. Deleting nothing is
// not an error.
func (s *PgVectorStore) DeleteByFilter(ctx context.Context, col *Collection, filter map[string]any) error {
	if len(filter) == 0 {
		return &VectorStoreError{Op: "delete", Err: fmt.Errorf("refusing to delete with empty filter")}
	}

	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return &VectorStoreError{Op: "delete", Err: err}
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE metadata @> $1`, col.table)
	if _, err := s.pool.Exec(ctx, query, filterJSON); err != nil {
		return &VectorStoreError{Op: "delete", Err: err}
	}
	return nil
}

func (s *PgVectorStore) Count(ctx context.Context, col *Collection) (int, error) {
	var count int
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, col.table)
	if err := s.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, &VectorStoreError{Op: "count", Err: err}
	}
	return count, nil
}
