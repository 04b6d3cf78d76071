package retrieval

import (
	"context"
	"log/slog"
	"sync"

	"healthmate/model"
	"healthmate/store"
	"healthmate/types"
)

const (
	chatCollectionDescription = "Embeddings for chat messages and conversation history"
	docCollectionDescription  = "Embeddings for medical documents and file content"

	defaultChatMessagesLimit = 5
	defaultMedicalDocsLimit  = 3
)

// Service runs the retrieval pipeline: embedding queries, searching both
// vector collections under a per-user filter, and indexing new content.
type Service struct {
	embedder     model.EmbedderInterface
	vectors      store.VectorStorer
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

func NewService(embedder model.EmbedderInterface, vectors store.VectorStorer, chunkSize, chunkOverlap int) *Service {
	return &Service{
		embedder:     embedder,
		vectors:      vectors,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       slog.Default(),
	}
}

// InitCollections creates both collections up front. Callers are expected to
// log and continue on failure: the store also creates collections lazily, so
// an unreachable vector store at startup only degrades retrieval.
func (s *Service) InitCollections(ctx context.Context) error {
	if _, err := s.vectors.GetOrCreate(ctx, store.CollectionChatMessages, chatCollectionDescription); err != nil {
		return err
	}
	if _, err := s.vectors.GetOrCreate(ctx, store.CollectionMedicalDocuments, docCollectionDescription); err != nil {
		return err
	}
	return nil
}

// SearchAll embeds the query once and searches both collections concurrently,
// each scoped to the user. A failed side contributes an empty slice instead
// of failing the call, so callers always get a usable (possibly degraded)
// result.
func (s *Service) SearchAll(ctx context.Context, query, userID string, opts types.SearchOptions) *types.SearchResults {
	if opts.ChatMessagesLimit <= 0 {
		opts.ChatMessagesLimit = defaultChatMessagesLimit
	}
	if opts.MedicalDocsLimit <= 0 {
		opts.MedicalDocsLimit = defaultMedicalDocsLimit
	}

	results := &types.SearchResults{
		ChatMessages:     []types.SearchResult{},
		MedicalDocuments: []types.SearchResult{},
	}

	queryVec, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		s.logger.Error("query embedding failed, returning empty context", "error", err)
		return results
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		results.ChatMessages = s.searchCollection(ctx,
			store.CollectionChatMessages, chatCollectionDescription,
			queryVec, userID, opts.ChatMessagesLimit)
	}()
	go func() {
		defer wg.Done()
		results.MedicalDocuments = s.searchCollection(ctx,
			store.CollectionMedicalDocuments, docCollectionDescription,
			queryVec, userID, opts.MedicalDocsLimit)
	}()
	wg.Wait()

	results.TotalResults = len(results.ChatMessages) + len(results.MedicalDocuments)
	return results
}

// CollectionCounts reports how many chunks each collection holds, for
// diagnostics and backfill checks.
func (s *Service) CollectionCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, 2)
	for name, description := range map[string]string{
		store.CollectionChatMessages:     chatCollectionDescription,
		store.CollectionMedicalDocuments: docCollectionDescription,
	} {
		col, err := s.vectors.GetOrCreate(ctx, name, description)
		if err != nil {
			return nil, err
		}
		n, err := s.vectors.Count(ctx, col)
		if err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, nil
}

// searchCollection is the failure-isolated single-collection search. Every
// query carries the userId filter; results from other users must never leak.
func (s *Service) searchCollection(ctx context.Context, name, description string, queryVec []float32, userID string, topK int) []types.SearchResult {
	col, err := s.vectors.GetOrCreate(ctx, name, description)
	if err != nil {
		s.logger.Error("collection unavailable", "collection", name, "error", err)
		return []types.SearchResult{}
	}

	matches, err := s.vectors.Query(ctx, col, queryVec, topK, map[string]any{"userId": userID})
	if err != nil {
		s.logger.Error("collection search failed", "collection", name, "error", err)
		return []types.SearchResult{}
	}

	results := make([]types.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, types.SearchResult{
			ID:         m.ID,
			Content:    m.Document,
			Metadata:   m.Metadata,
			Distance:   m.Distance,
			Similarity: 1 - m.Distance,
		})
	}
	return results
}
