package retrieval

import (
	"context"
	"fmt"
	"testing"

	"healthmate/model"
	"healthmate/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreMedicalDocumentChunksAndMetadata(t *testing.T) {
	vectors := newFakeVectorStore()
	s := NewService(&fakeEmbedder{}, vectors, 20, 5)
	ctx := context.Background()

	text := "patient shows elevated blood pressure and was prescribed medication"
	err := s.StoreMedicalDocument(ctx, "file-1", text, map[string]any{
		"userId":   "u1",
		"filename": "report.pdf",
	})
	require.NoError(t, err)

	chunks := model.Chunk(text, 20, 5)
	require.Greater(t, len(chunks), 1)

	col, err := vectors.GetOrCreate(ctx, store.CollectionMedicalDocuments, "")
	require.NoError(t, err)
	count, err := vectors.Count(ctx, col)
	require.NoError(t, err)
	assert.Equal(t, len(chunks), count)

	for i := range chunks {
		id := fmt.Sprintf("file-1_chunk_%d", i)
		entry, ok := vectors.collections[store.CollectionMedicalDocuments][id]
		require.True(t, ok, "missing chunk %s", id)
		assert.Equal(t, chunks[i], entry.document)
		assert.Equal(t, "u1", entry.metadata["userId"])
		assert.Equal(t, "file-1", entry.metadata["fileId"])
		assert.Equal(t, i, entry.metadata["chunkIndex"])
		assert.Equal(t, len(chunks), entry.metadata["totalChunks"])
		assert.NotEmpty(t, entry.metadata["chunkText"])
	}
}

func TestStoreMedicalDocumentEmptyTextIsNoop(t *testing.T) {
	vectors := newFakeVectorStore()
	s := newTestService(vectors)
	ctx := context.Background()

	err := s.StoreMedicalDocument(ctx, "file-1", "   \n  ", map[string]any{"userId": "u1"})
	require.NoError(t, err)

	col, err := vectors.GetOrCreate(ctx, store.CollectionMedicalDocuments, "")
	require.NoError(t, err)
	count, err := vectors.Count(ctx, col)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStoreChatMessageRequiresUserID(t *testing.T) {
	s := newTestService(newFakeVectorStore())

	err := s.StoreChatMessage(context.Background(), "m1", "hello", map[string]any{"chatId": "c1"})
	assert.Error(t, err)

	err = s.StoreMedicalDocument(context.Background(), "f1", "text", map[string]any{})
	assert.Error(t, err)
}

func TestStoreChatMessageUpsert(t *testing.T) {
	vectors := newFakeVectorStore()
	s := newTestService(vectors)
	ctx := context.Background()

	storeMessage(t, s, "m1", "original content", "u1", "c1", "user")
	storeMessage(t, s, "m1", "edited content", "u1", "c1", "user")

	col, err := vectors.GetOrCreate(ctx, store.CollectionChatMessages, "")
	require.NoError(t, err)
	count, err := vectors.Count(ctx, col)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "edited content", vectors.collections[store.CollectionChatMessages]["m1"].document)
}

func TestDeleteMedicalDocumentEmbeddings(t *testing.T) {
	vectors := newFakeVectorStore()
	s := newTestService(vectors)
	ctx := context.Background()

	for _, fileID := range []string{"f1", "f2"} {
		err := s.StoreMedicalDocument(ctx, fileID, "lab results attached", map[string]any{"userId": "u1"})
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteMedicalDocumentEmbeddings(ctx, "f1"))

	for id, entry := range vectors.collections[store.CollectionMedicalDocuments] {
		assert.NotEqual(t, "f1", entry.metadata["fileId"], "chunk %s should be gone", id)
	}
	col, err := vectors.GetOrCreate(ctx, store.CollectionMedicalDocuments, "")
	require.NoError(t, err)
	count, err := vectors.Count(ctx, col)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndexingFailureDoesNotPanic(t *testing.T) {
	vectors := newFakeVectorStore()
	vectors.failCreate[store.CollectionChatMessages] = true
	s := newTestService(vectors)

	err := s.StoreChatMessage(context.Background(), "m1", "hello", map[string]any{"userId": "u1"})
	assert.Error(t, err)
}
