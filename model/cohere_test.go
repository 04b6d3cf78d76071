package model

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCohereEmbedBatch(t *testing.T) {
	var gotReq cohereEmbedRequest
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v2/embed", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := map[string]any{
			"embeddings": map[string]any{
				"float": [][]float32{{0.1, 0.2}, {0.3, 0.4}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewCohereEmbedder(srv.URL, "test-key", "embed-english-v3.0")
	embeddings, err := e.Embed(context.Background(), []string{"first", "second"}, InputDocument)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "embed-english-v3.0", gotReq.Model)
	assert.Equal(t, "search_document", gotReq.InputType)
	assert.Equal(t, []string{"first", "second"}, gotReq.Texts)
	assert.Equal(t, []string{"float"}, gotReq.EmbeddingTypes)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1, 0.2}, embeddings[0])
	assert.Equal(t, []float32{0.3, 0.4}, embeddings[1])
}

func TestCohereEmbedFiltersBlankTexts(t *testing.T) {
	var gotReq cohereEmbedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": map[string]any{"float": [][]float32{{1}}},
		})
	}))
	defer srv.Close()

	e := NewCohereEmbedder(srv.URL, "key", "m")
	embeddings, err := e.Embed(context.Background(), []string{"", "  ", "kept"}, InputQuery)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, gotReq.Texts)
	require.Len(t, embeddings, 1)
}

func TestCohereEmbedAllBlankSkipsProvider(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	e := NewCohereEmbedder(srv.URL, "key", "m")
	embeddings, err := e.Embed(context.Background(), []string{"", "   "}, InputDocument)
	require.NoError(t, err)
	assert.Nil(t, embeddings)
	assert.Zero(t, calls)
}

func TestCohereEmbedProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewCohereEmbedder(srv.URL, "key", "m")
	_, err := e.Embed(context.Background(), []string{"text"}, InputDocument)
	require.Error(t, err)

	var embErr *EmbeddingError
	assert.True(t, errors.As(err, &embErr))
}

func TestCohereEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": map[string]any{"float": [][]float32{{1}}},
		})
	}))
	defer srv.Close()

	e := NewCohereEmbedder(srv.URL, "key", "m")
	_, err := e.Embed(context.Background(), []string{"a", "b"}, InputDocument)

	var embErr *EmbeddingError
	assert.True(t, errors.As(err, &embErr))
}

func TestCohereEmbedOneUsesQueryInput(t *testing.T) {
	var gotReq cohereEmbedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": map[string]any{"float": [][]float32{{0.5, 0.6}}},
		})
	}))
	defer srv.Close()

	e := NewCohereEmbedder(srv.URL, "key", "m")
	vec, err := e.EmbedOne(context.Background(), "what is this")
	require.NoError(t, err)
	assert.Equal(t, "search_query", gotReq.InputType)
	assert.Equal(t, []float32{0.5, 0.6}, vec)
}
