package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CohereEmbedder creates embeddings through the Cohere v2 embed API.
type CohereEmbedder struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	timeout time.Duration
}

type cohereEmbedRequest struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

type cohereEmbedResponse struct {
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
}

func NewCohereEmbedder(baseURL, apiKey, model string) *CohereEmbedder {
	return &CohereEmbedder{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  http.DefaultClient,
		timeout: 30 * time.Second,
	}
}

func (e *CohereEmbedder) Embed(ctx context.Context, texts []string, input InputType) ([][]float32, error) {
	validTexts := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			validTexts = append(validTexts, t)
		}
	}
	if len(validTexts) == 0 {
		return nil, nil
	}

	req := cohereEmbedRequest{
		Model:          e.model,
		Texts:          validTexts,
		InputType:      string(input),
		EmbeddingTypes: []string{"float"},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/v2/embed", bytes.NewBuffer(body))
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &EmbeddingError{Err: fmt.Errorf("cohere API error: status %d, body: %s", resp.StatusCode, string(body))}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var embedResp cohereEmbedResponse
	if err := json.Unmarshal(respBody, &embedResp); err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	if len(embedResp.Embeddings.Float) != len(validTexts) {
		return nil, &EmbeddingError{Err: fmt.Errorf("expected %d embeddings, got %d", len(validTexts), len(embedResp.Embeddings.Float))}
	}

	return embedResp.Embeddings.Float, nil
}

func (e *CohereEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{text}, InputQuery)
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, &EmbeddingError{Err: fmt.Errorf("no embedding returned for query")}
	}
	return embeddings[0], nil
}
