package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackAnswer = "I'm sorry, I couldn't process that request."

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

// Agent answers questions through the Cohere v2 chat API. The assembled
// context prompt and the question go out as a single user-role message.
type Agent struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	timeout time.Duration
}

func New(baseURL, apiKey, model string) *Agent {
	return &Agent{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  http.DefaultClient,
		timeout: 60 * time.Second,
	}
}

func (a *Agent) GenerateAnswer(ctx context.Context, prompt, question string) (string, error) {
	start := time.Now()
	defer func() {
		fmt.Printf("LLM answer took %v\n", time.Since(start))
	}()

	reqBody, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt + "\n\n" + question},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	if count, err := CountTokens(string(reqBody)); err == nil {
		fmt.Println("Size of prompt with question in tokens:", count)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/v2/chat", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("cohere API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var output strings.Builder
	for _, part := range chatResp.Message.Content {
		if part.Type == "text" {
			output.WriteString(part.Text)
		}
	}

	answer := strings.TrimSpace(output.String())
	if answer == "" {
		return fallbackAnswer, nil
	}
	return answer, nil
}

// CountTokens reports the token footprint of a payload using a compatible
// tokenizer, for logging prompt sizes.
func CountTokens(data string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	tokens := enc.Encode(data, nil, nil)
	return len(tokens), nil
}
