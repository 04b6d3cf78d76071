package retrieval

import (
	"strings"
	"testing"

	"healthmate/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatResult(content, role string, similarity float64) types.SearchResult {
	return types.SearchResult{
		Content:    content,
		Metadata:   map[string]any{"role": role},
		Distance:   1 - similarity,
		Similarity: similarity,
	}
}

func docResult(content, filename string, similarity float64) types.SearchResult {
	return types.SearchResult{
		Content:    content,
		Metadata:   map[string]any{"filename": filename},
		Distance:   1 - similarity,
		Similarity: similarity,
	}
}

func TestBuildPromptThresholdBoundary(t *testing.T) {
	results := &types.SearchResults{
		ChatMessages: []types.SearchResult{
			chatResult("exactly at threshold", "user", 0.5),
			chatResult("just above threshold", "user", 0.5000001),
		},
	}

	prompt := BuildPrompt("system", nil, results, 0.5)
	assert.NotContains(t, prompt, "exactly at threshold")
	assert.Contains(t, prompt, "just above threshold")
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	prompt := BuildPrompt("system instructions", nil, &types.SearchResults{}, 0.5)
	assert.Equal(t, "system instructions", prompt)
	assert.NotContains(t, prompt, "Current Conversation:")
	assert.NotContains(t, prompt, "Relevant Medical Records:")
	assert.NotContains(t, prompt, "Relevant Past Discussions:")
}

func TestBuildPromptChatFormatting(t *testing.T) {
	results := &types.SearchResults{
		ChatMessages: []types.SearchResult{
			chatResult("my head hurts", "user", 0.9),
			chatResult("how long has it lasted?", "assistant", 0.8),
		},
	}

	prompt := BuildPrompt("", nil, results, 0.5)
	assert.Contains(t, prompt, "Relevant Past Discussions:\nUser: my head hurts\nAssistant: how long has it lasted?")
}

func TestBuildPromptDocumentFormatting(t *testing.T) {
	results := &types.SearchResults{
		MedicalDocuments: []types.SearchResult{
			docResult("hemoglobin 14.1", "labs.pdf", 0.9),
			docResult("cholesterol 180", "labs.pdf", 0.7),
		},
	}

	prompt := BuildPrompt("", nil, results, 0.5)
	assert.Contains(t, prompt, "[labs.pdf]: hemoglobin 14.1\n\n[labs.pdf]: cholesterol 180")
}

func TestBuildPromptPreservesResultOrder(t *testing.T) {
	results := &types.SearchResults{
		ChatMessages: []types.SearchResult{
			chatResult("first", "user", 0.9),
			chatResult("second", "user", 0.7),
			chatResult("dropped", "user", 0.3),
		},
	}

	prompt := BuildPrompt("", nil, results, 0.5)
	assert.Less(t, strings.Index(prompt, "first"), strings.Index(prompt, "second"))
	assert.NotContains(t, prompt, "dropped")
}

func TestBuildPromptSectionOrder(t *testing.T) {
	turns := []types.Message{
		{Role: types.RoleUser, Content: "recent question"},
		{Role: types.RoleAssistant, Content: "recent answer"},
	}
	results := &types.SearchResults{
		ChatMessages:     []types.SearchResult{chatResult("old discussion", "user", 0.9)},
		MedicalDocuments: []types.SearchResult{docResult("blood test ok", "labs.pdf", 0.9)},
	}

	prompt := BuildPrompt(SystemPrompt, turns, results, 0.5)

	iSystem := strings.Index(prompt, "medical assistant")
	iCurrent := strings.Index(prompt, "Current Conversation:")
	iDocs := strings.Index(prompt, "Relevant Medical Records:")
	iHistory := strings.Index(prompt, "Relevant Past Discussions:")

	require.True(t, iSystem >= 0 && iCurrent > 0 && iDocs > 0 && iHistory > 0)
	assert.Less(t, iSystem, iCurrent)
	assert.Less(t, iCurrent, iDocs)
	assert.Less(t, iDocs, iHistory)

	assert.Contains(t, prompt, "Current Conversation:\nUser: recent question\nAssistant: recent answer")
}

func TestBuildPromptUnknownRoleDefaultsToAssistant(t *testing.T) {
	results := &types.SearchResults{
		ChatMessages: []types.SearchResult{
			{Content: "no role metadata", Metadata: map[string]any{}, Similarity: 0.9},
		},
	}

	prompt := BuildPrompt("", nil, results, 0.5)
	assert.Contains(t, prompt, "Assistant: no role metadata")
}
