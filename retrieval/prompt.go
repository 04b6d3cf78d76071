package retrieval

import (
	"fmt"
	"strings"

	"healthmate/types"
)

// SystemPrompt is the static instruction block for the assistant.
const SystemPrompt = `You are a helpful medical assistant. You provide medical information and education like a professional experienced Doctor. You can also read the Medical record of the patient and provide advice to them.

Important Guidelines:
- Explain what symptoms or conditions might mean in general terms
- Always suggest consulting a doctor for serious concerns
- Be empathetic and clear
- Use simple language
- Reference the relevant context above when answering
- If user asks about their medical records, use the medical records context
- If user asks about past discussions, reference the past discussions
- If user describes symptoms, suggest seeing a healthcare provider
- Provide general information about medications without prescribing or recommending them
- Help user prepare questions to ask their doctor`

// DefaultSimilarityThreshold filters out weak matches before they reach the
// prompt. Strictly greater-than: a result sitting exactly on the threshold is
// excluded.
const DefaultSimilarityThreshold = 0.5

// BuildPrompt assembles the bounded prompt from the static instructions, the
// recent turns of the current chat (chronological), and the retrieved
// context filtered by similarity > threshold. Sections with no content are
// omitted entirely. Pure formatting, no I/O.
func BuildPrompt(system string, recentTurns []types.Message, results *types.SearchResults, threshold float64) string {
	var sections []string
	if system != "" {
		sections = append(sections, system)
	}

	if current := formatTurns(recentTurns); current != "" {
		sections = append(sections, "Current Conversation:\n"+current)
	}

	if docs := formatDocuments(results.MedicalDocuments, threshold); docs != "" {
		sections = append(sections, "Relevant Medical Records:\n"+docs)
	}

	if history := formatChatResults(results.ChatMessages, threshold); history != "" {
		sections = append(sections, "Relevant Past Discussions:\n"+history)
	}

	return strings.Join(sections, "\n\n")
}

// formatTurns renders verbatim conversation turns as "Role: content" lines.
func formatTurns(turns []types.Message) string {
	lines := make([]string, 0, len(turns))
	for _, m := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", roleLabel(string(m.Role)), m.Content))
	}
	return strings.Join(lines, "\n")
}

// formatChatResults keeps retrieved messages above the threshold in the
// order the search returned them (descending similarity), one line each.
func formatChatResults(results []types.SearchResult, threshold float64) string {
	var lines []string
	for _, r := range results {
		if r.Similarity > threshold {
			role, _ := r.Metadata["role"].(string)
			lines = append(lines, fmt.Sprintf("%s: %s", roleLabel(role), r.Content))
		}
	}
	return strings.Join(lines, "\n")
}

// formatDocuments renders document excerpts as standalone blocks separated
// by blank lines, each labeled with its source filename.
func formatDocuments(results []types.SearchResult, threshold float64) string {
	var blocks []string
	for _, r := range results {
		if r.Similarity > threshold {
			filename, _ := r.Metadata["filename"].(string)
			if filename == "" {
				filename = "document"
			}
			blocks = append(blocks, fmt.Sprintf("[%s]: %s", filename, r.Content))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func roleLabel(role string) string {
	if role == string(types.RoleUser) {
		return "User"
	}
	return "Assistant"
}
