package model

import "strings"

// Chunk splits text into sliding windows of at most maxChunkSize characters
// with overlap characters shared between adjacent windows, so meaning that
// straddles a boundary survives in at least one chunk. Windows are trimmed
// and empty ones skipped; empty or all-whitespace input yields nil. Requires
// maxChunkSize > overlap >= 0.
func Chunk(text string, maxChunkSize, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)

	var chunks []string
	startIndex := 0

	for startIndex < len(runes) {
		endIndex := min(startIndex+maxChunkSize, len(runes))
		chunk := strings.TrimSpace(string(runes[startIndex:endIndex]))

		if len(chunk) > 0 {
			chunks = append(chunks, chunk)
		}

		startIndex = endIndex - overlap

		// Terminate once the next window cannot reach past consumed text,
		// otherwise overlap close to maxChunkSize loops forever.
		if startIndex >= len(runes)-overlap {
			break
		}
	}

	return chunks
}
