package retrieval

import (
	"context"
	"fmt"

	"healthmate/model"
	"healthmate/store"
)

// StoreChatMessage embeds one message and upserts it into the chat messages
// collection. Metadata must carry the owning userId: it is the only isolation
// mechanism the collections have.
func (s *Service) StoreChatMessage(ctx context.Context, messageID, content string, metadata map[string]any) error {
	if err := requireUserID(metadata); err != nil {
		return err
	}

	col, err := s.vectors.GetOrCreate(ctx, store.CollectionChatMessages, chatCollectionDescription)
	if err != nil {
		return err
	}

	embeddings, err := s.embedder.Embed(ctx, []string{content}, model.InputDocument)
	if err != nil {
		return err
	}
	if len(embeddings) == 0 {
		s.logger.Warn("no embeddable content in message", "messageId", messageID)
		return nil
	}

	if err := s.vectors.Add(ctx, col,
		[]string{messageID}, embeddings, []string{content}, []map[string]any{metadata}); err != nil {
		return err
	}

	s.logger.Info("stored chat message embedding", "messageId", messageID)
	return nil
}

// StoreMedicalDocument chunks the extracted text, embeds all chunks in one
// batch, and upserts one entry per chunk with ids {fileID}_chunk_{i} so the
// whole file can later be removed with a single fileId filter. Empty text is
// a no-op.
func (s *Service) StoreMedicalDocument(ctx context.Context, fileID, text string, metadata map[string]any) error {
	if err := requireUserID(metadata); err != nil {
		return err
	}

	chunks := model.Chunk(text, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		s.logger.Warn("no chunks generated for file", "fileId", fileID)
		return nil
	}

	col, err := s.vectors.GetOrCreate(ctx, store.CollectionMedicalDocuments, docCollectionDescription)
	if err != nil {
		return err
	}

	embeddings, err := s.embedder.Embed(ctx, chunks, model.InputDocument)
	if err != nil {
		return err
	}

	ids := make([]string, len(chunks))
	metadatas := make([]map[string]any, len(chunks))
	for i, chunk := range chunks {
		ids[i] = fmt.Sprintf("%s_chunk_%d", fileID, i)

		meta := make(map[string]any, len(metadata)+4)
		for k, v := range metadata {
			meta[k] = v
		}
		meta["fileId"] = fileID
		meta["chunkIndex"] = i
		meta["totalChunks"] = len(chunks)
		meta["chunkText"] = preview(chunk, 100)
		metadatas[i] = meta
	}

	if err := s.vectors.Add(ctx, col, ids, embeddings, chunks, metadatas); err != nil {
		return err
	}

	s.logger.Info("stored medical document embeddings", "fileId", fileID, "chunks", len(chunks))
	return nil
}

// DeleteChatEmbeddings removes every stored message of a chat.
func (s *Service) DeleteChatEmbeddings(ctx context.Context, chatID string) error {
	col, err := s.vectors.GetOrCreate(ctx, store.CollectionChatMessages, chatCollectionDescription)
	if err != nil {
		return err
	}
	if err := s.vectors.DeleteByFilter(ctx, col, map[string]any{"chatId": chatID}); err != nil {
		return err
	}
	s.logger.Info("deleted chat embeddings", "chatId", chatID)
	return nil
}

// DeleteMedicalDocumentEmbeddings removes every chunk of a file.
func (s *Service) DeleteMedicalDocumentEmbeddings(ctx context.Context, fileID string) error {
	col, err := s.vectors.GetOrCreate(ctx, store.CollectionMedicalDocuments, docCollectionDescription)
	if err != nil {
		return err
	}
	if err := s.vectors.DeleteByFilter(ctx, col, map[string]any{"fileId": fileID}); err != nil {
		return err
	}
	s.logger.Info("deleted medical document embeddings", "fileId", fileID)
	return nil
}

func requireUserID(metadata map[string]any) error {
	if v, ok := metadata["userId"].(string); !ok || v == "" {
		return fmt.Errorf("metadata is missing userId")
	}
	return nil
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
