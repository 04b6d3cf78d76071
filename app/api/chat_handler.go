package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthmate/app/agent"
	"healthmate/app/middleware"
	"healthmate/config"
	"healthmate/retrieval"
	"healthmate/store"
	"healthmate/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ChatHandler struct {
	store      store.DBStorer
	retrieval  *retrieval.Service
	agent      *agent.Agent
	dispatcher *retrieval.Dispatcher
	cfg        *config.Config
}

func NewChatHandler(s store.DBStorer, r *retrieval.Service, a *agent.Agent, d *retrieval.Dispatcher, cfg *config.Config) *ChatHandler {
	return &ChatHandler{
		store:      s,
		retrieval:  r,
		agent:      a,
		dispatcher: d,
		cfg:        cfg,
	}
}

// HandleMessage runs one assistant turn: retrieve context, build the prompt,
// ask the model, persist the exchange, then hand both new messages to the
// background indexer. Retrieval and indexing failures degrade the turn but
// never fail it; only a model failure is user-visible.
func (h *ChatHandler) HandleMessage(c *fiber.Ctx) error {
	var params types.MessageParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	userID := middleware.UserID(c)
	ctx := c.Context()

	results := h.retrieval.SearchAll(ctx, params.Message, userID, types.SearchOptions{
		ChatMessagesLimit: h.cfg.ChatMessagesLimit,
		MedicalDocsLimit:  h.cfg.MedicalDocsLimit,
	})

	var chat *types.Chat
	var recent []types.Message
	if params.ChatID != "" {
		chatID, err := uuid.Parse(params.ChatID)
		if err != nil {
			return ErrInvalidID()
		}
		chat, err = h.store.GetChat(ctx, chatID, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound(params.ChatID, "chat")
			}
			return err
		}
		recent, err = h.store.RecentMessages(ctx, chatID, userID, h.cfg.RecentTurns)
		if err != nil {
			// Short-term context is optional; retrieval already covers history.
			fmt.Println("error loading recent messages:", err)
		}
	}

	prompt := retrieval.BuildPrompt(retrieval.SystemPrompt, recent, results, h.cfg.SimilarityThreshold)

	answer, err := h.agent.GenerateAnswer(ctx, prompt, params.Message)
	if err != nil {
		fmt.Println("chat completion failed:", err)
		return NewError(fiber.StatusInternalServerError, "failed to process message")
	}

	if chat == nil {
		chat, err = h.store.CreateChat(ctx, userID, chatTitle(params.Message))
		if err != nil {
			return err
		}
	}

	userMsg, assistantMsg, err := h.store.AppendMessagePair(ctx, chat.ID, params.Message, answer)
	if err != nil {
		return err
	}

	for _, m := range []*types.Message{userMsg, assistantMsg} {
		msg := m
		h.dispatcher.Enqueue("store chat message "+msg.ID.String(), func(ctx context.Context) error {
			return h.retrieval.StoreChatMessage(ctx, msg.ID.String(), msg.Content, map[string]any{
				"userId":    userID,
				"chatId":    chat.ID.String(),
				"role":      string(msg.Role),
				"timestamp": msg.Timestamp.Format(time.RFC3339),
			})
		})
	}

	messages := append(chat.Messages, *userMsg, *assistantMsg)

	return c.JSON(types.MessageResponse{
		Response: answer,
		ChatID:   chat.ID.String(),
		Messages: messages,
		SemanticContext: types.SemanticContext{
			RelevantMessages:  len(results.ChatMessages),
			RelevantDocuments: len(results.MedicalDocuments),
		},
		Timestamp: time.Now(),
	})
}

func (h *ChatHandler) HandleListChats(c *fiber.Ctx) error {
	chats, err := h.store.ListChats(c.Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	if chats == nil {
		chats = []types.Chat{}
	}
	return c.JSON(fiber.Map{"chats": chats})
}

func (h *ChatHandler) HandleGetChat(c *fiber.Ctx) error {
	chatID, err := uuid.Parse(c.Params("chatId"))
	if err != nil {
		return ErrInvalidID()
	}

	chat, err := h.store.GetChat(c.Context(), chatID, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound(chatID, "chat")
		}
		return err
	}
	return c.JSON(fiber.Map{"chat": chat})
}

func (h *ChatHandler) HandleSearchChats(c *fiber.Ctx) error {
	keyword := c.Params("keyword")
	chats, err := h.store.SearchChats(c.Context(), middleware.UserID(c), keyword)
	if err != nil {
		return err
	}
	if chats == nil {
		chats = []types.Chat{}
	}
	return c.JSON(fiber.Map{
		"keyword": keyword,
		"results": chats,
		"count":   len(chats),
	})
}

func (h *ChatHandler) HandleExportAll(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	chats, err := h.store.ListChats(c.Context(), userID)
	if err != nil {
		return err
	}

	export := types.FullExport{
		ExportDate: time.Now(),
		UserID:     userID,
		TotalChats: len(chats),
	}
	for i := range chats {
		full, err := h.store.GetChat(c.Context(), chats[i].ID, userID)
		if err != nil {
			return err
		}
		export.TotalMessages += len(full.Messages)
		export.Chats = append(export.Chats, *full)
	}
	return c.JSON(export)
}

func (h *ChatHandler) HandleExportChat(c *fiber.Ctx) error {
	chatID, err := uuid.Parse(c.Params("chatId"))
	if err != nil {
		return ErrInvalidID()
	}

	chat, err := h.store.GetChat(c.Context(), chatID, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound(chatID, "chat")
		}
		return err
	}

	return c.JSON(types.ChatExport{
		ExportDate: time.Now(),
		Chat:       *chat,
	})
}

// HandleDeleteChat removes the chat and queues vector cleanup. The cleanup is
// best-effort and not transactional with the primary deletion.
func (h *ChatHandler) HandleDeleteChat(c *fiber.Ctx) error {
	chatID, err := uuid.Parse(c.Params("chatId"))
	if err != nil {
		return ErrInvalidID()
	}

	if err := h.store.DeleteChat(c.Context(), chatID, middleware.UserID(c)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound(chatID, "chat")
		}
		return err
	}

	h.dispatcher.Enqueue("delete chat embeddings "+chatID.String(), func(ctx context.Context) error {
		return h.retrieval.DeleteChatEmbeddings(ctx, chatID.String())
	})

	return c.JSON(fiber.Map{"message": "Chat deleted successfully"})
}

func chatTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= 50 {
		return message
	}
	return string(runes[:50]) + "..."
}
