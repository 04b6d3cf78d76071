package api

import (
	"fmt"

	"healthmate/app/middleware"
	"healthmate/retrieval"
	"healthmate/store"

	"github.com/gofiber/fiber/v2"
)

type MedicalHandler struct {
	store     store.DBStorer
	retrieval *retrieval.Service
}

func NewMedicalHandler(s store.DBStorer, r *retrieval.Service) *MedicalHandler {
	return &MedicalHandler{
		store:     s,
		retrieval: r,
	}
}

func (h *MedicalHandler) HandlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true, "route": "medical"})
}

// HandleStats serves the dashboard counters and recent activity. Vector index
// counts are best effort: retrieval being down should not break the dashboard.
func (h *MedicalHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.store.Stats(c.Context(), middleware.UserID(c))
	if err != nil {
		return err
	}

	vectorIndex := fiber.Map{}
	if counts, err := h.retrieval.CollectionCounts(c.Context()); err == nil {
		for name, n := range counts {
			vectorIndex[name] = n
		}
	} else {
		vectorIndex["error"] = fmt.Sprintf("unavailable: %v", err)
	}

	return c.JSON(fiber.Map{
		"vectorIndex": vectorIndex,
		"statistics": fiber.Map{
			"totalFiles":      stats.TotalFiles,
			"totalChats":      stats.TotalChats,
			"totalMessages":   stats.TotalMessages,
			"filesByCategory": stats.FilesByCategory,
		},
		"recentActivity": fiber.Map{
			"files": stats.RecentFiles,
			"chats": stats.RecentChats,
		},
	})
}
