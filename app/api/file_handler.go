package api

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"healthmate/app/middleware"
	"healthmate/config"
	"healthmate/parser"
	"healthmate/retrieval"
	"healthmate/store"
	"healthmate/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var allowedFileTypes = map[string]bool{
	"application/pdf": true,
	"text/csv":        true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/jpg":       true,
}

type FileHandler struct {
	store      store.DBStorer
	retrieval  *retrieval.Service
	dispatcher *retrieval.Dispatcher
	cfg        *config.Config
}

func NewFileHandler(s store.DBStorer, r *retrieval.Service, d *retrieval.Dispatcher, cfg *config.Config) *FileHandler {
	return &FileHandler{
		store:      s,
		retrieval:  r,
		dispatcher: d,
		cfg:        cfg,
	}
}

// HandleUpload saves the file, extracts its text, records it, and queues the
// extracted text for background embedding. A parse failure keeps the file
// record, just without searchable content.
func (h *FileHandler) HandleUpload(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return NewError(fiber.StatusBadRequest, "no file provided")
	}

	fileType := fileHeader.Header.Get("Content-Type")
	if !allowedFileTypes[fileType] {
		return NewError(fiber.StatusBadRequest, "unsupported file type")
	}

	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		return err
	}

	filename := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), fileHeader.Filename)
	path := filepath.Join(h.cfg.UploadDir, filename)
	if err := c.SaveFile(fileHeader, path); err != nil {
		fmt.Println("error saving upload:", err)
		return err
	}
	fmt.Printf("[UPLOAD] File saved to: %s\n", path)

	var extractedText string
	switch fileType {
	case "application/pdf":
		text, pages, err := parser.ParsePDF(path)
		if err != nil {
			fmt.Println("file parsing error:", err)
		} else {
			fmt.Printf("[UPLOAD] Parsed PDF: %d pages, %d chars\n", pages, len(text))
			extractedText = text
		}
	case "text/csv":
		text, err := parser.ParseCSV(path)
		if err != nil {
			fmt.Println("file parsing error:", err)
		} else {
			extractedText = text
		}
	}

	category := c.FormValue("category", "general")

	file := &types.MedicalFile{
		ID:           uuid.New(),
		UserID:       userID,
		Filename:     filename,
		OriginalName: fileHeader.Filename,
		FileURL:      "/uploads/medical/" + filename,
		FileType:     fileType,
		FileSize:     fileHeader.Size,
		Category:     category,
		CreatedAt:    time.Now(),
	}
	if err := h.store.SaveMedicalFile(c.Context(), file); err != nil {
		return err
	}

	hasExtractedData := strings.TrimSpace(extractedText) != ""
	if hasExtractedData {
		fileID := file.ID.String()
		originalName := file.OriginalName
		text := extractedText
		h.dispatcher.Enqueue("store medical document "+fileID, func(ctx context.Context) error {
			return h.retrieval.StoreMedicalDocument(ctx, fileID, text, map[string]any{
				"userId":   userID,
				"filename": originalName,
				"fileType": fileType,
				"category": category,
			})
		})
	}

	var textPreview *string
	if hasExtractedData {
		p := preview(extractedText, 200)
		textPreview = &p
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"file":             file,
		"hasExtractedData": hasExtractedData,
		"textPreview":      textPreview,
	})
}

func (h *FileHandler) HandleListFiles(c *fiber.Ctx) error {
	files, err := h.store.ListMedicalFiles(c.Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	if files == nil {
		files = []types.MedicalFile{}
	}
	return c.JSON(fiber.Map{"files": files})
}

// HandleDeleteFile removes the record and queues vector cleanup, best-effort.
func (h *FileHandler) HandleDeleteFile(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("fileId"))
	if err != nil {
		return ErrInvalidID()
	}
	userID := middleware.UserID(c)

	file, err := h.store.GetMedicalFile(c.Context(), fileID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound(fileID, "file")
		}
		return err
	}

	if err := h.store.DeleteMedicalFile(c.Context(), fileID, userID); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(h.cfg.UploadDir, file.Filename)); err != nil && !os.IsNotExist(err) {
		fmt.Println("error removing file from disk:", err)
	}

	h.dispatcher.Enqueue("delete medical document embeddings "+fileID.String(), func(ctx context.Context) error {
		return h.retrieval.DeleteMedicalDocumentEmbeddings(ctx, fileID.String())
	})

	return c.JSON(fiber.Map{"message": "File deleted successfully"})
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
