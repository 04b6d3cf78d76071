package types

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Chat struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsActive  bool      `json:"isActive"`
	Messages  []Message `json:"messages,omitempty"`
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chatId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type MedicalFile struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"userId"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	FileURL      string    `json:"fileUrl"`
	FileType     string    `json:"fileType"`
	FileSize     int64     `json:"fileSize"`
	Category     string    `json:"category"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SearchResult is one match from a vector collection. Similarity is derived
// from the cosine distance as 1 - distance, so results ranked by ascending
// distance are equivalently ranked by descending similarity.
type SearchResult struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	Distance   float64        `json:"distance"`
	Similarity float64        `json:"similarity"`
}

// SearchResults combines the matches from both collections for one query.
type SearchResults struct {
	ChatMessages     []SearchResult `json:"chatMessages"`
	MedicalDocuments []SearchResult `json:"medicalDocuments"`
	TotalResults     int            `json:"totalResults"`
}

type SearchOptions struct {
	ChatMessagesLimit int
	MedicalDocsLimit  int
}

type Statistics struct {
	TotalFiles      int             `json:"totalFiles"`
	TotalChats      int             `json:"totalChats"`
	TotalMessages   int             `json:"totalMessages"`
	FilesByCategory []CategoryCount `json:"filesByCategory"`
	RecentFiles     []MedicalFile   `json:"recentFiles"`
	RecentChats     []Chat          `json:"recentChats"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type ChatExport struct {
	ExportDate time.Time `json:"exportDate"`
	Chat       Chat      `json:"chat"`
}

type FullExport struct {
	ExportDate    time.Time `json:"exportDate"`
	UserID        string    `json:"userId"`
	TotalChats    int       `json:"totalChats"`
	TotalMessages int       `json:"totalMessages"`
	Chats         []Chat    `json:"chats"`
}
