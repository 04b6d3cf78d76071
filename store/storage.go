package store

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"healthmate/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DBStorer interface {
	CreateChat(context.Context, string, string) (*types.Chat, error)
	GetChat(context.Context, uuid.UUID, string) (*types.Chat, error)
	ListChats(context.Context, string) ([]types.Chat, error)
	SearchChats(context.Context, string, string) ([]types.Chat, error)
	RecentMessages(context.Context, uuid.UUID, string, int) ([]types.Message, error)
	AppendMessagePair(context.Context, uuid.UUID, string, string) (*types.Message, *types.Message, error)
	DeleteChat(context.Context, uuid.UUID, string) error
	SaveMedicalFile(context.Context, *types.MedicalFile) error
	ListMedicalFiles(context.Context, string) ([]types.MedicalFile, error)
	GetMedicalFile(context.Context, uuid.UUID, string) (*types.MedicalFile, error)
	DeleteMedicalFile(context.Context, uuid.UUID, string) error
	Stats(context.Context, string) (*types.Statistics, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

func (p *PostgresStore) CreateChat(ctx context.Context, userID, title string) (*types.Chat, error) {
	now := time.Now()
	chat := &types.Chat{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}

	query := `INSERT INTO chats (id, user_id, title, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := p.pool.Exec(ctx, query, chat.ID, chat.UserID, chat.Title, chat.CreatedAt, chat.UpdatedAt, chat.IsActive)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func (p *PostgresStore) GetChat(ctx context.Context, chatID uuid.UUID, userID string) (*types.Chat, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, user_id, title, created_at, updated_at, is_active FROM chats WHERE id = $1 AND user_id = $2`,
		chatID, userID)

	chat := &types.Chat{}
	if err := row.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt, &chat.IsActive); err != nil {
		return nil, err
	}

	messages, err := p.chatMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	chat.Messages = messages
	return chat, nil
}

func (p *PostgresStore) chatMessages(ctx context.Context, chatID uuid.UUID) ([]types.Message, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, chat_id, role, content, timestamp FROM messages WHERE chat_id = $1 ORDER BY timestamp ASC`,
		chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		var m types.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (p *PostgresStore) ListChats(ctx context.Context, userID string) ([]types.Chat, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, user_id, title, created_at, updated_at, is_active FROM chats
		 WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []types.Chat
	for rows.Next() {
		var c types.Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.IsActive); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// SearchChats returns the user's chats containing the keyword, each with only
// its matching messages attached, newest match first.
func (p *PostgresStore) SearchChats(ctx context.Context, userID, keyword string) ([]types.Chat, error) {
	pattern := "%" + strings.ToLower(keyword) + "%"
	rows, err := p.pool.Query(ctx,
		`SELECT DISTINCT c.id, c.user_id, c.title, c.created_at, c.updated_at, c.is_active
		 FROM chats c JOIN messages m ON m.chat_id = c.id
		 WHERE c.user_id = $1 AND m.content ILIKE $2
		 ORDER BY c.updated_at DESC`, userID, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []types.Chat
	for rows.Next() {
		var c types.Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.IsActive); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range chats {
		mrows, err := p.pool.Query(ctx,
			`SELECT id, chat_id, role, content, timestamp FROM messages
			 WHERE chat_id = $1 AND content ILIKE $2 ORDER BY timestamp DESC`,
			chats[i].ID, pattern)
		if err != nil {
			return nil, err
		}
		for mrows.Next() {
			var m types.Message
			if err := mrows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.Timestamp); err != nil {
				mrows.Close()
				return nil, err
			}
			chats[i].Messages = append(chats[i].Messages, m)
		}
		mrows.Close()
	}
	return chats, nil
}

// RecentMessages returns the last n messages of a chat in chronological order.
func (p *PostgresStore) RecentMessages(ctx context.Context, chatID uuid.UUID, userID string, n int) ([]types.Message, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT m.id, m.chat_id, m.role, m.content, m.timestamp
		 FROM messages m JOIN chats c ON c.id = m.chat_id
		 WHERE m.chat_id = $1 AND c.user_id = $2
		 ORDER BY m.timestamp DESC LIMIT $3`, chatID, userID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		var m types.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Flip newest-first into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// AppendMessagePair stores one user/assistant exchange and bumps the chat's
// updated_at.
func (p *PostgresStore) AppendMessagePair(ctx context.Context, chatID uuid.UUID, userContent, assistantContent string) (*types.Message, *types.Message, error) {
	now := time.Now()
	userMsg := &types.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		Role:      types.RoleUser,
		Content:   userContent,
		Timestamp: now,
	}
	assistantMsg := &types.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		Role:      types.RoleAssistant,
		Content:   assistantContent,
		Timestamp: now.Add(time.Millisecond),
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO messages (id, chat_id, role, content, timestamp) VALUES ($1, $2, $3, $4, $5)`
	for _, m := range []*types.Message{userMsg, assistantMsg} {
		if _, err := tx.Exec(ctx, query, m.ID, m.ChatID, m.Role, m.Content, m.Timestamp); err != nil {
			return nil, nil, err
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE chats SET updated_at = $1 WHERE id = $2`, now, chatID); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return userMsg, assistantMsg, nil
}

func (p *PostgresStore) DeleteChat(ctx context.Context, chatID uuid.UUID, userID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1 AND user_id = $2`, chatID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (p *PostgresStore) SaveMedicalFile(ctx context.Context, file *types.MedicalFile) error {
	query := `INSERT INTO medical_files (id, user_id, filename, original_name, file_url, file_type, file_size, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := p.pool.Exec(ctx, query,
		file.ID, file.UserID, file.Filename, file.OriginalName, file.FileURL, file.FileType, file.FileSize, file.Category, file.CreatedAt)
	return err
}

func (p *PostgresStore) ListMedicalFiles(ctx context.Context, userID string) ([]types.MedicalFile, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, user_id, filename, original_name, file_url, file_type, file_size, category, created_at
		 FROM medical_files WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []types.MedicalFile
	for rows.Next() {
		var f types.MedicalFile
		if err := rows.Scan(&f.ID, &f.UserID, &f.Filename, &f.OriginalName, &f.FileURL, &f.FileType, &f.FileSize, &f.Category, &f.CreatedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (p *PostgresStore) GetMedicalFile(ctx context.Context, fileID uuid.UUID, userID string) (*types.MedicalFile, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, user_id, filename, original_name, file_url, file_type, file_size, category, created_at
		 FROM medical_files WHERE id = $1 AND user_id = $2`, fileID, userID)

	f := &types.MedicalFile{}
	if err := row.Scan(&f.ID, &f.UserID, &f.Filename, &f.OriginalName, &f.FileURL, &f.FileType, &f.FileSize, &f.Category, &f.CreatedAt); err != nil {
		return nil, err
	}
	return f, nil
}

func (p *PostgresStore) DeleteMedicalFile(ctx context.Context, fileID uuid.UUID, userID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM medical_files WHERE id = $1 AND user_id = $2`, fileID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (p *PostgresStore) Stats(ctx context.Context, userID string) (*types.Statistics, error) {
	stats := &types.Statistics{}

	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM medical_files WHERE user_id = $1`, userID).Scan(&stats.TotalFiles); err != nil {
		return nil, err
	}
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM chats WHERE user_id = $1 AND is_active`, userID).Scan(&stats.TotalChats); err != nil {
		return nil, err
	}
	if err := p.pool.QueryRow(ctx,
		`SELECT count(*) FROM messages m JOIN chats c ON c.id = m.chat_id WHERE c.user_id = $1`, userID).Scan(&stats.TotalMessages); err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx,
		`SELECT category, count(*) FROM medical_files WHERE user_id = $1 GROUP BY category`, userID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var cc types.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.FilesByCategory = append(stats.FilesByCategory, cc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	frows, err := p.pool.Query(ctx,
		`SELECT id, user_id, filename, original_name, file_url, file_type, file_size, category, created_at
		 FROM medical_files WHERE user_id = $1 ORDER BY created_at DESC LIMIT 5`, userID)
	if err != nil {
		return nil, err
	}
	for frows.Next() {
		var f types.MedicalFile
		if err := frows.Scan(&f.ID, &f.UserID, &f.Filename, &f.OriginalName, &f.FileURL, &f.FileType, &f.FileSize, &f.Category, &f.CreatedAt); err != nil {
			frows.Close()
			return nil, err
		}
		stats.RecentFiles = append(stats.RecentFiles, f)
	}
	frows.Close()
	if err := frows.Err(); err != nil {
		return nil, err
	}

	crows, err := p.pool.Query(ctx,
		`SELECT id, user_id, title, created_at, updated_at, is_active FROM chats
		 WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 5`, userID)
	if err != nil {
		return nil, err
	}
	for crows.Next() {
		var c types.Chat
		if err := crows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.IsActive); err != nil {
			crows.Close()
			return nil, err
		}
		stats.RecentChats = append(stats.RecentChats, c)
	}
	crows.Close()
	return stats, crows.Err()
}

func (p *PostgresStore) createTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS chats (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE,
		updated_at TIMESTAMP WITH TIME ZONE,
		is_active BOOLEAN DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_chats_user_id ON chats(user_id);

	CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		chat_id UUID NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		role TEXT CHECK (role IN ('user','assistant')),
		content TEXT NOT NULL,
		timestamp TIMESTAMP WITH TIME ZONE
	);

	CREATE INDEX IF NOT EXISTS idx_messages_chat_id ON messages(chat_id);

	CREATE TABLE IF NOT EXISTS medical_files (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		original_name TEXT NOT NULL,
		file_url TEXT,
		file_type TEXT,
		file_size BIGINT,
		category TEXT DEFAULT 'general',
		created_at TIMESTAMP WITH TIME ZONE
	);

	CREATE INDEX IF NOT EXISTS idx_medical_files_user_id ON medical_files(user_id);
    `
	_, err := p.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}
	return nil
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createTables(ctx)
}

func (p *PostgresStore) Pool() *pgxpool.Pool {
	return p.pool
}

// Close releases the connection pool.
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
