// Package history provides SQLite-based persistence for conversation turns.
// The database is opened lazily and created on first use.
// If opening the DB or executing queries fails, the store falls back to in-memory storage.
//
// The log is write-only from the agent's point of view: transcripts are
// always supplied by the caller, never reloaded from here.
package history

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/sashabaranov/go-openai"

	"github.com/comigor/jarvis-booking/internal/config"
	"github.com/comigor/jarvis-booking/internal/logger"
)

var errNoPath = errors.New("no database path configured")

// Store is an append-only turn log.
type Store struct {
	path string

	mu       sync.Mutex
	messages []Message // in-memory fallback
	nextID   int64

	dbOnce  sync.Once
	db      *sql.DB
	initErr error

	now func() time.Time
}

// NewStore creates a store backed by the SQLite file at cfg.DBPath. An empty
// path keeps everything in memory.
func NewStore(cfg config.HistoryConfig) *Store {
	return &Store{path: cfg.DBPath, now: time.Now}
}

// initDB lazily opens the SQLite database and creates the messages table if it doesn't exist.
func (s *Store) initDB() {
	if s.path == "" {
		s.initErr = errNoPath
		return
	}
	db, err := sql.Open("sqlite", "file:"+s.path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		s.initErr = err
		logger.L.Warn("sqlite open failed; using in-memory history", logger.Err(err))
		return
	}
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT,
		tool_call_id TEXT,
		tool_name TEXT,
		created_at DATETIME
	);`); err != nil {
		s.initErr = err
		_ = db.Close()
		logger.L.Warn("sqlite table creation failed; using in-memory history", logger.Err(err))
		return
	}
	if _, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);`); err != nil {
		logger.L.Warn("sqlite index creation failed", logger.Err(err))
	}
	s.db = db
	logger.L.Info("sqlite history DB initialized", "path", s.path)
}

func (s *Store) sqlite() *sql.DB {
	s.dbOnce.Do(s.initDB)
	if s.initErr != nil {
		return nil
	}
	return s.db
}

// Append records transcript messages for a session. Failures are logged and
// the messages are kept in memory instead; the turn is never failed.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...openai.ChatCompletionMessage) {
	if len(msgs) == 0 {
		return
	}
	at := s.now().UTC()
	rows := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, FromChat(sessionID, m, at))
	}

	if db := s.sqlite(); db != nil {
		err := insertAll(ctx, db, rows)
		if err == nil {
			return
		}
		logger.L.Error("failed to store messages in sqlite; falling back to memory", logger.Session(sessionID), logger.Err(err))
	}

	s.mu.Lock()
	for _, r := range rows {
		s.nextID++
		r.ID = s.nextID
		s.messages = append(s.messages, r)
	}
	s.mu.Unlock()
}

func insertAll(ctx context.Context, db *sql.DB, rows []Message) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, m := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, role, content, tool_call_id, tool_name, created_at) VALUES (?,?,?,?,?,?);`,
			m.SessionID, m.Role, m.Content, m.ToolCallID, m.ToolName, m.CreatedAt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// List returns all messages of a session in chronological order.
func (s *Store) List(ctx context.Context, sessionID string) ([]Message, error) {
	var out []Message
	if db := s.sqlite(); db != nil {
		rows, err := db.QueryContext(ctx,
			`SELECT id, session_id, role, content, tool_call_id, tool_name, created_at FROM messages WHERE session_id = ? ORDER BY id ASC;`,
			sessionID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				m                         Message
				content, callID, toolName sql.NullString
			)
			if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &content, &callID, &toolName, &m.CreatedAt); err != nil {
				return nil, err
			}
			m.Content, m.ToolCallID, m.ToolName = content.String, callID.String, toolName.String
			out = append(out, m)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	for _, m := range s.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	s.mu.Unlock()
	return out, nil
}

// Close releases the database handle, if one was opened.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
