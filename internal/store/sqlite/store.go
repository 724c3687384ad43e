package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zhouzirui/dsa-tutor/backend/internal/model/chat"
	"github.com/zhouzirui/dsa-tutor/backend/internal/model/user"
	"github.com/zhouzirui/dsa-tutor/backend/internal/store"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ store.Store = (*Store)(nil)

// Store implements store.Store on a single SQLite file.
// Timestamps are stored as unix nanoseconds; the transcript is a JSON array column.
type Store struct {
	db *sql.DB
}

// Open creates the database directory if needed, opens the file and applies the schema.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	return runMigrations(s.db)
}

const selectUser = `SELECT id, name, email, picture, is_guest, guest_id, created_at, last_active FROM users`

func (s *Store) CreateUser(ctx context.Context, u user.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, picture, is_guest, guest_id, created_at, last_active)
		 VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, NULLIF(?, ''), ?, ?)`,
		u.ID, u.Name, u.Email, u.Picture, u.IsGuest, u.GuestID, u.CreatedAt.UnixNano(), u.LastActive.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	return s.queryUser(ctx, selectUser+` WHERE id = ?`, id)
}

func (s *Store) GetUserByGuestID(ctx context.Context, guestID string) (user.User, error) {
	return s.queryUser(ctx, selectUser+` WHERE guest_id = ?`, guestID)
}

func (s *Store) queryUser(ctx context.Context, query string, arg any) (user.User, error) {
	var (
		u                       user.User
		email, picture, guestID sql.NullString
		createdAt, lastActive   int64
	)
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &email, &picture, &u.IsGuest, &guestID, &createdAt, &lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, store.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("query user: %w", err)
	}
	u.Email = email.String
	u.Picture = picture.String
	u.GuestID = guestID.String
	u.CreatedAt = fromUnixNano(createdAt)
	u.LastActive = fromUnixNano(lastActive)
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, email = NULLIF(?, ''), picture = NULLIF(?, ''), is_guest = ?, guest_id = NULLIF(?, ''), last_active = ?
		 WHERE id = ?`,
		u.Name, u.Email, u.Picture, u.IsGuest, u.GuestID, u.LastActive.UnixNano(), u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE owner_id = ?`, id); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return tx.Commit()
}

func (s *Store) DeleteInactiveGuests(ctx context.Context, before time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin guest cleanup: %w", err)
	}
	defer tx.Rollback()

	cutoff := before.UnixNano()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chat_sessions WHERE owner_id IN (SELECT id FROM users WHERE is_guest = 1 AND last_active < ?)`, cutoff,
	); err != nil {
		return 0, fmt.Errorf("delete guest sessions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE is_guest = 1 AND last_active < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete guests: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete guests: %w", err)
	}
	return deleted, tx.Commit()
}

// isUniqueViolation reports a UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlitedriver.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}

func (s *Store) CreateSession(ctx context.Context, session *chat.Session) error {
	messages, err := encodeMessages(session.Messages)
	if err != nil {
		return err
	}
	session.Version = 1
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, owner_id, title, messages, is_guest_chat, last_message_at, created_at, updated_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.OwnerID, session.Title, messages, session.IsGuestChat,
		session.LastMessageAt.UnixNano(), session.CreatedAt.UnixNano(), session.UpdatedAt.UnixNano(), session.Version,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

const selectSession = `SELECT id, owner_id, title, messages, is_guest_chat, last_message_at, created_at, updated_at, version FROM chat_sessions`

func (s *Store) GetSession(ctx context.Context, id string) (chat.Session, error) {
	row := s.db.QueryRowContext(ctx, selectSession+` WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return chat.Session{}, store.ErrNotFound
	}
	return session, err
}

func (s *Store) ListSessionsByOwner(ctx context.Context, ownerID string, limit int) ([]chat.Session, error) {
	query := selectSession + ` WHERE owner_id = ? ORDER BY last_message_at DESC, created_at DESC, id`
	args := []any{ownerID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]chat.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Store) SaveSession(ctx context.Context, session *chat.Session) error {
	messages, err := encodeMessages(session.Messages)
	if err != nil {
		return err
	}
	updatedAt := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions
		 SET title = ?, messages = ?, last_message_at = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		session.Title, messages, session.LastMessageAt.UnixNano(), updatedAt.UnixNano(), session.ID, session.Version,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected == 0 {
		return s.missOrConflict(ctx, session.ID)
	}

	session.Version++
	session.UpdatedAt = updatedAt
	return nil
}

func (s *Store) missOrConflict(ctx context.Context, id string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM chat_sessions WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	log.Printf("[store] sqlite version conflict on session=%s", id)
	return store.ErrVersionConflict
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSessionsByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (chat.Session, error) {
	var (
		session                             chat.Session
		messages                            string
		lastMessageAt, createdAt, updatedAt int64
	)
	if err := row.Scan(&session.ID, &session.OwnerID, &session.Title, &messages, &session.IsGuestChat,
		&lastMessageAt, &createdAt, &updatedAt, &session.Version); err != nil {
		return chat.Session{}, err
	}
	if err := json.Unmarshal([]byte(messages), &session.Messages); err != nil {
		return chat.Session{}, fmt.Errorf("decode messages of session %s: %w", session.ID, err)
	}
	session.LastMessageAt = fromUnixNano(lastMessageAt)
	session.CreatedAt = fromUnixNano(createdAt)
	session.UpdatedAt = fromUnixNano(updatedAt)
	return session, nil
}

func encodeMessages(messages []chat.Message) (string, error) {
	if messages == nil {
		messages = []chat.Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("encode messages: %w", err)
	}
	return string(data), nil
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
