package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhouzirui/dsa-tutor/backend/internal/model/chat"
	"github.com/zhouzirui/dsa-tutor/backend/internal/model/user"
	"github.com/zhouzirui/dsa-tutor/backend/internal/store"
)

// Compile-time check to ensure Store implements store.Store
var _ store.Store = (*Store)(nil)

// Store implements store.Store on PostgreSQL. The transcript lives in a JSONB column so a turn
// is committed by a single conditional UPDATE.
type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT UNIQUE,
	picture     TEXT,
	is_guest    BOOLEAN NOT NULL DEFAULT FALSE,
	guest_id    TEXT UNIQUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_active TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS chat_sessions (
	id              TEXT PRIMARY KEY,
	owner_id        TEXT NOT NULL,
	title           TEXT NOT NULL,
	messages        JSONB NOT NULL DEFAULT '[]'::jsonb,
	is_guest_chat   BOOLEAN NOT NULL DEFAULT FALSE,
	last_message_at TIMESTAMPTZ NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	version         BIGINT NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_chat_sessions_owner ON chat_sessions (owner_id, last_message_at DESC);
CREATE INDEX IF NOT EXISTS idx_chat_sessions_guest ON chat_sessions (is_guest_chat);

ALTER TABLE users ADD COLUMN IF NOT EXISTS picture TEXT;
CREATE INDEX IF NOT EXISTS idx_users_guest_activity ON users (is_guest, last_active);
`

// EnsureSchema creates the tables used by the store when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const selectUser = `SELECT id, name, email, picture, is_guest, guest_id, created_at, last_active FROM users`

func (s *Store) CreateUser(ctx context.Context, u user.User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (id, name, email, picture, is_guest, guest_id, created_at, last_active)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''), $7, $8)`,
		u.ID, u.Name, u.Email, u.Picture, u.IsGuest, u.GuestID, u.CreatedAt, u.LastActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("database error creating user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	return s.queryUser(ctx, selectUser+` WHERE id = $1`, id)
}

func (s *Store) GetUserByGuestID(ctx context.Context, guestID string) (user.User, error) {
	return s.queryUser(ctx, selectUser+` WHERE guest_id = $1`, guestID)
}

func (s *Store) queryUser(ctx context.Context, query string, arg any) (user.User, error) {
	var (
		u                       user.User
		email, picture, guestID *string
	)
	err := s.db.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Name, &email, &picture, &u.IsGuest, &guestID, &u.CreatedAt, &u.LastActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, store.ErrNotFound
		}
		return user.User{}, fmt.Errorf("database error fetching user: %w", err)
	}
	if email != nil {
		u.Email = *email
	}
	if picture != nil {
		u.Picture = *picture
	}
	if guestID != nil {
		u.GuestID = *guestID
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users
		 SET name = $1, email = NULLIF($2, ''), picture = NULLIF($3, ''), is_guest = $4, guest_id = NULLIF($5, ''), last_active = $6
		 WHERE id = $7`,
		u.Name, u.Email, u.Picture, u.IsGuest, u.GuestID, u.LastActive, u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("database error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("database error deleting user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return store.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM chat_sessions WHERE owner_id = $1`, id); err != nil {
			return fmt.Errorf("database error deleting user sessions: %w", err)
		}
		return nil
	})
}

func (s *Store) DeleteInactiveGuests(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM chat_sessions WHERE owner_id IN (SELECT id FROM users WHERE is_guest AND last_active < $1)`, before,
		); err != nil {
			return fmt.Errorf("database error deleting guest sessions: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE is_guest AND last_active < $1`, before)
		if err != nil {
			return fmt.Errorf("database error deleting guests: %w", err)
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Store) CreateSession(ctx context.Context, session *chat.Session) error {
	messages, err := encodeMessages(session.Messages)
	if err != nil {
		return err
	}
	session.Version = 1
	_, err = s.db.Exec(ctx,
		`INSERT INTO chat_sessions (id, owner_id, title, messages, is_guest_chat, last_message_at, created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, $9)`,
		session.ID, session.OwnerID, session.Title, messages, session.IsGuestChat,
		session.LastMessageAt, session.CreatedAt, session.UpdatedAt, session.Version,
	)
	if err != nil {
		return fmt.Errorf("database error creating session: %w", err)
	}
	return nil
}

const selectSession = `SELECT id, owner_id, title, messages, is_guest_chat, last_message_at, created_at, updated_at, version FROM chat_sessions`

func (s *Store) GetSession(ctx context.Context, id string) (chat.Session, error) {
	session, err := scanSession(s.db.QueryRow(ctx, selectSession+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return chat.Session{}, store.ErrNotFound
		}
		return chat.Session{}, fmt.Errorf("database error fetching session: %w", err)
	}
	return session, nil
}

func (s *Store) ListSessionsByOwner(ctx context.Context, ownerID string, limit int) ([]chat.Session, error) {
	query := selectSession + ` WHERE owner_id = $1 ORDER BY last_message_at DESC, created_at DESC, id`
	args := []any{ownerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database error listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]chat.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning session: %w", err)
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

	tag, err := s.db.Exec(ctx,
		`UPDATE chat_sessions
		 SET title = $1, messages = $2::jsonb, last_message_at = $3, updated_at = $4, version = version + 1
		 WHERE id = $5 AND version = $6`,
		session.Title, messages, session.LastMessageAt, updatedAt, session.ID, session.Version,
	)
	if err != nil {
		return fmt.Errorf("database error saving session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM chat_sessions WHERE id = $1)`, session.ID).Scan(&exists); err != nil {
			return fmt.Errorf("database error checking session: %w", err)
		}
		if !exists {
			return store.ErrNotFound
		}
		log.Printf("[store] postgres version conflict on session=%s version=%d", session.ID, session.Version)
		return store.ErrVersionConflict
	}

	session.Version++
	session.UpdatedAt = updatedAt
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("database error deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSessionsByOwner(ctx context.Context, ownerID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM chat_sessions WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("database error deleting sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func scanSession(row pgx.Row) (chat.Session, error) {
	var (
		session  chat.Session
		messages []byte
	)
	if err := row.Scan(&session.ID, &session.OwnerID, &session.Title, &messages, &session.IsGuestChat,
		&session.LastMessageAt, &session.CreatedAt, &session.UpdatedAt, &session.Version); err != nil {
		return chat.Session{}, err
	}
	if err := json.Unmarshal(messages, &session.Messages); err != nil {
		return chat.Session{}, fmt.Errorf("decode messages of session %s: %w", session.ID, err)
	}
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
