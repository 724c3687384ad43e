package store

import (
	"context"
	"errors"
	"time"

	"github.com/zhouzirui/dsa-tutor/backend/internal/model/chat"
	"github.com/zhouzirui/dsa-tutor/backend/internal/model/user"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned by SaveSession when the stored session changed since it was loaded.
	ErrVersionConflict = errors.New("session version conflict")
	// ErrConflict is returned when a write would duplicate a unique user field (email, guest id).
	ErrConflict = errors.New("unique constraint violated")
)

// Store persists users and their chat sessions.
type Store interface {
	CreateUser(ctx context.Context, u user.User) error
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByGuestID(ctx context.Context, guestID string) (user.User, error)
	// UpdateUser replaces every mutable field of the stored user with u's.
	UpdateUser(ctx context.Context, u user.User) error
	// DeleteUser removes the user together with their sessions.
	DeleteUser(ctx context.Context, id string) error
	// DeleteInactiveGuests removes guests last active before the cutoff, and their sessions,
	// returning how many users were removed.
	DeleteInactiveGuests(ctx context.Context, before time.Time) (int64, error)

	CreateSession(ctx context.Context, session *chat.Session) error
	GetSession(ctx context.Context, id string) (chat.Session, error)
	// ListSessionsByOwner returns sessions with the most recent activity first, then the newest
	// created, then by id. A limit of 0 means no limit.
	ListSessionsByOwner(ctx context.Context, ownerID string, limit int) ([]chat.Session, error)
	// SaveSession writes the whole session if its Version still matches the stored one,
	// then bumps Version on both the stored row and the argument.
	SaveSession(ctx context.Context, session *chat.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteSessionsByOwner(ctx context.Context, ownerID string) (int64, error)

	Close() error
}
