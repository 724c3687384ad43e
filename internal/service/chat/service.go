package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/dsa-tutor/backend/internal/model/chat"
	"github.com/zhouzirui/dsa-tutor/backend/internal/service/ai"
	"github.com/zhouzirui/dsa-tutor/backend/internal/store"
)

// listLimit caps how many sessions ListSessions returns.
const listLimit = 50

// Service manages chat sessions and runs conversation turns against a store.
type Service struct {
	store    store.Store
	remote   ai.Generator
	fallback ai.Generator
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithRemote sets the generator tried first on every turn. Without it every turn is
// answered by the fallback generator.
func WithRemote(g ai.Generator) Option {
	return func(s *Service) { s.remote = g }
}

// WithFallback replaces the local topic-table generator.
func WithFallback(g ai.Generator) Option {
	return func(s *Service) { s.fallback = g }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a chat service on top of st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		fallback: ai.FallbackGenerator{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams describes a new session.
type CreateParams struct {
	OwnerID string
	Title   string
	// InitialMessage optionally seeds the transcript. Sender defaults to user.
	InitialMessage *chat.Message
}

// TurnResult is the outcome of one successful turn.
type TurnResult struct {
	Session     chat.Session `json:"chat"`
	UserMessage chat.Message `json:"userMessage"`
	BotMessage  chat.Message `json:"botMessage"`
}

// CreateSession provisions an empty (or seeded) session for an existing user.
func (s *Service) CreateSession(ctx context.Context, params CreateParams) (chat.Session, error) {
	owner, err := s.store.GetUser(ctx, params.OwnerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return chat.Session{}, ErrOwnerNotFound
		}
		return chat.Session{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	now := s.timestamp()
	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = chat.DefaultTitle
	}

	session := chat.Session{
		ID:            uuid.NewString(),
		OwnerID:       owner.ID,
		Title:         title,
		Messages:      make([]chat.Message, 0, 16),
		IsGuestChat:   owner.IsGuest,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if seed := params.InitialMessage; seed != nil {
		text := strings.TrimSpace(seed.Text)
		if text == "" {
			return chat.Session{}, ErrInvalidInput
		}
		sender := seed.Sender
		if sender == "" {
			sender = chat.SenderUser
		}
		if !sender.Valid() {
			return chat.Session{}, fmt.Errorf("%w: unknown sender %q", ErrInvalidInput, sender)
		}
		msg := s.newMessage(text, sender)
		if !seed.Timestamp.IsZero() {
			msg.Timestamp = seed.Timestamp.UTC()
		}
		session.Append(msg)
	}

	if err := s.store.CreateSession(ctx, &session); err != nil {
		return chat.Session{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	log.Printf("[chat] created session=%s owner=%s guest=%t", session.ID, session.OwnerID, session.IsGuestChat)
	return session, nil
}

// GetSession loads a session by id.
func (s *Service) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return chat.Session{}, ErrSessionNotFound
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return chat.Session{}, ctxErr
		}
		return chat.Session{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return session, nil
}

// ListSessions returns the owner's most recently active sessions.
func (s *Service) ListSessions(ctx context.Context, ownerID string) ([]chat.Session, error) {
	sessions, err := s.store.ListSessionsByOwner(ctx, ownerID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return sessions, nil
}

// DeleteSession removes one session.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	log.Printf("[chat] deleted session=%s", sessionID)
	return nil
}

// DeleteAllSessions removes every session of ownerID and reports how many were removed.
func (s *Service) DeleteAllSessions(ctx context.Context, ownerID string) (int64, error) {
	deleted, err := s.store.DeleteSessionsByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	log.Printf("[chat] deleted %d sessions of owner=%s", deleted, ownerID)
	return deleted, nil
}

// StartTurn appends text as a user message, answers it and persists both messages.
// Remote generation failures are answered locally and never fail the turn. Nothing is
// stored unless the final save succeeds.
func (s *Service) StartTurn(ctx context.Context, sessionID, text string) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrInvalidInput
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	userMsg := s.newMessage(text, chat.SenderUser)
	history := append(append(make([]chat.Message, 0, len(session.Messages)+1), session.Messages...), userMsg)

	reply := s.respond(ctx, session.ID, history)
	if err := ctx.Err(); err != nil {
		return TurnResult{}, err
	}
	botMsg := s.newMessage(reply, chat.SenderBot)

	working := session.Clone()
	userMsg, botMsg = applyTurn(&working, userMsg, botMsg)

	err = s.store.SaveSession(ctx, &working)
	if errors.Is(err, store.ErrVersionConflict) {
		log.Printf("[chat] concurrent update on session=%s, reapplying turn", session.ID)
		working, userMsg, botMsg, err = s.reapply(ctx, session.ID, userMsg, botMsg)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, ErrSessionNotFound) {
			return TurnResult{}, ErrSessionNotFound
		}
		if errors.Is(err, ErrTransient) {
			return TurnResult{}, err
		}
		return TurnResult{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	return TurnResult{Session: working, UserMessage: userMsg, BotMessage: botMsg}, nil
}

// reapply puts an already answered turn on top of the latest stored session. It runs once;
// a second conflict is reported as transient.
func (s *Service) reapply(ctx context.Context, sessionID string, userMsg, botMsg chat.Message) (chat.Session, chat.Message, chat.Message, error) {
	latest, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Session{}, chat.Message{}, chat.Message{}, err
	}

	userMsg, botMsg = applyTurn(&latest, userMsg, botMsg)
	if err := s.store.SaveSession(ctx, &latest); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return chat.Session{}, chat.Message{}, chat.Message{}, fmt.Errorf("%w: %v", ErrTransient, err)
		}
		return chat.Session{}, chat.Message{}, chat.Message{}, err
	}
	return latest, userMsg, botMsg, nil
}

// applyTurn appends the pair and titles the session when userMsg is its first user message.
func applyTurn(session *chat.Session, userMsg, botMsg chat.Message) (chat.Message, chat.Message) {
	firstUserTurn := session.CountBySender(chat.SenderUser) == 0

	userMsg = session.Append(userMsg)
	botMsg = session.Append(botMsg)

	if firstUserTurn {
		session.Title = DeriveTitle(userMsg.Text)
	}
	return userMsg, botMsg
}

// respond asks the remote generator first and falls back to the local one on failure.
func (s *Service) respond(ctx context.Context, sessionID string, history []chat.Message) string {
	if s.remote != nil {
		result := s.remote.Generate(ctx, history)
		if !result.Failed() {
			return result.Text
		}
		log.Printf("[chat] remote generation failed for session=%s, use fallback: %v", sessionID, result.Err)
	}
	return s.fallback.Generate(ctx, history).Text
}

func (s *Service) newMessage(text string, sender chat.Sender) chat.Message {
	return chat.Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: s.timestamp(),
	}
}

// timestamp is millisecond precision so it survives every store unchanged.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
