package account

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/dsa-tutor/backend/internal/model/chat"
	"github.com/zhouzirui/dsa-tutor/backend/internal/model/user"
	"github.com/zhouzirui/dsa-tutor/backend/internal/store"
)

const (
	guestName      = "Guest User"
	maxNameLength  = 100
	guestRetention = 7 * 24 * time.Hour
)

var pictureURL = regexp.MustCompile(`^https?://.+\..+`)

var (
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidEmail    = errors.New("valid email is required")
	ErrInvalidPicture  = errors.New("picture must be an http(s) URL")
	ErrNoProfileFields = errors.New("no valid fields to update")
	ErrEmailTaken      = errors.New("email already registered")
	ErrNotFound        = errors.New("user not found")
	ErrGuestNotFound   = errors.New("guest session not found")
	ErrUnavailable     = errors.New("user storage unavailable")
)

// Service creates users and reports on their activity.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService returns an account service backed by st.
func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// CreateGuest provisions an anonymous user.
func (s *Service) CreateGuest(ctx context.Context) (user.User, error) {
	now := s.timestamp()
	guestID := "guest_" + uuid.NewString()
	u := user.User{
		ID:         uuid.NewString(),
		Name:       guestName,
		IsGuest:    true,
		GuestID:    guestID,
		CreatedAt:  now,
		LastActive: now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return user.User{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	log.Printf("[account] created guest user=%s", u.ID)
	return u, nil
}

// Register creates a named user. The email is normalised to lower case.
func (s *Service) Register(ctx context.Context, name, email string) (user.User, error) {
	name, err := normalizeName(name)
	if err != nil {
		return user.User{}, err
	}
	email, err = normalizeEmail(email)
	if err != nil {
		return user.User{}, err
	}

	now := s.timestamp()
	u := user.User{
		ID:         uuid.NewString(),
		Name:       name,
		Email:      email,
		CreatedAt:  now,
		LastActive: now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return user.User{}, ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	log.Printf("[account] registered user=%s", u.ID)
	return u, nil
}

// Get loads a user by id.
func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return user.User{}, ErrNotFound
		}
		return user.User{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return u, nil
}

// UpdateProfile replaces the name and/or picture of a user. Empty arguments leave the field as is.
func (s *Service) UpdateProfile(ctx context.Context, id, name, picture string) (user.User, error) {
	name = strings.TrimSpace(name)
	picture = strings.TrimSpace(picture)
	if name == "" && picture == "" {
		return user.User{}, ErrNoProfileFields
	}
	if len(name) > maxNameLength {
		return user.User{}, ErrInvalidName
	}
	if picture != "" && !pictureURL.MatchString(picture) {
		return user.User{}, ErrInvalidPicture
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if name != "" {
		u.Name = name
	}
	if picture != "" {
		u.Picture = picture
	}
	u.LastActive = s.timestamp()
	if err := s.save(ctx, u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// ConvertGuest turns the guest identified by guestID into a regular user, keeping its id and chats.
func (s *Service) ConvertGuest(ctx context.Context, guestID, name, email, picture string) (user.User, error) {
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		return user.User{}, ErrGuestNotFound
	}
	name, err := normalizeName(name)
	if err != nil {
		return user.User{}, err
	}
	email, err = normalizeEmail(email)
	if err != nil {
		return user.User{}, err
	}
	picture = strings.TrimSpace(picture)
	if picture != "" && !pictureURL.MatchString(picture) {
		return user.User{}, ErrInvalidPicture
	}

	u, err := s.store.GetUserByGuestID(ctx, guestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return user.User{}, ErrGuestNotFound
		}
		return user.User{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !u.IsGuest {
		return user.User{}, ErrGuestNotFound
	}

	u.Name = name
	u.Email = email
	u.Picture = picture
	u.IsGuest = false
	u.GuestID = ""
	u.LastActive = s.timestamp()
	if err := s.save(ctx, u); err != nil {
		return user.User{}, err
	}
	log.Printf("[account] converted guest user=%s", u.ID)
	return u, nil
}

// Delete removes a user together with their chats.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	log.Printf("[account] deleted user=%s", id)
	return nil
}

// CleanupGuests deletes guests idle for longer than the retention window and returns how many went.
func (s *Service) CleanupGuests(ctx context.Context) (int64, error) {
	cutoff := s.timestamp().Add(-guestRetention)
	n, err := s.store.DeleteInactiveGuests(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	log.Printf("[account] cleaned up %d guests inactive since %s", n, cutoff.Format(time.RFC3339))
	return n, nil
}

func (s *Service) save(ctx context.Context, u user.User) error {
	if err := s.store.UpdateUser(ctx, u); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return ErrNotFound
		case errors.Is(err, store.ErrConflict):
			return ErrEmailTaken
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Stats counts the user's chats and messages across every session they own.
func (s *Service) Stats(ctx context.Context, id string) (user.Stats, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return user.Stats{}, err
	}

	sessions, err := s.store.ListSessionsByOwner(ctx, id, 0)
	if err != nil {
		return user.Stats{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	stats := user.Stats{TotalChats: len(sessions)}
	for i := range sessions {
		stats.TotalMessages += len(sessions[i].Messages)
		stats.UserMessages += sessions[i].CountBySender(chat.SenderUser)
		stats.BotMessages += sessions[i].CountBySender(chat.SenderBot)
		if updated := sessions[i].UpdatedAt; stats.LastActivity == nil || updated.After(*stats.LastActivity) {
			stats.LastActivity = &updated
		}
	}
	// sessions are ordered by most recent activity
	if len(sessions) > 0 {
		last := sessions[0].LastMessageAt
		stats.LastChatAt = &last
	}
	return stats, nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || len(name) > maxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", ErrInvalidEmail
	}
	return email, nil
}
