package chat

import "time"

// DefaultTitle is used until the first user message names the conversation.
const DefaultTitle = "New Chat"

// Session is a persisted conversation owned by a single user.
type Session struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"userId"`
	Title         string    `json:"title"`
	Messages      []Message `json:"messages"`
	IsGuestChat   bool      `json:"isGuestChat"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	// Version is bumped by the store on every successful save.
	Version int64 `json:"version"`
}

// Append adds m to the end of the transcript and moves LastMessageAt to its timestamp.
// A timestamp earlier than the current last message is raised to keep the log non-decreasing.
func (s *Session) Append(m Message) Message {
	if n := len(s.Messages); n > 0 {
		if last := s.Messages[n-1].Timestamp; m.Timestamp.Before(last) {
			m.Timestamp = last
		}
	}
	s.Messages = append(s.Messages, m)
	s.LastMessageAt = m.Timestamp
	return m
}

// CountBySender returns how many messages in the transcript were written by sender.
func (s *Session) CountBySender(sender Sender) int {
	count := 0
	for _, m := range s.Messages {
		if m.Sender == sender {
			count++
		}
	}
	return count
}

// LastBySender returns the most recent message written by sender.
func (s *Session) LastBySender(sender Sender) (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Sender == sender {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// Clone returns a copy whose transcript can be appended to without touching s.
func (s Session) Clone() Session {
	cloned := s
	cloned.Messages = append([]Message(nil), s.Messages...)
	return cloned
}
