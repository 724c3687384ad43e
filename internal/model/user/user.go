package user

import "time"

// User is the owner of chat sessions. Guests get a generated guest id and no email.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Picture    string    `json:"picture,omitempty"`
	IsGuest    bool      `json:"isGuest"`
	GuestID    string    `json:"guestId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
}

// Stats summarises a user's activity across their sessions.
type Stats struct {
	TotalChats    int `json:"totalChats"`
	TotalMessages int `json:"totalMessages"`
	UserMessages  int `json:"userMessages"`
	BotMessages   int `json:"botMessages"`
	// LastChatAt is the most recent message time, LastActivity the most recent session write.
	LastChatAt   *time.Time `json:"lastChatAt,omitempty"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`
}
