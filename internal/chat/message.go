package chat

import (
	"time"

	"github.com/google/uuid"
)

const (
	// HistoryLimit is the number of messages kept for new joiners.
	HistoryLimit = 100

	// SystemUserID is the author id of synthetic join and leave notices.
	SystemUserID = "system"

	// SystemUsername is the display name used for synthetic notices.
	SystemUsername = "System"
)

// Message is a chat message as broadcast to clients.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Username  string    `json:"username"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
	Delivered bool      `json:"delivered"`
}

// NewMessage builds a message authored by user.
func NewMessage(user User, text string, at time.Time) Message {
	return Message{
		ID:        NewMessageID(),
		Text:      text,
		Username:  user.Username,
		UserID:    user.ID,
		Timestamp: at,
		Delivered: true,
	}
}

// NewNotice builds a system message such as "alice joined the chat".
func NewNotice(text string, at time.Time) Message {
	return Message{
		ID:        NewMessageID(),
		Text:      text,
		Username:  SystemUsername,
		UserID:    SystemUserID,
		Timestamp: at,
		Delivered: true,
	}
}

// IsNotice reports whether m was synthesized rather than sent by a user.
func (m Message) IsNotice() bool {
	return m.UserID == SystemUserID
}

// NewMessageID returns a UUIDv7 string: a millisecond timestamp followed by
// random bits. Ids sort by creation time but uniqueness is not promised.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Log is a bounded, append-ordered message buffer.
type Log struct {
	messages []Message
	limit    int
}

// NewLog returns a log that keeps at most limit messages. A non-positive
// limit falls back to HistoryLimit.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = HistoryLimit
	}
	return &Log{
		messages: make([]Message, 0, limit),
		limit:    limit,
	}
}

// Append adds msg to the tail and drops the oldest entries once the log
// exceeds its limit.
func (l *Log) Append(msg Message) {
	l.messages = append(l.messages, msg)
	if len(l.messages) > l.limit {
		trimmed := make([]Message, l.limit, l.limit+1)
		copy(trimmed, l.messages[len(l.messages)-l.limit:])
		l.messages = trimmed
	}
}

// Snapshot returns a copy of the buffer, oldest first.
func (l *Log) Snapshot() []Message {
	snapshot := make([]Message, len(l.messages))
	copy(snapshot, l.messages)
	return snapshot
}

// Len reports how many messages are buffered.
func (l *Log) Len() int {
	return len(l.messages)
}
