package models

// Sender identifies who produced a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is a single chat entry. Messages are immutable once appended;
// their position in the slice is their chronological order.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}
