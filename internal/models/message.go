package models

import (
	"gorm.io/gorm"
)

// MaxMessageTextLength caps the text body of a single message.
const MaxMessageTextLength = 1000

// Message is an immutable entry in a conversation's append-only log.
// Recipients are the conversation participants minus the sender, computed at
// creation and fixed thereafter. Images and gifs hold opaque content URLs.
type Message struct {
	gorm.Model
	ConversationID uint         `gorm:"index;not null" json:"conversation_id"`
	Conversation   Conversation `json:"-"`
	SenderID       uint         `gorm:"not null" json:"sender_id"`
	RecipientIDs   UintList     `gorm:"type:jsonb" json:"recipient_ids"`
	Text           string       `json:"text"`
	Images         StringList   `gorm:"type:jsonb" json:"images"`
	Gifs           StringList   `gorm:"type:jsonb" json:"gifs"`
}

// HasContent reports whether the message carries at least one form of
// content: text, an image or a gif.
func (message *Message) HasContent() bool {
	return message.Text != "" || len(message.Images) > 0 || len(message.Gifs) > 0
}
