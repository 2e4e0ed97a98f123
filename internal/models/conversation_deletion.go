package models

import (
	"time"
)

// ConversationDeletion marks a conversation as soft-deleted for one user.
// It only suppresses the conversation in that user's list; the underlying
// data stays intact. Revival removes the rows outright, so the table carries
// no gorm soft-delete column of its own.
type ConversationDeletion struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	ConversationID uint      `gorm:"uniqueIndex:idx_conversation_deletions_conversation_user;not null" json:"conversation_id"`
	UserID         uint      `gorm:"uniqueIndex:idx_conversation_deletions_conversation_user;not null" json:"user_id"`
}
