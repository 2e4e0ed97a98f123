package models

import (
	"gorm.io/gorm"
)

// ReadState is the per-participant pointer to the last message the user has
// seen in a conversation. One row per (conversation, user), created lazily on
// the user's first fetch.
type ReadState struct {
	gorm.Model
	ConversationID    uint     `gorm:"uniqueIndex:idx_read_states_conversation_user;not null" json:"conversation_id"`
	UserID            uint     `gorm:"uniqueIndex:idx_read_states_conversation_user;not null" json:"user_id"`
	LastSeenMessageID *uint    `json:"last_seen_message_id"`
	LastSeenMessage   *Message `json:"-"`
}
