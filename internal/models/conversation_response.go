package models

import "time"

type ConversationResponse struct {
	ID            uint            `json:"id"`
	Participants  []*UserResponse `json:"participants"`
	LastMessage   *Message        `json:"last_message"`
	LastMessageAt *time.Time      `json:"last_message_at"`
	Unseen        bool            `json:"unseen"`
}
