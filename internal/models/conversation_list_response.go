package models

type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	Limit         int                    `json:"limit"`
	Skip          int                    `json:"skip"`
	Total         int64                  `json:"total"`
}
