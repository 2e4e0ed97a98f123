package models

type MessageListResponse struct {
	Messages     []Message       `json:"messages"`
	Participants []*UserResponse `json:"participants"`
	Page         int             `json:"page"`
	Size         int             `json:"size"`
	Total        int64           `json:"total"`
}
