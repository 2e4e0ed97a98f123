package models

type LoginRequestBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateConversationRequestBody struct {
	ParticipantIds []uint `json:"participant_ids"`
}

type MessageRequest struct {
	Text   string   `json:"text"`
	Images []string `json:"images"`
	Gifs   []string `json:"gifs"`
}
