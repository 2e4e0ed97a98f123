package redis

const REDIS_CHANNEL_CHAT = "chat_events"

type RedisPublishedMessage struct {
	Event          string `json:"event"`
	ConversationID uint   `json:"conversation_id"`
	Payload        any    `json:"payload"`
}
