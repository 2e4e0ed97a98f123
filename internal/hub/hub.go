// Package hub implements the real-time fan-out channel: one topic per
// conversation, live subscribers only, no history. Events travel through a
// Redis pub/sub channel so every process instance relays them to its own
// websocket clients.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"chirpchat/internal/enums"
	"chirpchat/internal/models"
	redisModels "chirpchat/internal/models/redis"
	socketModels "chirpchat/internal/models/socket"

	"github.com/redis/go-redis/v9"
)

// Conn is the subset of a websocket connection the hub needs. Satisfied by
// *websocket.Conn.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	UserID uint
	Conn   Conn
}

// Hub holds the live subscriber set per conversation. It is constructed
// explicitly, injected where needed and shut down together with the HTTP
// listener.
type Hub struct {
	mu            sync.Mutex
	ctx           context.Context
	redis         *redis.Client
	pubsub        *redis.PubSub
	conversations map[uint][]*Client
}

func NewHub(ctx context.Context, redisClient *redis.Client) *Hub {
	return &Hub{
		ctx:           ctx,
		redis:         redisClient,
		conversations: make(map[uint][]*Client),
	}
}

// Run subscribes to the Redis chat channel and relays incoming events to the
// local subscribers until Shutdown closes the subscription.
func (h *Hub) Run() {
	h.pubsub = h.redis.Subscribe(h.ctx, redisModels.REDIS_CHANNEL_CHAT)
	if _, err := h.pubsub.Receive(h.ctx); err != nil {
		log.Fatalf("Could not subscribe to channel: %v", err)
	}

	for msg := range h.pubsub.Channel() {
		var event redisModels.RedisPublishedMessage
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("Error unmarshalling event: %v", err)
			continue
		}
		h.dispatch(event)
	}
}

// Join adds a client to a conversation topic. Idempotent: joining twice with
// the same connection keeps a single subscription.
func (h *Hub) Join(conversationID uint, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, existing := range h.conversations[conversationID] {
		if existing.Conn == client.Conn {
			return
		}
	}
	h.conversations[conversationID] = append(h.conversations[conversationID], client)
}

// Leave removes a connection from a conversation topic. Idempotent: leaving
// an already absent connection is a no-op.
func (h *Hub) Leave(conversationID uint, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(conversationID, conn)
}

func (h *Hub) removeLocked(conversationID uint, conn Conn) {
	clients := h.conversations[conversationID]
	for i, client := range clients {
		if client.Conn == conn {
			h.conversations[conversationID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.conversations[conversationID]) == 0 {
		delete(h.conversations, conversationID)
	}
}

// Subscribers reports how many connections are subscribed to a conversation.
func (h *Hub) Subscribers(conversationID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conversations[conversationID])
}

// PublishNewMessage fans a freshly persisted message out to the subscribers
// of its conversation. Called only after the append transaction has
// committed, so a pushed message is always retrievable from the log.
func (h *Hub) PublishNewMessage(conversationID uint, message *models.Message) error {
	return h.publish(redisModels.RedisPublishedMessage{
		Event:          enums.SOCKET_EVENT_NEW_MESSAGE,
		ConversationID: conversationID,
		Payload:        message,
	})
}

// PublishTyping relays a typing indicator. Pure broadcast, never persisted.
func (h *Hub) PublishTyping(conversationID uint, payload socketModels.IsTypingPayload) error {
	return h.publish(redisModels.RedisPublishedMessage{
		Event:          enums.SOCKET_EVENT_IS_TYPING,
		ConversationID: conversationID,
		Payload:        payload,
	})
}

func (h *Hub) publish(event redisModels.RedisPublishedMessage) error {
	jsonEvent, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.redis.Publish(h.ctx, redisModels.REDIS_CHANNEL_CHAT, jsonEvent).Err()
}

func (h *Hub) dispatch(event redisModels.RedisPublishedMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var dead []Conn
	for _, client := range h.conversations[event.ConversationID] {
		if err := client.Conn.WriteJSON(event); err != nil {
			log.Printf("Error writing json: %v", err)
			if closeErr := client.Conn.Close(); closeErr != nil {
				log.Printf("Error closing connection: %v", closeErr)
			}
			dead = append(dead, client.Conn)
		}
	}
	for _, conn := range dead {
		h.removeLocked(event.ConversationID, conn)
	}
}

// Shutdown closes the Redis subscription and every live connection.
func (h *Hub) Shutdown() {
	if h.pubsub != nil {
		if err := h.pubsub.Close(); err != nil {
			log.Printf("Error closing pubsub: %v", err)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conversationID, clients := range h.conversations {
		for _, client := range clients {
			if err := client.Conn.Close(); err != nil {
				log.Printf("Error closing connection: %v", err)
			}
		}
		delete(h.conversations, conversationID)
	}
}
