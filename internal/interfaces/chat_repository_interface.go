package interfaces

import (
	"chirpchat/internal/models"
)

// ChatRepository is the persistence boundary of the messaging engine. The
// gorm implementation lives in internal/repositories; tests use an in-memory
// fake.
type ChatRepository interface {
	// FindOrCreateConversation resolves the conversation owning the given
	// canonical key, creating it with the given participant set when absent.
	// The boolean reports whether a new conversation was created.
	FindOrCreateConversation(key string, participantIDs []uint) (*models.Conversation, bool, error)

	// GetConversationByID loads a conversation with participants, deletions
	// and read states (including the pointed-at messages) preloaded.
	GetConversationByID(conversationID uint) (*models.Conversation, error)

	// GetUserConversations returns the conversations where the user is a
	// participant and has not soft-deleted, ordered by last-message time
	// descending, plus the total count of such conversations.
	GetUserConversations(userID uint, limit, skip int) ([]models.Conversation, int64, error)

	// SaveMessage appends a message and, in the same transaction, clears the
	// conversation's deletion set, advances its last-message timestamp and
	// moves the sender's read state to the new message.
	SaveMessage(message *models.Message) (*models.Message, error)

	// GetConversationMessages returns one reverse-chronological page plus the
	// total message count of the conversation.
	GetConversationMessages(conversationID uint, page, size int) ([]models.Message, int64, error)

	// UpsertReadState points the user's read state at the given message,
	// creating the row on first view.
	UpsertReadState(conversationID, userID, messageID uint) error

	// SoftDeleteConversation adds the user to the conversation's deletion
	// set. Returns errs.ErrAlreadyDeleted when the user is already in it.
	SoftDeleteConversation(conversationID, userID uint) error

	GetConversationLastMessage(conversationID uint) (*models.Message, error)
}
