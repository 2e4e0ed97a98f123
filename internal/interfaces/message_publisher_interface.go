package interfaces

import (
	"chirpchat/internal/models"
)

// MessagePublisher fans a newly appended message out to live subscribers of
// its conversation. Delivery is best-effort: callers log and swallow errors,
// absent subscribers catch up by fetching the message log.
type MessagePublisher interface {
	PublishNewMessage(conversationID uint, message *models.Message) error
}
