package repositories

import (
	"errors"

	"chirpchat/internal/errs"
	"chirpchat/internal/models"
	"chirpchat/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{
		db: db,
	}
}

// FindOrCreateConversation resolves the conversation owning the canonical
// participant key, creating it when absent. The unique index on
// participants_key guards against two concurrent creators; the loser of that
// race re-reads the winner's row.
func (chr *ChatRepository) FindOrCreateConversation(key string, participantIDs []uint) (*models.Conversation, bool, error) {
	var existing models.Conversation
	err := chr.db.Where("participants_key = ?", key).First(&existing).Error
	if err == nil {
		conversation, loadErr := chr.GetConversationByID(existing.ID)
		return conversation, false, loadErr
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	participants := make([]models.User, 0, len(participantIDs))
	for _, id := range participantIDs {
		participants = append(participants, models.User{Model: gorm.Model{ID: id}})
	}
	conversation := models.Conversation{
		ParticipantsKey: key,
		Participants:    participants,
	}

	createErr := chr.db.Omit("Participants.*").Create(&conversation).Error
	if createErr != nil {
		// A concurrent resolve with the same set may have won the race.
		var winner models.Conversation
		if findErr := chr.db.Where("participants_key = ?", key).First(&winner).Error; findErr == nil {
			loaded, loadErr := chr.GetConversationByID(winner.ID)
			return loaded, false, loadErr
		}
		return nil, false, createErr
	}

	created, loadErr := chr.GetConversationByID(conversation.ID)
	return created, true, loadErr
}

func (chr *ChatRepository) GetConversationByID(conversationID uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := chr.db.
		Preload("Participants").
		Preload("Deletions").
		Preload("ReadStates.LastSeenMessage").
		First(&conversation, conversationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

func (chr *ChatRepository) GetUserConversations(userID uint, limit, skip int) ([]models.Conversation, int64, error) {
	var conversations []models.Conversation
	var total int64

	transactionErr := chr.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Preload("Participants").
			Preload("Deletions").
			Preload("ReadStates.LastSeenMessage").
			Where("id IN (SELECT conversation_id FROM conversation_participants WHERE user_id = ?)", userID).
			Where("id NOT IN (SELECT conversation_id FROM conversation_deletions WHERE user_id = ?)", userID).
			Order("last_message_at DESC NULLS LAST").
			Limit(limit).
			Offset(skip).
			Find(&conversations).Error; err != nil {
			return err
		}

		if err := tx.
			Model(&models.Conversation{}).
			Where("id IN (SELECT conversation_id FROM conversation_participants WHERE user_id = ?)", userID).
			Where("id NOT IN (SELECT conversation_id FROM conversation_deletions WHERE user_id = ?)", userID).
			Count(&total).Error; err != nil {
			return err
		}

		return nil
	})
	if transactionErr != nil {
		return nil, 0, transactionErr
	}

	return conversations, total, nil
}

// SaveMessage appends the message and keeps the conversation row consistent
// with it in one transaction: the deletion set is cleared (revival), the
// last-message timestamp is set to exactly the message's creation time so the
// unseen derivation can compare the two, and the sender's read state moves to
// the new message. The conversation row is locked so concurrent sends into
// the same conversation serialize.
func (chr *ChatRepository) SaveMessage(message *models.Message) (*models.Message, error) {
	transactionErr := chr.db.Transaction(func(tx *gorm.DB) error {
		var conversation models.Conversation
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&conversation, message.ConversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrConversationNotFound
			}
			return err
		}

		if err := tx.Create(message).Error; err != nil {
			return err
		}

		// Revival: new activity resurfaces the conversation for everyone
		// who had soft-deleted it.
		if err := tx.
			Where("conversation_id = ?", message.ConversationID).
			Delete(&models.ConversationDeletion{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Conversation{}).
			Where("id = ?", message.ConversationID).
			Update("last_message_at", message.CreatedAt).Error; err != nil {
			return err
		}

		// The sender has seen their own message.
		return upsertReadState(tx, message.ConversationID, message.SenderID, message.ID)
	})
	if transactionErr != nil {
		return nil, transactionErr
	}
	return message, nil
}

func (chr *ChatRepository) GetConversationMessages(conversationID uint, page, size int) ([]models.Message, int64, error) {
	var messages []models.Message
	var total int64

	transactionErr := chr.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Scopes(utils.Paginate(page, size)).
			Where("conversation_id = ?", conversationID).
			Order("created_at DESC, id DESC").
			Find(&messages).Error; err != nil {
			return err
		}

		if err := tx.
			Model(&models.Message{}).
			Where("conversation_id = ?", conversationID).
			Count(&total).Error; err != nil {
			return err
		}

		return nil
	})
	if transactionErr != nil {
		return nil, 0, transactionErr
	}

	return messages, total, nil
}

func (chr *ChatRepository) GetConversationLastMessage(conversationID uint) (*models.Message, error) {
	var message models.Message
	err := chr.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

func (chr *ChatRepository) UpsertReadState(conversationID, userID, messageID uint) error {
	return upsertReadState(chr.db, conversationID, userID, messageID)
}

func upsertReadState(tx *gorm.DB, conversationID, userID, messageID uint) error {
	readState := models.ReadState{
		ConversationID:    conversationID,
		UserID:            userID,
		LastSeenMessageID: &messageID,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_seen_message_id", "updated_at"}),
	}).Create(&readState).Error
}

func (chr *ChatRepository) SoftDeleteConversation(conversationID, userID uint) error {
	return chr.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ConversationDeletion{}).
			Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errs.ErrAlreadyDeleted
		}
		return tx.Create(&models.ConversationDeletion{
			ConversationID: conversationID,
			UserID:         userID,
		}).Error
	})
}
