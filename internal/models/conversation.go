package models

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// MaxConversationParticipants caps the size of a participant set.
const MaxConversationParticipants = 10

// Conversation is the shared object between a fixed set of participants.
// Identity is the canonical participant key: exactly one conversation exists
// per distinct participant set. Conversations are never physically deleted;
// Deletions holds the per-user soft-delete set, cleared on new activity.
type Conversation struct {
	gorm.Model
	ParticipantsKey string                 `gorm:"uniqueIndex;not null" json:"-"`
	Participants    []User                 `gorm:"many2many:conversation_participants;" json:"participants"`
	Deletions       []ConversationDeletion `json:"-"`
	ReadStates      []ReadState            `json:"-"`
	LastMessageAt   *time.Time             `json:"last_message_at"`
}

// NormalizeParticipants appends the requester if absent, deduplicates and
// sorts the set in ascending order.
func NormalizeParticipants(participantIDs []uint, requesterID uint) []uint {
	seen := make(map[uint]bool, len(participantIDs)+1)
	normalized := make([]uint, 0, len(participantIDs)+1)
	for _, id := range append(participantIDs, requesterID) {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		normalized = append(normalized, id)
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i] < normalized[j] })
	return normalized
}

// CanonicalParticipantsKey derives the conversation lookup key from a
// participant set: sorted, deduplicated ids joined with ":".
func CanonicalParticipantsKey(participantIDs []uint) string {
	ids := NormalizeParticipants(participantIDs, 0)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ":")
}

func (conversation *Conversation) ParticipantIDs() []uint {
	ids := make([]uint, 0, len(conversation.Participants))
	for _, participant := range conversation.Participants {
		ids = append(ids, participant.ID)
	}
	return ids
}

func (conversation *Conversation) HasParticipant(userID uint) bool {
	for _, participant := range conversation.Participants {
		if participant.ID == userID {
			return true
		}
	}
	return false
}

func (conversation *Conversation) IsDeletedBy(userID uint) bool {
	for _, deletion := range conversation.Deletions {
		if deletion.UserID == userID {
			return true
		}
	}
	return false
}

func (conversation *Conversation) readStateFor(userID uint) *ReadState {
	for i := range conversation.ReadStates {
		if conversation.ReadStates[i].UserID == userID {
			return &conversation.ReadStates[i]
		}
	}
	return nil
}

// UnseenFor derives the unseen flag for a viewer. It is recomputed on every
// read and never stored: an empty conversation is never unseen; past that,
// unseen is true when the viewer has no read-state entry, when the entry
// points at no message, or when the pointed-at message is not the
// conversation's most recent one.
func (conversation *Conversation) UnseenFor(userID uint) bool {
	if conversation.LastMessageAt == nil {
		return false
	}
	readState := conversation.readStateFor(userID)
	if readState == nil {
		return true
	}
	if readState.LastSeenMessage == nil {
		return true
	}
	return !readState.LastSeenMessage.CreatedAt.Equal(*conversation.LastMessageAt)
}

func (conversation *Conversation) ToConversationResponse(lastMessage *Message, unseen bool) ConversationResponse {
	participants := []*UserResponse{}
	for _, participant := range conversation.Participants {
		participants = append(participants, participant.ToUserResponse())
	}
	return ConversationResponse{
		ID:            conversation.ID,
		Participants:  participants,
		LastMessage:   lastMessage,
		LastMessageAt: conversation.LastMessageAt,
		Unseen:        unseen,
	}
}
