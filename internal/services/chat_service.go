package services

import (
	"errors"
	"log"

	"chirpchat/internal/errs"
	"chirpchat/internal/interfaces"
	"chirpchat/internal/models"
	"chirpchat/internal/validators"
)

// ChatService owns the conversation and messaging semantics: conversation
// identity resolution, the append-only message log, read-state tracking and
// soft-delete visibility. Fan-out publishing happens here so both the REST
// and the socket surface go through one append path.
type ChatService struct {
	chatRepo  interfaces.ChatRepository
	users     interfaces.UserDirectory
	publisher interfaces.MessagePublisher
}

func NewChatService(
	chatRepo interfaces.ChatRepository,
	users interfaces.UserDirectory,
	publisher interfaces.MessagePublisher,
) *ChatService {
	return &ChatService{
		chatRepo:  chatRepo,
		users:     users,
		publisher: publisher,
	}
}

// ResolveConversation returns the canonical conversation for a participant
// set, creating it when none exists. The requester is appended to the set if
// absent; the set is deduplicated and sorted, so any permutation of the same
// participants resolves to the same conversation. The boolean reports whether
// a new conversation was created.
func (cs *ChatService) ResolveConversation(requesterID uint, participantIDs []uint) (*models.ConversationResponse, bool, []error) {
	var errors []error

	normalized := models.NormalizeParticipants(participantIDs, requesterID)
	if len(normalized) == 0 {
		errors = append(errors, errs.ErrEmptyParticipants)
		return nil, false, errors
	}
	if len(normalized) > models.MaxConversationParticipants {
		errors = append(errors, errs.ErrTooManyParticipants)
		return nil, false, errors
	}

	missing, err := cs.users.MissingUsers(normalized)
	if err != nil {
		errors = append(errors, err)
		return nil, false, errors
	}
	if len(missing) > 0 {
		errors = append(errors, errs.ErrInvalidParticipant)
		return nil, false, errors
	}

	key := models.CanonicalParticipantsKey(normalized)
	conversation, created, err := cs.chatRepo.FindOrCreateConversation(key, normalized)
	if err != nil {
		errors = append(errors, err)
		return nil, false, errors
	}

	response := cs.toResponse(conversation, requesterID)
	return &response, created, nil
}

// GetUserConversations lists the conversations the user participates in and
// has not soft-deleted, newest activity first, each annotated with the
// derived unseen flag.
func (cs *ChatService) GetUserConversations(userID uint, limit, skip int) (*models.ConversationListResponse, []error) {
	var errors []error

	conversations, total, err := cs.chatRepo.GetUserConversations(userID, limit, skip)
	if err != nil {
		errors = append(errors, err)
		return nil, errors
	}

	responses := []models.ConversationResponse{}
	for i := range conversations {
		responses = append(responses, cs.toResponse(&conversations[i], userID))
	}

	return &models.ConversationListResponse{
		Conversations: responses,
		Limit:         limit,
		Skip:          skip,
		Total:         total,
	}, nil
}

// SaveMessage validates and appends a message, then fans it out to live
// subscribers. A publish failure is logged and swallowed: the sender already
// has a durable message, absent subscribers catch up on their next fetch.
func (cs *ChatService) SaveMessage(conversationID, senderID uint, request *models.MessageRequest) (*models.Message, []error) {
	var errorList []error

	if validationErrs := validators.ValidateMessageContent(request); len(validationErrs) > 0 {
		return nil, validationErrs
	}

	conversation, err := cs.chatRepo.GetConversationByID(conversationID)
	if err != nil {
		errorList = append(errorList, err)
		return nil, errorList
	}
	if !conversation.HasParticipant(senderID) {
		errorList = append(errorList, errs.ErrUnauthorized)
		return nil, errorList
	}

	// Recipients are fixed at creation: participants minus sender.
	recipients := models.UintList{}
	for _, id := range conversation.ParticipantIDs() {
		if id != senderID {
			recipients = append(recipients, id)
		}
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		RecipientIDs:   recipients,
		Text:           request.Text,
		Images:         models.StringList(request.Images),
		Gifs:           models.StringList(request.Gifs),
	}

	saved, err := cs.chatRepo.SaveMessage(message)
	if err != nil {
		errorList = append(errorList, err)
		return nil, errorList
	}

	if err := cs.publisher.PublishNewMessage(conversationID, saved); err != nil {
		log.Printf("SaveMessage - error publishing new message event: %v", err)
	}

	return saved, nil
}

// GetConversationMessages returns one reverse-chronological page of the log
// plus the participant list and total count. As a side effect the viewer's
// read state moves to the newest message of the fetched page, so paging
// through history does not mark the user caught-up until page one is fetched.
func (cs *ChatService) GetConversationMessages(conversationID, userID uint, page, size int) (*models.MessageListResponse, []error) {
	var errorList []error

	conversation, err := cs.chatRepo.GetConversationByID(conversationID)
	if err != nil {
		errorList = append(errorList, err)
		return nil, errorList
	}
	if !conversation.HasParticipant(userID) {
		errorList = append(errorList, errs.ErrUnauthorized)
		return nil, errorList
	}

	messages, total, err := cs.chatRepo.GetConversationMessages(conversationID, page, size)
	if err != nil {
		errorList = append(errorList, err)
		return nil, errorList
	}

	if len(messages) > 0 {
		if err := cs.chatRepo.UpsertReadState(conversationID, userID, messages[0].ID); err != nil {
			log.Printf("GetConversationMessages - error updating read state: %v", err)
		}
	}

	participants := []*models.UserResponse{}
	for _, participant := range conversation.Participants {
		participants = append(participants, participant.ToUserResponse())
	}

	return &models.MessageListResponse{
		Messages:     messages,
		Participants: participants,
		Page:         page,
		Size:         size,
		Total:        total,
	}, nil
}

// SoftDeleteConversation hides the conversation from the user's list without
// touching anyone else's view. Repeating the call yields the distinct
// ErrAlreadyDeleted signal.
func (cs *ChatService) SoftDeleteConversation(conversationID, userID uint) []error {
	var errorList []error

	conversation, err := cs.chatRepo.GetConversationByID(conversationID)
	if err != nil {
		errorList = append(errorList, err)
		return errorList
	}
	if !conversation.HasParticipant(userID) {
		errorList = append(errorList, errs.ErrUnauthorized)
		return errorList
	}

	if err := cs.chatRepo.SoftDeleteConversation(conversationID, userID); err != nil {
		errorList = append(errorList, err)
		return errorList
	}
	return nil
}

// CanAccessConversation reports whether the conversation exists and the user
// is one of its participants. Used by the socket surface before upgrading.
func (cs *ChatService) CanAccessConversation(conversationID, userID uint) (bool, error) {
	conversation, err := cs.chatRepo.GetConversationByID(conversationID)
	if err != nil {
		if errors.Is(err, errs.ErrConversationNotFound) {
			return false, nil
		}
		return false, err
	}
	return conversation.HasParticipant(userID), nil
}

func (cs *ChatService) toResponse(conversation *models.Conversation, viewerID uint) models.ConversationResponse {
	var lastMessage *models.Message
	if conversation.LastMessageAt != nil {
		lastMessage, _ = cs.chatRepo.GetConversationLastMessage(conversation.ID)
	}
	return conversation.ToConversationResponse(lastMessage, conversation.UnseenFor(viewerID))
}
