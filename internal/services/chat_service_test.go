package services

import (
	"errors"
	"sort"
	"testing"
	"time"

	"chirpchat/internal/errs"
	"chirpchat/internal/models"

	"gorm.io/gorm"
)

type fakeUserDirectory struct {
	users map[uint]bool
}

func (fud *fakeUserDirectory) MissingUsers(userIDs []uint) ([]uint, error) {
	var missing []uint
	for _, id := range userIDs {
		if !fud.users[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type publishedEvent struct {
	conversationID uint
	message        *models.Message
}

type fakePublisher struct {
	events  []publishedEvent
	failing bool
}

func (fp *fakePublisher) PublishNewMessage(conversationID uint, message *models.Message) error {
	if fp.failing {
		return errors.New("redis unavailable")
	}
	fp.events = append(fp.events, publishedEvent{conversationID: conversationID, message: message})
	return nil
}

// fakeChatRepository mirrors the transactional semantics of the gorm
// implementation in memory: append clears the deletion set, advances the
// last-message timestamp to the message's creation time and moves the
// sender's read state.
type fakeChatRepository struct {
	conversations      map[uint]*models.Conversation
	keys               map[string]uint
	messages           map[uint][]models.Message
	nextConversationID uint
	nextMessageID      uint
	clock              time.Time
}

func newFakeChatRepository() *fakeChatRepository {
	return &fakeChatRepository{
		conversations: make(map[uint]*models.Conversation),
		keys:          make(map[string]uint),
		messages:      make(map[uint][]models.Message),
		clock:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (fcr *fakeChatRepository) tick() time.Time {
	fcr.clock = fcr.clock.Add(time.Second)
	return fcr.clock
}

func (fcr *fakeChatRepository) FindOrCreateConversation(key string, participantIDs []uint) (*models.Conversation, bool, error) {
	if id, ok := fcr.keys[key]; ok {
		return fcr.conversations[id], false, nil
	}

	fcr.nextConversationID++
	participants := make([]models.User, 0, len(participantIDs))
	for _, id := range participantIDs {
		participants = append(participants, models.User{Model: gorm.Model{ID: id}})
	}
	conversation := &models.Conversation{
		Model:           gorm.Model{ID: fcr.nextConversationID},
		ParticipantsKey: key,
		Participants:    participants,
	}
	fcr.conversations[conversation.ID] = conversation
	fcr.keys[key] = conversation.ID
	return conversation, true, nil
}

func (fcr *fakeChatRepository) GetConversationByID(conversationID uint) (*models.Conversation, error) {
	conversation, ok := fcr.conversations[conversationID]
	if !ok {
		return nil, errs.ErrConversationNotFound
	}
	return conversation, nil
}

func (fcr *fakeChatRepository) GetUserConversations(userID uint, limit, skip int) ([]models.Conversation, int64, error) {
	var visible []models.Conversation
	for _, conversation := range fcr.conversations {
		if conversation.HasParticipant(userID) && !conversation.IsDeletedBy(userID) {
			visible = append(visible, *conversation)
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		left, right := visible[i].LastMessageAt, visible[j].LastMessageAt
		if left == nil {
			return false
		}
		if right == nil {
			return true
		}
		return left.After(*right)
	})

	total := int64(len(visible))
	if skip >= len(visible) {
		return nil, total, nil
	}
	visible = visible[skip:]
	if limit < len(visible) {
		visible = visible[:limit]
	}
	return visible, total, nil
}

func (fcr *fakeChatRepository) SaveMessage(message *models.Message) (*models.Message, error) {
	conversation, ok := fcr.conversations[message.ConversationID]
	if !ok {
		return nil, errs.ErrConversationNotFound
	}

	fcr.nextMessageID++
	message.ID = fcr.nextMessageID
	message.CreatedAt = fcr.tick()
	fcr.messages[conversation.ID] = append(fcr.messages[conversation.ID], *message)

	conversation.Deletions = nil
	lastMessageAt := message.CreatedAt
	conversation.LastMessageAt = &lastMessageAt
	fcr.upsertReadState(conversation, message.SenderID, message)

	return message, nil
}

func (fcr *fakeChatRepository) GetConversationMessages(conversationID uint, page, size int) ([]models.Message, int64, error) {
	log := fcr.messages[conversationID]
	newestFirst := make([]models.Message, len(log))
	for i, message := range log {
		newestFirst[len(log)-1-i] = message
	}

	total := int64(len(newestFirst))
	offset := (page - 1) * size
	if offset >= len(newestFirst) {
		return nil, total, nil
	}
	newestFirst = newestFirst[offset:]
	if size < len(newestFirst) {
		newestFirst = newestFirst[:size]
	}
	return newestFirst, total, nil
}

func (fcr *fakeChatRepository) GetConversationLastMessage(conversationID uint) (*models.Message, error) {
	log := fcr.messages[conversationID]
	if len(log) == 0 {
		return nil, nil
	}
	last := log[len(log)-1]
	return &last, nil
}

func (fcr *fakeChatRepository) UpsertReadState(conversationID, userID, messageID uint) error {
	conversation, ok := fcr.conversations[conversationID]
	if !ok {
		return errs.ErrConversationNotFound
	}
	for _, message := range fcr.messages[conversationID] {
		if message.ID == messageID {
			seen := message
			fcr.upsertReadState(conversation, userID, &seen)
			return nil
		}
	}
	return nil
}

func (fcr *fakeChatRepository) upsertReadState(conversation *models.Conversation, userID uint, message *models.Message) {
	for i := range conversation.ReadStates {
		if conversation.ReadStates[i].UserID == userID {
			conversation.ReadStates[i].LastSeenMessageID = &message.ID
			conversation.ReadStates[i].LastSeenMessage = message
			return
		}
	}
	conversation.ReadStates = append(conversation.ReadStates, models.ReadState{
		ConversationID:    conversation.ID,
		UserID:            userID,
		LastSeenMessageID: &message.ID,
		LastSeenMessage:   message,
	})
}

func (fcr *fakeChatRepository) SoftDeleteConversation(conversationID, userID uint) error {
	conversation, ok := fcr.conversations[conversationID]
	if !ok {
		return errs.ErrConversationNotFound
	}
	if conversation.IsDeletedBy(userID) {
		return errs.ErrAlreadyDeleted
	}
	conversation.Deletions = append(conversation.Deletions, models.ConversationDeletion{
		ConversationID: conversationID,
		UserID:         userID,
	})
	return nil
}

func newChatServiceFixture(userIDs ...uint) (*ChatService, *fakeChatRepository, *fakePublisher) {
	users := make(map[uint]bool, len(userIDs))
	for _, id := range userIDs {
		users[id] = true
	}
	repo := newFakeChatRepository()
	publisher := &fakePublisher{}
	service := NewChatService(repo, &fakeUserDirectory{users: users}, publisher)
	return service, repo, publisher
}

func containsErr(errorList []error, target error) bool {
	for _, err := range errorList {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func TestResolveConversationCreatesOnce(t *testing.T) {
	service, repo, _ := newChatServiceFixture(1, 2, 3)

	first, created, resolveErrs := service.ResolveConversation(1, []uint{2, 3})
	if len(resolveErrs) > 0 {
		t.Fatalf("unexpected errors: %v", resolveErrs)
	}
	if !created {
		t.Fatal("expected the first resolve to create the conversation")
	}

	permutations := [][]uint{
		{3, 2},      // requester 1 appended
		{1, 3, 2},   // explicit full set
		{3, 1, 3, 2}, // duplicates
	}
	for _, ids := range permutations {
		conversation, created, resolveErrs := service.ResolveConversation(1, ids)
		if len(resolveErrs) > 0 {
			t.Fatalf("unexpected errors for %v: %v", ids, resolveErrs)
		}
		if created {
			t.Fatalf("expected reuse for %v, got a new conversation", ids)
		}
		if conversation.ID != first.ID {
			t.Fatalf("expected conversation %d for %v, got %d", first.ID, ids, conversation.ID)
		}
	}

	if len(repo.conversations) != 1 {
		t.Fatalf("expected exactly one conversation, got %d", len(repo.conversations))
	}
}

func TestResolveConversationFromAnotherRequester(t *testing.T) {
	service, _, _ := newChatServiceFixture(1, 2)

	first, _, resolveErrs := service.ResolveConversation(1, []uint{2})
	if len(resolveErrs) > 0 {
		t.Fatalf("unexpected errors: %v", resolveErrs)
	}
	second, created, resolveErrs := service.ResolveConversation(2, []uint{1})
	if len(resolveErrs) > 0 {
		t.Fatalf("unexpected errors: %v", resolveErrs)
	}
	if created || second.ID != first.ID {
		t.Fatalf("expected both requesters to resolve conversation %d, got %d (created=%v)",
			first.ID, second.ID, created)
	}
}

func TestResolveConversationAppendsRequester(t *testing.T) {
	service, repo, _ := newChatServiceFixture(1, 2)

	response, _, resolveErrs := service.ResolveConversation(1, []uint{2})
	if len(resolveErrs) > 0 {
		t.Fatalf("unexpected errors: %v", resolveErrs)
	}
	conversation := repo.conversations[response.ID]
	if !conversation.HasParticipant(1) || !conversation.HasParticipant(2) {
		t.Fatalf("expected participants {1,2}, got %v", conversation.ParticipantIDs())
	}
}

func TestResolveConversationRejectsUnknownParticipant(t *testing.T) {
	service, _, _ := newChatServiceFixture(1, 2)

	_, _, resolveErrs := service.ResolveConversation(1, []uint{2, 99})
	if !containsErr(resolveErrs, errs.ErrInvalidParticipant) {
		t.Fatalf("expected invalid participant error, got %v", resolveErrs)
	}
}

func TestResolveConversationRejectsOversizedSet(t *testing.T) {
	ids := make([]uint, 0, 11)
	for i := uint(1); i <= 11; i++ {
		ids = append(ids, i)
	}
	service, _, _ := newChatServiceFixture(ids...)

	_, _, resolveErrs := service.ResolveConversation(1, ids[1:])
	if !containsErr(resolveErrs, errs.ErrTooManyParticipants) {
		t.Fatalf("expected too many participants error, got %v", resolveErrs)
	}
}

func TestSaveMessageRejectsEmptyContent(t *testing.T) {
	service, _, publisher := newChatServiceFixture(1, 2)
	conversation, _, _ := service.ResolveConversation(1, []uint{2})

	_, saveErrs := service.SaveMessage(conversation.ID, 1, &models.MessageRequest{})
	if !containsErr(saveErrs, errs.ErrEmptyContent) {
		t.Fatalf("expected empty content error, got %v", saveErrs)
	}
	if len(publisher.events) != 0 {
		t.Fatal("expected no publish for a rejected message")
	}
}

func TestSaveMessageUnknownConversation(t *testing.T) {
	service, _, _ := newChatServiceFixture(1)

	_, saveErrs := service.SaveMessage(42, 1, &models.MessageRequest{Text: "hi"})
	if !containsErr(saveErrs, errs.ErrConversationNotFound) {
		t.Fatalf("expected conversation not found, got %v", saveErrs)
	}
}

func TestSaveMessageRejectsNonParticipant(t *testing.T) {
	service, _, _ := newChatServiceFixture(1, 2, 3)
	conversation, _, _ := service.ResolveConversation(1, []uint{2})

	_, saveErrs := service.SaveMessage(conversation.ID, 3, &models.MessageRequest{Text: "hi"})
	if !containsErr(saveErrs, errs.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", saveErrs)
	}
}

func TestSaveMessageComputesRecipients(t *testing.T) {
	service, _, _ := newChatServiceFixture(1, 2, 3)
	conversation, _, _ := service.ResolveConversation(1, []uint{2, 3})

	message, saveErrs := service.SaveMessage(conversation.ID, 2, &models.MessageRequest{Text: "hi"})
	if len(saveErrs) > 0 {
		t.Fatalf("unexpected errors: %v", saveErrs)
	}
	if len(message.RecipientIDs) != 2 {
		t.Fatalf("expected 2 recipients, got %v", message.RecipientIDs)
	}
	for _, id := range message.RecipientIDs {
		if id == 2 {
			t.Fatalf("expected the sender to be excluded from recipients, got %v", message.RecipientIDs)
		}
	}
}

func TestSaveMessagePublishesPersistedMessage(t *testing.T) {
	service, repo, publisher := newChatServiceFixture(1, 2)
	conversation, _, _ := service.ResolveConversation(1, []uint{2})

	message, saveErrs := service.SaveMessage(conversation.ID, 1, &models.MessageRequest{Text: "hi"})
	if len(saveErrs) > 0 {
		t.Fatalf("unexpected errors: %v", saveErrs)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.conversationID != conversation.ID || event.message.ID != message.ID {
		t.Fatalf("expected the persisted message to be published, got %+v", event)
	}
	if len(repo.messages[conversation.ID]) != 1 {
		t.Fatal("expected the message to be durable at publish time")
	}
}

func TestSaveMessagePublishFailureDoesNotFailSend(t *testing.T) {
	service, repo, publisher := newChatServiceFixture(1, 2)
	publisher.failing = true
	conversation, _, _ := service.ResolveConversation(1, []uint{2})

	message, saveErrs := service.SaveMessage(conversation.ID, 1, &models.MessageRequest{Text: "hi"})
	if len(saveErrs) > 0 {
		t.Fatalf("expected the send to succeed despite the publish failure, got %v", saveErrs)
	}
	if message == nil || len(repo.messages[conversation.ID]) != 1 {
		t.Fatal("expected the message to be persisted")
	}
}

func TestGetConversationMessagesNewestFirstWithTotal(t *testing.T) {
	service, _, _ := newChatServiceFixture(1, 2)
	conversation, _, _ := service.ResolveConversation(1, []uint{2})

	for _, text := range []string{"one", "two", "three"} {
		if _, saveErrs := service.SaveMessage(conversation.ID, 1, &models.MessageRequest{Text: text}); len(saveErrs) > 0 {
			t.Fatalf("unexpected errors: %v", saveErrs)
		}
	}

	page, fetchErrs := service.GetConversationMessages(conversation.ID, 2, 1, 2)
	if len(fetchErrs) > 0 {
		t.Fatalf("unexpected errors: %v", fetchErrs)
	}
	if page.Total != 3 {
		t.Fatalf("expected total 3, got %d", page.Total)
	}
	if len(page.Messages) != 2 || page.Messages[0].Text != "three" || page.Messages[1].Text != "two" {
		t.Fatalf("expected newest-first page [three two], got %+v", page.Messages)
	}
	if len(page.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(page.Participants))
	}

	older, fetchErrs := service.GetConversationMessages(conversation.ID, 2, 2, 2)
	if len(fetchErrs) > 0 {
		t.Fatalf("unexpected errors: %v", fetchErrs)
	}
	if len(older.Messages) != 1 || older.Messages[0].Text != "one" {
		t.Fatalf("expected page 2 to hold [one], got %+v", older.Messages)
	}
}

func TestGetConversationMessagesRejectsNonParticipant(t *testing.T) {
	service, _, _ := newChatServiceFixture(1, 2, 3)
	conversation, _, _ := service.ResolveConversation(1, []uint{2})

	_, fetchErrs := service.GetConversationMessages(conversation.ID, 3, 1, 25)
	if !containsErr(fetchErrs, errs.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", fetchErrs)
	}
}

func TestFetchRecordsReadStateAtPageNewest(t *testing.T) {
	service, repo, _ := newChatServiceFixture(1, 2)
	conversation, _, _ := service.ResolveConversation(1, []uint{2})

	for _, text := range []string{"one", "two", "three"} {
		service.SaveMessage(conversation.ID, 2, &models.MessageRequest{Text: text})
	}

	// Fetching an older page moves the pointer only to that page's newest
	// message, so the viewer is still behind.
	if _, fetchErrs := service.GetConversationMessages(conversation.ID, 1, 2, 1); len(fetchErrs) > 0 {
		t.Fatalf("unexpected errors: %v", fetchErrs)
	}
	if !repo.conversations[conversation.ID].UnseenFor(1) {
		t.Fatal("expected unseen to stay true after fetching an older page")
	}

	// Fetching the first page catches the viewer up.
	if _, fetchErrs := service.GetConversationMessages(conversation.ID, 1, 1, 25); len(fetchErrs) > 0 {
		t.Fatalf("unexpected errors: %v", fetchErrs)
	}
	if repo.conversations[conversation.ID].UnseenFor(1) {
		t.Fatal("expected unseen to be false after fetching the newest page")
	}
}

func TestSoftDeleteIsIdempotentWithDistinctSignal(t *testing.T) {
	service, _, _ := newChatServiceFixture(1, 2)
	conversation, _, _ := service.ResolveConversation(1, []uint{2})

	if deleteErrs := service.SoftDeleteConversation(conversation.ID, 1); len(deleteErrs) > 0 {
		t.Fatalf("unexpected errors: %v", deleteErrs)
	}
	deleteErrs := service.SoftDeleteConversation(conversation.ID, 1)
	if !containsErr(deleteErrs, errs.ErrAlreadyDeleted) {
		t.Fatalf("expected already deleted signal, got %v", deleteErrs)
	}
}

func TestSoftDeleteRejectsNonParticipant(t *testing.T) {
	service, _, _ := newChatServiceFixture(1, 2, 3)
	conversation, _, _ := service.ResolveConversation(1, []uint{2})

	deleteErrs := service.SoftDeleteConversation(conversation.ID, 3)
	if !containsErr(deleteErrs, errs.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", deleteErrs)
	}
}

func listedConversationIDs(t *testing.T, service *ChatService, userID uint) []uint {
	t.Helper()
	list, listErrs := service.GetUserConversations(userID, 50, 0)
	if len(listErrs) > 0 {
		t.Fatalf("unexpected errors listing for user %d: %v", userID, listErrs)
	}
	ids := make([]uint, 0, len(list.Conversations))
	for _, conversation := range list.Conversations {
		ids = append(ids, conversation.ID)
	}
	return ids
}

func TestConversationLifecycle(t *testing.T) {
	// Participants: A=1, B=2.
	service, _, _ := newChatServiceFixture(1, 2)

	// A resolves a conversation with B; A is auto-added.
	conversation, created, resolveErrs := service.ResolveConversation(1, []uint{2})
	if len(resolveErrs) > 0 || !created {
		t.Fatalf("expected a fresh conversation, got created=%v errs=%v", created, resolveErrs)
	}

	// B sends "hi": A has it unseen, B does not (B is the sender).
	if _, saveErrs := service.SaveMessage(conversation.ID, 2, &models.MessageRequest{Text: "hi"}); len(saveErrs) > 0 {
		t.Fatalf("unexpected errors: %v", saveErrs)
	}

	listForA, _ := service.GetUserConversations(1, 50, 0)
	if len(listForA.Conversations) != 1 || !listForA.Conversations[0].Unseen {
		t.Fatalf("expected A to see one unseen conversation, got %+v", listForA.Conversations)
	}
	listForB, _ := service.GetUserConversations(2, 50, 0)
	if len(listForB.Conversations) != 1 || listForB.Conversations[0].Unseen {
		t.Fatalf("expected the sender to be caught up, got %+v", listForB.Conversations)
	}
	if listForA.Conversations[0].LastMessage == nil || listForA.Conversations[0].LastMessage.Text != "hi" {
		t.Fatalf("expected last message preview \"hi\", got %+v", listForA.Conversations[0].LastMessage)
	}

	// A fetches the first page: A is caught up now.
	if _, fetchErrs := service.GetConversationMessages(conversation.ID, 1, 1, 25); len(fetchErrs) > 0 {
		t.Fatalf("unexpected errors: %v", fetchErrs)
	}
	listForA, _ = service.GetUserConversations(1, 50, 0)
	if listForA.Conversations[0].Unseen {
		t.Fatal("expected A to be caught up after fetching the first page")
	}

	// A soft-deletes: hidden for A, untouched for B.
	if deleteErrs := service.SoftDeleteConversation(conversation.ID, 1); len(deleteErrs) > 0 {
		t.Fatalf("unexpected errors: %v", deleteErrs)
	}
	if ids := listedConversationIDs(t, service, 1); len(ids) != 0 {
		t.Fatalf("expected an empty list for A, got %v", ids)
	}
	if ids := listedConversationIDs(t, service, 2); len(ids) != 1 {
		t.Fatalf("expected B to still see the conversation, got %v", ids)
	}

	// B sends again: the conversation is revived for A, unseen.
	if _, saveErrs := service.SaveMessage(conversation.ID, 2, &models.MessageRequest{Text: "still there?"}); len(saveErrs) > 0 {
		t.Fatalf("unexpected errors: %v", saveErrs)
	}
	listForA, _ = service.GetUserConversations(1, 50, 0)
	if len(listForA.Conversations) != 1 {
		t.Fatalf("expected the conversation to be revived for A, got %+v", listForA.Conversations)
	}
	if !listForA.Conversations[0].Unseen {
		t.Fatal("expected the revived conversation to be unseen for A")
	}
}

func TestListOrdersByLastActivity(t *testing.T) {
	service, _, _ := newChatServiceFixture(1, 2, 3)

	first, _, _ := service.ResolveConversation(1, []uint{2})
	second, _, _ := service.ResolveConversation(1, []uint{3})

	service.SaveMessage(first.ID, 2, &models.MessageRequest{Text: "old"})
	service.SaveMessage(second.ID, 3, &models.MessageRequest{Text: "new"})

	ids := listedConversationIDs(t, service, 1)
	if len(ids) != 2 || ids[0] != second.ID || ids[1] != first.ID {
		t.Fatalf("expected order [%d %d], got %v", second.ID, first.ID, ids)
	}

	// A message in the older conversation moves it back to the top.
	service.SaveMessage(first.ID, 2, &models.MessageRequest{Text: "newest"})
	ids = listedConversationIDs(t, service, 1)
	if ids[0] != first.ID {
		t.Fatalf("expected conversation %d on top, got %v", first.ID, ids)
	}
}
