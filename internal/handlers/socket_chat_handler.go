package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"chirpchat/internal/enums"
	"chirpchat/internal/errs"
	"chirpchat/internal/hub"
	"chirpchat/internal/models"
	socketModels "chirpchat/internal/models/socket"
	"chirpchat/internal/msgs"
	"chirpchat/internal/services"
	"chirpchat/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// SocketChatHandler upgrades authorized clients to a websocket subscribed to
// one conversation topic. A connection lives for as long as the client keeps
// that conversation open; closing it is the unsubscribe.
type SocketChatHandler struct {
	upgrader    websocket.Upgrader
	hub         *hub.Hub
	chatService *services.ChatService
	authService *services.AuthenticationService
}

func NewSocketChatHandler(
	chatHub *hub.Hub,
	chatService *services.ChatService,
	authService *services.AuthenticationService,
) *SocketChatHandler {
	return &SocketChatHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		hub:         chatHub,
		chatService: chatService,
		authService: authService,
	}
}

func (sch *SocketChatHandler) HandleSocketChatRoute(ctx *gin.Context) {
	// Authenticate user
	jwtToken := ctx.Request.Header.Get("Authorization")
	if jwtToken == "" {
		jwtToken = ctx.Query("token")
	}
	if jwtToken == "" {
		sch.abortUnauthorized(ctx)
		return
	}

	userInfo, err := utils.VerifyToken(jwtToken, sch.authService.JwtKey())
	if err != nil || userInfo.ID == 0 {
		sch.abortUnauthorized(ctx)
		return
	}

	// Validate the requested conversation topic
	conversationId := ctx.Query("conversationId")
	conversationIdInt, err := strconv.Atoi(conversationId)
	if err != nil || conversationIdInt < 1 {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  []error{errs.ErrInvalidConversationId},
		})
		return
	}
	conversationIdUInt := uint(conversationIdInt)

	canAccess, err := sch.chatService.CanAccessConversation(conversationIdUInt, userInfo.ID)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  []error{err},
		})
		return
	}
	if !canAccess {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  []error{errs.ErrInvalidConversationId},
		})
		return
	}

	sch.HandleConnections(ctx, userInfo, conversationIdUInt)
}

func (sch *SocketChatHandler) HandleConnections(ctx *gin.Context, userInfo *models.Claims, conversationId uint) {
	ws, err := sch.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}
	defer func(ws *websocket.Conn) {
		sch.hub.Leave(conversationId, ws)
		if err := ws.Close(); err != nil {
			log.Printf("Error closing connection: %v", err)
		}
	}(ws)

	ws.SetCloseHandler(func(code int, text string) error {
		sch.hub.Leave(conversationId, ws)
		return nil
	})

	sch.hub.Join(conversationId, &hub.Client{
		UserID: userInfo.ID,
		Conn:   ws,
	})

	sch.handleIncomingEvents(ws, userInfo, conversationId)
}

func (sch *SocketChatHandler) handleIncomingEvents(ws *websocket.Conn, userInfo *models.Claims, conversationId uint) {
	for {
		var event socketModels.SocketEvent
		if err := ws.ReadJSON(&event); err != nil {
			log.Printf("Error reading json: %v", err)
			break
		}

		event.ConversationID = conversationId

		switch event.Event {
		case enums.SOCKET_EVENT_SEND_MESSAGE:
			if errs := sch.handleSendMessageEvent(event.Payload, userInfo, conversationId); len(errs) > 0 {
				log.Printf("handleIncomingEvents - error while handling send message event: %v", errs)
			}
		case enums.SOCKET_EVENT_IS_TYPING:
			if errs := sch.handleIsTypingEvent(event.Payload, userInfo, conversationId); len(errs) > 0 {
				log.Printf("handleIncomingEvents - error while handling is typing event: %v", errs)
			}
		default:
			log.Printf("Unknown event: %v", event.Event)
		}
	}
}

func (sch *SocketChatHandler) handleSendMessageEvent(payload json.RawMessage, userInfo *models.Claims, conversationId uint) []error {
	var messageRequest models.MessageRequest
	if err := json.Unmarshal(payload, &messageRequest); err != nil {
		return []error{errs.ErrInvalidRequest}
	}

	// SaveMessage persists and fans out; nothing to publish here.
	if _, saveErrs := sch.chatService.SaveMessage(conversationId, userInfo.ID, &messageRequest); len(saveErrs) > 0 {
		return saveErrs
	}
	return nil
}

func (sch *SocketChatHandler) handleIsTypingEvent(payload json.RawMessage, userInfo *models.Claims, conversationId uint) []error {
	var isTypingPayload socketModels.IsTypingPayload
	if err := json.Unmarshal(payload, &isTypingPayload); err != nil {
		return []error{errs.ErrInvalidRequest}
	}
	isTypingPayload.UserID = userInfo.ID

	if err := sch.hub.PublishTyping(conversationId, isTypingPayload); err != nil {
		return []error{err}
	}
	return nil
}

func (sch *SocketChatHandler) abortUnauthorized(ctx *gin.Context) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.Response{
		Success: false,
		Message: msgs.MsgOperationFailed,
		Errors:  []error{errs.ErrUnauthorized},
	})
}
