package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"chirpchat/internal/errs"
	"chirpchat/internal/models"
	"chirpchat/internal/msgs"
	"chirpchat/internal/services"
	"chirpchat/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RestHandler struct {
	authService        *services.AuthenticationService
	chatService        *services.ChatService
	fileManagerService *services.FileManagerService
}

func NewRestHandler(
	authService *services.AuthenticationService,
	chatService *services.ChatService,
	fileManagerService *services.FileManagerService,
) *RestHandler {
	return &RestHandler{
		authService:        authService,
		chatService:        chatService,
		fileManagerService: fileManagerService,
	}
}

// Register godoc
// @Summary      Register a new user
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.Response
// @Failure      400  {object}  models.Response
// @Router       /api/auth/register [post]
func (rh *RestHandler) Register(ctx *gin.Context) {
	var errors []error

	var user models.User
	if err := ctx.BindJSON(&user); err != nil {
		errors = append(errors, errs.ErrInvalidRequestBody)
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  errors,
		})
		return
	}

	if _, registerErrs := rh.authService.Register(&user); len(registerErrs) > 0 {
		errors = append(errors, registerErrs...)
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  errors,
		})
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgUserCreatedSuccessfully,
	})
}

// Login godoc
// @Summary      Login user to account
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.Response
// @Failure      400  {object}  models.Response
// @Router       /api/auth/login [post]
func (rh *RestHandler) Login(ctx *gin.Context) {
	var errors []error

	var loginData models.LoginRequestBody
	if err := ctx.BindJSON(&loginData); err != nil {
		log.Println("Error login data json binding:", err)
		errors = append(errors, errs.ErrInvalidRequestBody)
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  errors,
		})
		return
	}

	loginResponse, loginErrs := rh.authService.Login(&loginData)
	if len(loginErrs) > 0 {
		errors = append(errors, loginErrs...)
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  errors,
		})
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    loginResponse,
	})
}

// CreateOrGetConversation godoc
// @Summary      Resolve the conversation for a participant set
// @Description  Returns the existing conversation for the set or creates one.
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.Response
// @Success      201  {object}  models.Response
// @Failure      400  {object}  models.Response
// @Router       /api/conversations [post]
func (rh *RestHandler) CreateOrGetConversation(ctx *gin.Context) {
	requesterID := utils.GetUserIdFromContext(ctx)
	if requesterID < 1 {
		rh.abortUnauthorized(ctx)
		return
	}

	var body models.CreateConversationRequestBody
	if err := ctx.BindJSON(&body); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  []error{errs.ErrInvalidRequestBody},
		})
		return
	}

	conversation, created, resolveErrs := rh.chatService.ResolveConversation(requesterID, body.ParticipantIds)
	if len(resolveErrs) > 0 {
		ctx.AbortWithStatusJSON(statusForErrors(resolveErrs), models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  resolveErrs,
		})
		return
	}

	status := http.StatusOK
	message := msgs.MsgConversationAlreadyExists
	if created {
		status = http.StatusCreated
		message = msgs.MsgConversationCreated
	}

	ctx.JSON(status, models.Response{
		Success: true,
		Message: message,
		Data:    conversation,
	})
}

// GetUserConversations godoc
// @Summary      List the caller's conversations
// @Produce      json
// @Success      200  {object}  models.Response
// @Failure      400  {object}  models.Response
// @Router       /api/conversations [get]
func (rh *RestHandler) GetUserConversations(ctx *gin.Context) {
	userID := utils.GetUserIdFromContext(ctx)
	if userID < 1 {
		rh.abortUnauthorized(ctx)
		return
	}

	limit, err := strconv.Atoi(ctx.Query("limit"))
	if err != nil || limit < 1 {
		limit = 50
	}
	skip, err := strconv.Atoi(ctx.Query("skip"))
	if err != nil || skip < 0 {
		skip = 0
	}

	response, listErrs := rh.chatService.GetUserConversations(userID, limit, skip)
	if len(listErrs) > 0 {
		ctx.AbortWithStatusJSON(statusForErrors(listErrs), models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  listErrs,
		})
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    response,
	})
}

// SendMessage godoc
// @Summary      Append a message to a conversation
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.Response
// @Failure      400  {object}  models.Response
// @Failure      404  {object}  models.Response
// @Router       /api/conversations/{id}/messages [post]
func (rh *RestHandler) SendMessage(ctx *gin.Context) {
	senderID := utils.GetUserIdFromContext(ctx)
	if senderID < 1 {
		rh.abortUnauthorized(ctx)
		return
	}

	conversationID, ok := conversationIdFromParam(ctx)
	if !ok {
		return
	}

	var messageRequest models.MessageRequest
	if err := ctx.ShouldBindJSON(&messageRequest); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  []error{errs.ErrInvalidRequest},
		})
		return
	}

	message, saveErrs := rh.chatService.SaveMessage(conversationID, senderID, &messageRequest)
	if len(saveErrs) > 0 {
		ctx.AbortWithStatusJSON(statusForErrors(saveErrs), models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  saveErrs,
		})
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    message,
	})
}

// GetConversationMessages godoc
// @Summary      Fetch a page of a conversation's messages
// @Description  Newest first. Records the caller's read state at the newest
// @Description  message of the fetched page.
// @Produce      json
// @Success      200  {object}  models.Response
// @Failure      400  {object}  models.Response
// @Failure      404  {object}  models.Response
// @Router       /api/conversations/{id}/messages [get]
func (rh *RestHandler) GetConversationMessages(ctx *gin.Context) {
	userID := utils.GetUserIdFromContext(ctx)
	if userID < 1 {
		rh.abortUnauthorized(ctx)
		return
	}

	conversationID, ok := conversationIdFromParam(ctx)
	if !ok {
		return
	}

	page, err := strconv.Atoi(ctx.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(ctx.Query("size"))
	if err != nil || size < 1 {
		size = 25
	}

	response, fetchErrs := rh.chatService.GetConversationMessages(conversationID, userID, page, size)
	if len(fetchErrs) > 0 {
		ctx.AbortWithStatusJSON(statusForErrors(fetchErrs), models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  fetchErrs,
		})
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    response,
	})
}

// SoftDeleteConversation godoc
// @Summary      Hide a conversation from the caller's list
// @Description  Idempotent. Repeating the call reports the conversation as
// @Description  already deleted instead of failing.
// @Produce      json
// @Success      200  {object}  models.Response
// @Failure      404  {object}  models.Response
// @Router       /api/conversations/{id} [delete]
func (rh *RestHandler) SoftDeleteConversation(ctx *gin.Context) {
	userID := utils.GetUserIdFromContext(ctx)
	if userID < 1 {
		rh.abortUnauthorized(ctx)
		return
	}

	conversationID, ok := conversationIdFromParam(ctx)
	if !ok {
		return
	}

	if deleteErrs := rh.chatService.SoftDeleteConversation(conversationID, userID); len(deleteErrs) > 0 {
		if containsError(deleteErrs, errs.ErrAlreadyDeleted) {
			ctx.JSON(http.StatusOK, models.Response{
				Success: true,
				Message: msgs.MsgConversationAlreadyDeleted,
			})
			return
		}
		ctx.AbortWithStatusJSON(statusForErrors(deleteErrs), models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  deleteErrs,
		})
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgConversationDeleted,
	})
}

// UploadMessageAttachment godoc
// @Summary      Upload an image or GIF for use in a message
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  models.Response
// @Failure      400  {object}  models.Response
// @Router       /api/attachments [post]
func (rh *RestHandler) UploadMessageAttachment(ctx *gin.Context) {
	userID := utils.GetUserIdFromContext(ctx)
	if userID < 1 {
		rh.abortUnauthorized(ctx)
		return
	}

	file, err := ctx.FormFile("attachment")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  []error{errs.ErrNoFileUploaded},
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  []error{errs.ErrUnableToOpenUploadedFile},
		})
		return
	}
	defer src.Close()

	fileExt := filepath.Ext(file.Filename)
	fileName := fmt.Sprintf("attachment_%d_%s%s", userID, uuid.NewString(), fileExt)

	url, err := rh.fileManagerService.UploadMessageAttachment(fileName, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  []error{errs.ErrUnableToUploadFile},
		})
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    url,
	})
}

func (rh *RestHandler) UploadUserProfilePhoto(ctx *gin.Context) {
	userID := utils.GetUserIdFromContext(ctx)
	if userID < 1 {
		rh.abortUnauthorized(ctx)
		return
	}

	file, err := ctx.FormFile("profile_photo")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  []error{errs.ErrNoFileUploaded},
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  []error{errs.ErrUnableToOpenUploadedFile},
		})
		return
	}
	defer src.Close()

	fileExt := filepath.Ext(file.Filename)
	fileName := fmt.Sprintf("user_profile_photo_%d%s", userID, fileExt)

	url, err := rh.fileManagerService.UploadUserProfilePhoto(fileName, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  []error{errs.ErrUnableToUploadFile},
		})
		return
	}

	if updateErrs := rh.authService.UpdateUserProfilePhoto(userID, url); len(updateErrs) > 0 {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  []error{errs.ErrUnableToUpdateProfilePhoto},
		})
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    url,
	})
}

func (rh *RestHandler) GetAllUsersWithPagination(ctx *gin.Context) {
	page, err := strconv.Atoi(ctx.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(ctx.Query("size"))
	if err != nil || size < 1 {
		size = 10
	}

	response, listErrs := rh.authService.GetAllUsersWithPagination(page, size)
	if len(listErrs) > 0 {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  listErrs,
		})
		return
	}
	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    response,
	})
}

func (rh *RestHandler) abortUnauthorized(ctx *gin.Context) {
	log.Println("User id not found")
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.Response{
		Success: false,
		Message: msgs.MsgOperationFailed,
		Errors:  []error{errs.ErrUnauthorized},
	})
}

func conversationIdFromParam(ctx *gin.Context) (uint, bool) {
	conversationID := ctx.Param("id")
	idInt, err := strconv.Atoi(conversationID)
	if err != nil || idInt < 1 {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  []error{errs.ErrInvalidConversationId},
		})
		return 0, false
	}
	return uint(idInt), true
}

// statusForErrors maps service errors to an HTTP status. Validation problems
// stay 400; absent conversations 404; non-participant actors 401.
func statusForErrors(errorList []error) int {
	if containsError(errorList, errs.ErrConversationNotFound) {
		return http.StatusNotFound
	}
	if containsError(errorList, errs.ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}

func containsError(errorList []error, target error) bool {
	for _, err := range errorList {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
