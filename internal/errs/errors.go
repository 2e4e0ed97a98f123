package errs

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrInvalidRequestBody = Error("invalid request body")
	ErrInvalidRequest     = Error("invalid request")
	ErrInvalidParams      = Error("invalid params")
	ErrUnauthorized       = Error("unauthorized")

	ErrUserAlreadyExists = Error("user already exists")
	ErrUserNotFound      = Error("user not found")
	ErrUserIsNil         = Error("user is nil")
	ErrWrongPassword     = Error("wrong password")
	ErrWrongEmail        = Error("wrong email")
	ErrInvalidToken      = Error("invalid token")
	ErrInvalidEmail      = Error("invalid email")
	ErrInvalidPassword   = Error("invalid password")
	ErrInvalidUser       = Error("invalid user")
	ErrFirstName         = Error("first name is empty or too short")
	ErrLastName          = Error("last name is empty or too short")
	ErrInvalidUsername   = Error("username is empty or too short")

	ErrConversationNotFound  = Error("conversation not found")
	ErrInvalidConversationId = Error("invalid conversation id")
	ErrInvalidParticipant    = Error("unknown user in participant set")
	ErrEmptyParticipants     = Error("participant set is empty")
	ErrTooManyParticipants   = Error("participant set exceeds the maximum of 10")
	ErrEmptyContent          = Error("message must contain text, an image or a gif")
	ErrMessageTooLong        = Error("message text exceeds the maximum length")
	ErrAlreadyDeleted        = Error("conversation already deleted for this user")

	ErrNoFileUploaded             = Error("no file uploaded")
	ErrUnableToOpenUploadedFile   = Error("unable to open uploaded file")
	ErrUnableToUploadFile         = Error("unable to upload file")
	ErrUnableToUpdateProfilePhoto = Error("unable to update profile photo")
)
