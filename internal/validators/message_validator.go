package validators

import (
	"chirpchat/internal/errs"
	"chirpchat/internal/models"
)

// ValidateMessageContent enforces the message content contract: at least one
// of text, images or gifs must be present, and text stays within bounds.
func ValidateMessageContent(request *models.MessageRequest) []error {
	var errors []error
	if request == nil {
		errors = append(errors, errs.ErrInvalidRequest)
		return errors
	}

	if request.Text == "" && len(request.Images) == 0 && len(request.Gifs) == 0 {
		errors = append(errors, errs.ErrEmptyContent)
	}

	if len(request.Text) > models.MaxMessageTextLength {
		errors = append(errors, errs.ErrMessageTooLong)
	}

	return errors
}
