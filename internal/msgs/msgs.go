package msgs

const (
	MsgOperationSuccessful        = "operation successful"
	MsgOperationFailed            = "operation failed"
	MsgUserCreatedSuccessfully    = "user created successfully"
	MsgYouMustLoginFirst          = "you must login first"
	MsgConversationCreated        = "conversation created"
	MsgConversationAlreadyExists  = "conversation already exists"
	MsgConversationDeleted        = "conversation deleted"
	MsgConversationAlreadyDeleted = "conversation was already deleted"
)
