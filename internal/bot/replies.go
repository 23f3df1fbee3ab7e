package bot

// User-facing reply text. Kept in one place so wording stays consistent
// across handlers.
const (
	replyGreeting    = "Hi! Send me a message and I will answer. Use /reset to start the conversation over."
	replyDenied      = "Sorry, you are not on the list of allowed users for this bot."
	replyHistoryGone = "Conversation history cleared."
	replyNoHistory   = "There is no conversation history to clear."
	replyResetFailed = "Could not clear the conversation history, please try again."
	replyAuthFailed  = "Could not authorize with the model service, please try again later."
	replyChatFailed  = "Something went wrong while talking to the model, please try again."
	replyImageFailed = "The model produced an image but I could not download it, please try again."
)
