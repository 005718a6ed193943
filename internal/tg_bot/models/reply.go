package models

// InlineButton is a single inline keyboard button attached to a reply.
type InlineButton struct {
	Text         string
	CallbackData string
}

// Reply is an outgoing message produced by the bot logic, independent of the chat transport.
type Reply struct {
	ChatID   int64
	Text     string
	Button   *InlineButton // Optional inline button under the message
	MainMenu bool          // Attach the main menu reply keyboard
}

// CallbackAction is the first segment of an inline button's callback data.
type CallbackAction string

const (
	CallbackSubscribe   CallbackAction = "SUBSCRIBE"
	CallbackUnsubscribe CallbackAction = "UNSUBSCRIBE"
)

// CallbackQuery is the parsed callback data of a subscribe or unsubscribe button.
type CallbackQuery struct {
	Action         CallbackAction
	TrainNumber    string // SUBSCRIBE only
	DateDepart     string // SUBSCRIBE only
	SubscriptionID string // UNSUBSCRIBE only
}
