// Package service provides the core logic of the train schedule bot: the conversation state machine,
// the subscription reconciler, the price diff engine and the Telegram transport around them.
package service

import (
	"context"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/metrics"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"time"
)

// StationLookup resolves station names to codes and searches the station directory.
type StationLookup interface {
	LookupStationCode(ctx context.Context, name string) (int, bool, error) // Exact name to code, cached.
	CachedStationName(name string) (string, bool)                          // Exact name from the local cache only.
	SearchStations(ctx context.Context, namePart string) ([]models.Station, error)
}

// TrainSearcher returns the trains currently offered for a route and date.
type TrainSearcher interface {
	SearchTrains(ctx context.Context, departureCode, arrivalCode int, date time.Time) ([]models.TrainOffer, error)
}

// SubscriptionRepository persists subscriptions. Save inserts when ID is empty and
// otherwise updates with an optimistic version check.
type SubscriptionRepository interface {
	FindAll(ctx context.Context) ([]models.Subscription, error)
	FindByID(ctx context.Context, id string) (models.Subscription, error)
	FindByChatID(ctx context.Context, chatID int64) ([]models.Subscription, error)
	FindByChatIDAndTrainAndDate(ctx context.Context, chatID int64, trainNumber, dateDepart string) ([]models.Subscription, error)
	Save(ctx context.Context, sub *models.Subscription) error
	DeleteByID(ctx context.Context, id string) error
}

// The UsersChatStateRepository defines the interface for user state persistence.
type UsersChatStateRepository interface {
	GetUserState(userID int64) models.BotState
	SetUserState(userID int64, state models.BotState) error
	GetSearchRequest(userID int64) models.SearchRequest
	SaveSearchRequest(userID int64, request models.SearchRequest) error
}

// FoundTrainsRepository keeps the last search results per chat.
type FoundTrainsRepository interface {
	SaveFoundTrains(chatID int64, trains []models.TrainOffer) error
	GetFoundTrains(chatID int64) []models.TrainOffer
}

// Notifier delivers a text message to a chat.
type Notifier interface {
	Notify(chatID int64, text string) error
}

// BotAPI is the part of *tgbotapi.BotAPI used by the bot.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Conversation turns user input into replies.
type Conversation interface {
	Handle(ctx context.Context, userID, chatID int64, text string) []models.Reply
	HandleCallback(ctx context.Context, userID, chatID int64, data string) CallbackResult
}

// TgBotServices connects the Telegram Bot API to the conversation logic.
type TgBotServices struct {
	Bot          BotAPI           // Telegram Bot API instance.
	Conversation Conversation     // Conversation state machine.
	Metrics      *metrics.Metrics // Optional, nil disables metrics.
}

// NewTgBot creates a new TgBotServices instance.
func NewTgBot(bot BotAPI, conversation Conversation, m *metrics.Metrics) *TgBotServices {
	return &TgBotServices{
		Bot:          bot,
		Conversation: conversation,
		Metrics:      m,
	}
}

// sendMessage sends a message to the specified chat with optional markup.
func (b *TgBotServices) sendMessage(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := b.Bot.Send(msg)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to send message to chat %d", chatID)
	}
	return err
}

// getKeyboardRow creates a single-row inline keyboard with one button.
func (b *TgBotServices) getKeyboardRow(buttonText, buttonCode string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(buttonText, buttonCode))
}

// mainMenu builds the reply keyboard with the four main commands.
func (b *TgBotServices) mainMenu() tgbotapi.ReplyKeyboardMarkup {
	markup := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(constant.BUTTON_TEXT_FIND_TRAINS),
			tgbotapi.NewKeyboardButton(constant.BUTTON_TEXT_MY_SUBSCRIPTION),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(constant.BUTTON_TEXT_STATIONS_BOOK),
			tgbotapi.NewKeyboardButton(constant.BUTTON_TEXT_HELP),
		),
	)
	markup.ResizeKeyboard = true
	return markup
}

func (b *TgBotServices) sendReply(reply models.Reply) {
	var markup interface{}
	switch {
	case reply.Button != nil:
		markup = tgbotapi.NewInlineKeyboardMarkup(b.getKeyboardRow(reply.Button.Text, reply.Button.CallbackData))
	case reply.MainMenu:
		markup = b.mainMenu()
	}
	_ = b.sendMessage(reply.ChatID, reply.Text, markup)
}

// Notify sends a plain text message; errors are logged and returned for accounting only.
func (b *TgBotServices) Notify(chatID int64, text string) error {
	return b.sendMessage(chatID, text, nil)
}

// UpdateProcessing handles incoming Telegram updates (messages and callback queries).
func (b *TgBotServices) UpdateProcessing(ctx context.Context, update *tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.Metrics.UpdateReceived("message")
		chatID := update.Message.Chat.ID
		userID := chatID
		if update.Message.From != nil {
			userID = update.Message.From.ID
			logrus.Debugf("Message [%s] from %s (chat %d)", update.Message.Text, update.Message.From.UserName, chatID)
		}
		for _, reply := range b.Conversation.Handle(ctx, userID, chatID, update.Message.Text) {
			b.sendReply(reply)
		}
	case update.CallbackQuery != nil:
		b.Metrics.UpdateReceived("callback")
		b.processCallback(ctx, update.CallbackQuery)
	}
}

func (b *TgBotServices) processCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.Bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logrus.WithError(err).Error("Failed to answer callback query")
	}
	if query.Message == nil || query.From == nil {
		logrus.WithField("data", query.Data).Warn("Callback query without message, skipped")
		return
	}

	chatID := query.Message.Chat.ID
	result := b.Conversation.HandleCallback(ctx, query.From.ID, chatID, query.Data)
	if result.Button != nil {
		markup := tgbotapi.NewInlineKeyboardMarkup(b.getKeyboardRow(result.Button.Text, result.Button.CallbackData))
		edit := tgbotapi.NewEditMessageReplyMarkup(chatID, query.Message.MessageID, markup)
		if _, err := b.Bot.Request(edit); err != nil {
			logrus.WithError(err).WithField("chatID", chatID).Error("Failed to update subscription button")
		}
	}
	for _, reply := range result.Replies {
		b.sendReply(reply)
	}
}
