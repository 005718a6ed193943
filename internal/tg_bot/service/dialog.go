package service

import (
	"context"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
	"strings"
	"time"
)

type handlerID int

const (
	handlerTrainSearch handlerID = iota
	handlerStationLookup
	handlerMainMenu
	handlerHelp
	handlerSubscriptions
)

// stateHandlers groups the bot states into handler families.
var stateHandlers = map[models.BotState]handlerID{
	models.StateTrainsSearch:              handlerTrainSearch,
	models.StateTrainsSearchStarted:       handlerTrainSearch,
	models.StateAskStationDepart:          handlerTrainSearch,
	models.StateAskStationArrival:         handlerTrainSearch,
	models.StateAskDateDepart:             handlerTrainSearch,
	models.StateDateDepartReceived:        handlerTrainSearch,
	models.StateTrainsSearchFinish:        handlerTrainSearch,
	models.StateTrainInfoResponseAwaiting: handlerTrainSearch,

	models.StateShowStationsBookMenu:    handlerStationLookup,
	models.StateStationsSearch:          handlerStationLookup,
	models.StateAskStationNamePart:      handlerStationLookup,
	models.StateStationNamePartReceived: handlerStationLookup,

	models.StateShowMainMenu:      handlerMainMenu,
	models.StateIdle:              handlerMainMenu,
	models.StateShowHelpMenu:      handlerHelp,
	models.StateShowSubscriptions: handlerSubscriptions,
}

// menuCommands are accepted in any state and switch the dialog before dispatch.
var menuCommands = map[string]models.BotState{
	constant.COMMAND_START:               models.StateShowMainMenu,
	constant.BUTTON_TEXT_FIND_TRAINS:     models.StateTrainsSearch,
	constant.BUTTON_TEXT_MY_SUBSCRIPTION: models.StateShowSubscriptions,
	constant.BUTTON_TEXT_STATIONS_BOOK:   models.StateStationsSearch,
	constant.BUTTON_TEXT_HELP:            models.StateShowHelpMenu,
}

type stateHandler func(ctx context.Context, userID, chatID int64, state models.BotState, text string) []models.Reply

// DialogService is the conversation state machine. Input of one user is processed strictly one at a time.
type DialogService struct {
	sessions       UsersChatStateRepository
	foundTrains    FoundTrainsRepository
	stations       StationLookup
	trains         TrainSearcher
	subscriptions  SubscriptionRepository
	requestTimeout time.Duration // Limit for one call to an external source
	locker         *keyedLocker  // Per user
	chatLocker     *keyedLocker  // Per chat, guards subscription check-then-insert
	handlers       map[handlerID]stateHandler
}

// NewDialogService creates the conversation state machine.
// Arguments:
//   - sessions: per-user state and search request storage.
//   - foundTrains: per-chat cache of the last search results.
//   - stations: station name resolver.
//   - trains: train schedule source.
//   - subscriptions: subscription store.
//   - requestTimeout: limit for one external call, 0 disables it.
//
// Returns a pointer to a DialogService.
func NewDialogService(sessions UsersChatStateRepository, foundTrains FoundTrainsRepository, stations StationLookup,
	trains TrainSearcher, subscriptions SubscriptionRepository, requestTimeout time.Duration) *DialogService {
	d := &DialogService{
		sessions:       sessions,
		foundTrains:    foundTrains,
		stations:       stations,
		trains:         trains,
		subscriptions:  subscriptions,
		requestTimeout: requestTimeout,
		locker:         newKeyedLocker(),
		chatLocker:     newKeyedLocker(),
	}
	d.handlers = map[handlerID]stateHandler{
		handlerTrainSearch:   d.handleTrainSearch,
		handlerStationLookup: d.handleStationLookup,
		handlerMainMenu:      d.handleMainMenu,
		handlerHelp:          d.handleHelp,
		handlerSubscriptions: d.handleSubscriptions,
	}
	return d
}

// Handle routes a text message to the handler of the user's current state. It always returns at least one reply.
func (d *DialogService) Handle(ctx context.Context, userID, chatID int64, text string) []models.Reply {
	unlock := d.locker.Lock(userID)
	defer unlock()

	text = strings.TrimSpace(text)
	if text == "" {
		return []models.Reply{d.textReply(chatID, constant.REPLY_TRY_AGAIN)}
	}
	if state, ok := menuCommands[text]; ok {
		d.setState(userID, state)
	}

	state := d.sessions.GetUserState(userID)
	id, ok := stateHandlers[state]
	if !ok {
		logrus.WithFields(logrus.Fields{"userID": userID, "state": state}).Warn("No handler for bot state")
		return []models.Reply{d.textReply(chatID, constant.REPLY_TRY_AGAIN)}
	}
	return d.handlers[id](ctx, userID, chatID, state, text)
}

func (d *DialogService) setState(userID int64, state models.BotState) {
	if err := d.sessions.SetUserState(userID, state); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"userID": userID, "state": state}).Error("Failed to store bot state")
	}
}

func (d *DialogService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.requestTimeout)
}

func (d *DialogService) textReply(chatID int64, text string) models.Reply {
	return models.Reply{ChatID: chatID, Text: text}
}

func (d *DialogService) menuReply(chatID int64, text string) models.Reply {
	return models.Reply{ChatID: chatID, Text: text, MainMenu: true}
}
