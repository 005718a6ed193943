package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/repository"
	"github.com/sirupsen/logrus"
	"strings"
)

const callbackSeparator = "|"

// CallbackResult holds the replies to a button press and the new state of the pressed button.
type CallbackResult struct {
	Replies []models.Reply
	Button  *models.InlineButton // nil leaves the button unchanged
}

func subscribeButton(trainNumber, dateDepart string) *models.InlineButton {
	return &models.InlineButton{
		Text:         constant.BUTTON_TEXT_SUBSCRIBE,
		CallbackData: fmt.Sprintf(constant.CALLBACK_DATA_PATTERN, models.CallbackSubscribe, trainNumber+callbackSeparator+dateDepart),
	}
}

func unsubscribeButton(subscriptionID string) *models.InlineButton {
	return &models.InlineButton{
		Text:         constant.BUTTON_TEXT_UNSUBSCRIBE,
		CallbackData: fmt.Sprintf(constant.CALLBACK_DATA_PATTERN, models.CallbackUnsubscribe, subscriptionID),
	}
}

// ParseCallbackData parses "SUBSCRIBE|number|date" and "UNSUBSCRIBE|id".
func ParseCallbackData(data string) (models.CallbackQuery, error) {
	parts := strings.Split(data, callbackSeparator)
	switch models.CallbackAction(parts[0]) {
	case models.CallbackSubscribe:
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return models.CallbackQuery{}, fmt.Errorf("malformed subscribe callback %q", data)
		}
		return models.CallbackQuery{Action: models.CallbackSubscribe, TrainNumber: parts[1], DateDepart: parts[2]}, nil
	case models.CallbackUnsubscribe:
		if len(parts) != 2 || parts[1] == "" {
			return models.CallbackQuery{}, fmt.Errorf("malformed unsubscribe callback %q", data)
		}
		return models.CallbackQuery{Action: models.CallbackUnsubscribe, SubscriptionID: parts[1]}, nil
	default:
		return models.CallbackQuery{}, fmt.Errorf("unknown callback action in %q", data)
	}
}

// HandleCallback processes a subscribe or unsubscribe button press.
func (d *DialogService) HandleCallback(ctx context.Context, userID, chatID int64, data string) CallbackResult {
	unlock := d.locker.Lock(userID)
	defer unlock()

	query, err := ParseCallbackData(data)
	if err != nil {
		logrus.WithError(err).WithField("chatID", chatID).Warn("Unsupported callback")
		return CallbackResult{Replies: []models.Reply{d.textReply(chatID, constant.REPLY_TRY_AGAIN)}}
	}
	if query.Action == models.CallbackSubscribe {
		return d.subscribe(ctx, chatID, query.TrainNumber, query.DateDepart)
	}
	return d.unsubscribe(ctx, chatID, query.SubscriptionID)
}

func (d *DialogService) subscribe(ctx context.Context, chatID int64, trainNumber, dateDepart string) CallbackResult {
	var offer *models.TrainOffer
	for _, found := range d.foundTrains.GetFoundTrains(chatID) {
		if found.Number == trainNumber && found.DateDepart == dateDepart {
			found := found
			offer = &found
			break
		}
	}
	if offer == nil {
		return CallbackResult{Replies: []models.Reply{d.textReply(chatID, constant.REPLY_SEARCH_AGAIN)}}
	}

	// Members of a group chat press buttons under different user IDs.
	unlock := d.chatLocker.Lock(chatID)
	defer unlock()

	existing, err := d.subscriptions.FindByChatIDAndTrainAndDate(ctx, chatID, trainNumber, dateDepart)
	if err != nil {
		logrus.WithError(err).WithField("chatID", chatID).Error("Failed to check existing subscriptions")
		return CallbackResult{Replies: []models.Reply{d.textReply(chatID, constant.REPLY_QUERY_FAILED)}}
	}
	if len(existing) > 0 {
		return CallbackResult{
			Replies: []models.Reply{d.textReply(chatID, constant.REPLY_ALREADY_SUBSCRIBED)},
			Button:  unsubscribeButton(existing[0].ID),
		}
	}

	sub := models.NewSubscription(chatID, *offer)
	sub.SubscribedCars = CollapseMinPrice(sub.SubscribedCars)
	if err = d.subscriptions.Save(ctx, &sub); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"chatID": chatID, "train": trainNumber, "date": dateDepart}).
			Error("Failed to save subscription")
		return CallbackResult{Replies: []models.Reply{d.textReply(chatID, constant.REPLY_QUERY_FAILED)}}
	}

	logrus.WithFields(logrus.Fields{"chatID": chatID, "id": sub.ID, "train": trainNumber}).Info("Subscription created")
	return CallbackResult{
		Replies: []models.Reply{d.textReply(chatID, fmt.Sprintf(constant.REPLY_SUBSCRIBED, trainNumber, dateDepart))},
		Button:  unsubscribeButton(sub.ID),
	}
}

func (d *DialogService) unsubscribe(ctx context.Context, chatID int64, id string) CallbackResult {
	sub, err := d.subscriptions.FindByID(ctx, id)
	if errors.Is(err, repository.ErrSubscriptionNotFound) || (err == nil && sub.ChatID != chatID) {
		return CallbackResult{Replies: []models.Reply{d.textReply(chatID, constant.REPLY_NOT_SUBSCRIBED)}}
	}
	if err != nil {
		logrus.WithError(err).WithField("id", id).Error("Failed to load subscription")
		return CallbackResult{Replies: []models.Reply{d.textReply(chatID, constant.REPLY_QUERY_FAILED)}}
	}

	if err = d.subscriptions.DeleteByID(ctx, id); err != nil && !errors.Is(err, repository.ErrSubscriptionNotFound) {
		logrus.WithError(err).WithField("id", id).Error("Failed to delete subscription")
		return CallbackResult{Replies: []models.Reply{d.textReply(chatID, constant.REPLY_QUERY_FAILED)}}
	}

	logrus.WithFields(logrus.Fields{"chatID": chatID, "id": id}).Info("Subscription removed")
	return CallbackResult{
		Replies: []models.Reply{d.textReply(chatID, fmt.Sprintf(constant.REPLY_UNSUBSCRIBED, sub.TrainNumber, sub.DateDepart))},
		Button:  subscribeButton(sub.TrainNumber, sub.DateDepart),
	}
}
