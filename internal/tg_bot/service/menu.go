package service

import (
	"context"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

func (d *DialogService) handleMainMenu(_ context.Context, userID, chatID int64, state models.BotState, text string) []models.Reply {
	if state != models.StateShowMainMenu {
		d.setState(userID, models.StateShowMainMenu)
	}
	if text == constant.COMMAND_START {
		return []models.Reply{d.menuReply(chatID, constant.REPLY_START)}
	}
	return []models.Reply{d.menuReply(chatID, constant.REPLY_MAIN_MENU)}
}

func (d *DialogService) handleHelp(_ context.Context, userID, chatID int64, _ models.BotState, _ string) []models.Reply {
	d.setState(userID, models.StateShowMainMenu)
	return []models.Reply{d.menuReply(chatID, constant.REPLY_HELP)}
}

// handleSubscriptions lists the chat's subscriptions, each with an unsubscribe button.
func (d *DialogService) handleSubscriptions(ctx context.Context, userID, chatID int64, _ models.BotState, _ string) []models.Reply {
	d.setState(userID, models.StateShowMainMenu)

	subs, err := d.subscriptions.FindByChatID(ctx, chatID)
	if err != nil {
		logrus.WithError(err).WithField("chatID", chatID).Error("Failed to load subscriptions")
		return []models.Reply{d.menuReply(chatID, constant.REPLY_QUERY_FAILED)}
	}
	if len(subs) == 0 {
		return []models.Reply{d.menuReply(chatID, constant.REPLY_NO_SUBSCRIPTIONS)}
	}

	replies := make([]models.Reply, 0, len(subs)+1)
	for _, sub := range subs {
		replies = append(replies, models.Reply{
			ChatID: chatID,
			Text:   FormatSubscriptionInfo(sub),
			Button: unsubscribeButton(sub.ID),
		})
	}
	return append(replies, d.menuReply(chatID, constant.REPLY_SUBSCRIPTIONS_DONE))
}
