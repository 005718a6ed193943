package service

import (
	"context"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// handleTrainSearch walks the user through departure station, arrival station and date,
// then runs the search. Invalid input keeps the current state and re-prompts.
func (d *DialogService) handleTrainSearch(ctx context.Context, userID, chatID int64, state models.BotState, text string) []models.Reply {
	switch state {
	case models.StateTrainsSearch, models.StateTrainsSearchStarted, models.StateAskStationDepart:
		return d.startSearch(userID, chatID)
	case models.StateAskStationArrival:
		return d.receiveDepartureStation(ctx, userID, chatID, text)
	case models.StateAskDateDepart:
		return d.receiveArrivalStation(ctx, userID, chatID, text)
	case models.StateDateDepartReceived:
		return d.receiveDate(ctx, userID, chatID, text)
	default:
		d.setState(userID, models.StateShowMainMenu)
		return []models.Reply{d.menuReply(chatID, constant.REPLY_MAIN_MENU)}
	}
}

func (d *DialogService) startSearch(userID, chatID int64) []models.Reply {
	if err := d.sessions.SaveSearchRequest(userID, models.SearchRequest{}); err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("Failed to reset search request")
		return []models.Reply{d.textReply(chatID, constant.REPLY_TRY_AGAIN)}
	}
	d.setState(userID, models.StateAskStationArrival)
	return []models.Reply{d.textReply(chatID, constant.REPLY_ENTER_DEPART)}
}

// resolveStation returns the station code, or a reply to send when the name cannot be resolved.
func (d *DialogService) resolveStation(ctx context.Context, chatID int64, name string) (int, *models.Reply) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	code, ok, err := d.stations.LookupStationCode(ctx, name)
	if err != nil {
		logrus.WithError(err).WithField("station", name).Error("Station lookup failed")
		reply := d.textReply(chatID, constant.REPLY_QUERY_FAILED)
		return 0, &reply
	}
	if !ok {
		reply := d.textReply(chatID, constant.REPLY_STATION_404)
		return 0, &reply
	}
	return code, nil
}

func (d *DialogService) receiveDepartureStation(ctx context.Context, userID, chatID int64, text string) []models.Reply {
	code, failure := d.resolveStation(ctx, chatID, text)
	if failure != nil {
		return []models.Reply{*failure}
	}

	request := d.sessions.GetSearchRequest(userID)
	request.DepartureStationCode = &code
	if err := d.sessions.SaveSearchRequest(userID, request); err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("Failed to save departure station")
		return []models.Reply{d.textReply(chatID, constant.REPLY_TRY_AGAIN)}
	}
	d.setState(userID, models.StateAskDateDepart)
	return []models.Reply{d.textReply(chatID, constant.REPLY_ENTER_ARRIVAL)}
}

func (d *DialogService) receiveArrivalStation(ctx context.Context, userID, chatID int64, text string) []models.Reply {
	code, failure := d.resolveStation(ctx, chatID, text)
	if failure != nil {
		return []models.Reply{*failure}
	}

	request := d.sessions.GetSearchRequest(userID)
	if request.DepartureStationCode != nil && *request.DepartureStationCode == code {
		return []models.Reply{d.textReply(chatID, constant.REPLY_STATIONS_EQUAL)}
	}
	request.ArrivalStationCode = &code
	if err := d.sessions.SaveSearchRequest(userID, request); err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("Failed to save arrival station")
		return []models.Reply{d.textReply(chatID, constant.REPLY_TRY_AGAIN)}
	}
	d.setState(userID, models.StateDateDepartReceived)
	return []models.Reply{d.textReply(chatID, constant.REPLY_ENTER_DATE)}
}

func (d *DialogService) receiveDate(ctx context.Context, userID, chatID int64, text string) []models.Reply {
	date, err := ParseDateDepart(text)
	if err != nil {
		return []models.Reply{d.textReply(chatID, constant.REPLY_WRONG_DATE)}
	}

	request := d.sessions.GetSearchRequest(userID)
	if request.DepartureStationCode == nil || request.ArrivalStationCode == nil {
		logrus.WithField("userID", userID).Warn("Incomplete search request, starting over")
		d.setState(userID, models.StateShowMainMenu)
		return []models.Reply{d.menuReply(chatID, constant.REPLY_TRY_AGAIN)}
	}
	request.DateDepart = &date
	if err = d.sessions.SaveSearchRequest(userID, request); err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("Failed to save departure date")
	}
	d.setState(userID, models.StateShowMainMenu)

	searchCtx, cancel := d.withTimeout(ctx)
	defer cancel()
	offers, err := d.trains.SearchTrains(searchCtx, *request.DepartureStationCode, *request.ArrivalStationCode, date)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"departure": *request.DepartureStationCode,
			"arrival":   *request.ArrivalStationCode,
			"date":      FormatDate(date),
		}).Error("Train search failed")
		offers = nil
	}
	if len(offers) == 0 {
		return []models.Reply{d.menuReply(chatID, constant.REPLY_TRAINS_404)}
	}

	for i := range offers {
		offers[i].Cars = CollapseMinPrice(offers[i].Cars)
	}
	if err = d.foundTrains.SaveFoundTrains(chatID, offers); err != nil {
		logrus.WithError(err).WithField("chatID", chatID).Error("Failed to cache found trains")
	}

	replies := make([]models.Reply, 0, len(offers)+1)
	for _, offer := range offers {
		replies = append(replies, models.Reply{
			ChatID: chatID,
			Text:   FormatTrainInfo(offer),
			Button: d.offerButton(ctx, chatID, offer),
		})
	}
	return append(replies, d.menuReply(chatID, constant.REPLY_SEARCH_DONE))
}

// offerButton shows "subscribed" when the chat already follows the train on that date.
func (d *DialogService) offerButton(ctx context.Context, chatID int64, offer models.TrainOffer) *models.InlineButton {
	existing, err := d.subscriptions.FindByChatIDAndTrainAndDate(ctx, chatID, offer.Number, offer.DateDepart)
	if err != nil {
		logrus.WithError(err).WithField("chatID", chatID).Error("Failed to check subscription")
	}
	if len(existing) > 0 {
		return unsubscribeButton(existing[0].ID)
	}
	return subscribeButton(offer.Number, offer.DateDepart)
}
