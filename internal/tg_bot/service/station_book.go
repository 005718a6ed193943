package service

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
	"strings"
)

// handleStationLookup serves the station directory: the entry states prompt for a name part,
// the following input is answered with matching stations.
func (d *DialogService) handleStationLookup(ctx context.Context, userID, chatID int64, state models.BotState, text string) []models.Reply {
	switch state {
	case models.StateShowStationsBookMenu, models.StateStationsSearch:
		d.setState(userID, models.StateAskStationNamePart)
		return []models.Reply{d.textReply(chatID, constant.REPLY_STATIONS_HELP)}
	}

	query := strings.ToUpper(text)
	defer d.setState(userID, models.StateStationNamePartReceived)

	if name, ok := d.stations.CachedStationName(query); ok {
		return []models.Reply{d.textReply(chatID, fmt.Sprintf(constant.REPLY_STATION_FOUND, name))}
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	stations, err := d.stations.SearchStations(ctx, query)
	if err != nil {
		logrus.WithError(err).WithField("query", query).Error("Station search failed")
		return []models.Reply{d.textReply(chatID, constant.REPLY_QUERY_FAILED)}
	}

	names := make([]string, 0, len(stations))
	for _, station := range stations {
		name := strings.ToUpper(station.Name)
		if strings.Contains(name, query) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return []models.Reply{d.textReply(chatID, constant.REPLY_STATIONS_EMPTY)}
	}
	return []models.Reply{d.textReply(chatID, fmt.Sprintf(constant.REPLY_STATIONS_FOUND, strings.Join(names, "\n")))}
}
