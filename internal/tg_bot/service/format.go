package service

import (
	"fmt"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"strconv"
	"strings"
	"time"
)

// FormatCars renders one line per car type.
func FormatCars(cars []models.CarClass) string {
	var sb strings.Builder
	for _, car := range cars {
		sb.WriteString(fmt.Sprintf(constant.TEXT_CAR_INFO, car.CarType, car.FreeSeats, car.MinimalPrice))
	}
	return sb.String()
}

// FormatTrainInfo renders a found train with its cars.
func FormatTrainInfo(offer models.TrainOffer) string {
	return fmt.Sprintf(constant.TEXT_TRAIN_INFO,
		offer.Number, offer.Brand,
		offer.StationDepart, offer.DateDepart, offer.TimeDepart,
		offer.StationArrival, offer.DateArrival, offer.TimeArrival,
		formatDuration(offer.TimeInWay),
		FormatCars(offer.Cars))
}

// FormatSubscriptionInfo renders a subscription like a found train; the travel time is computed from the schedule.
func FormatSubscriptionInfo(sub models.Subscription) string {
	return fmt.Sprintf(constant.TEXT_TRAIN_INFO,
		sub.TrainNumber, sub.TrainName,
		sub.StationDepart, sub.DateDepart, sub.TimeDepart,
		sub.StationArrival, sub.DateArrival, sub.TimeArrival,
		travelTime(sub),
		FormatCars(sub.SubscribedCars))
}

// FormatDeparted renders the notification about a departed train.
func FormatDeparted(sub models.Subscription) string {
	return fmt.Sprintf(constant.NOTIFY_DEPARTED, sub.TrainNumber, sub.TrainName, sub.DateDepart, sub.TimeDepart)
}

// FormatPriceChanges renders the change lines followed by the current prices of sub.
func FormatPriceChanges(sub models.Subscription, changes []CarChange) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(constant.NOTIFY_PRICE_CHANGES, sub.TrainNumber, sub.TrainName, sub.DateDepart, sub.TimeDepart, sub.StationArrival))
	for _, change := range changes {
		switch change.Kind {
		case PriceUp:
			sb.WriteString(fmt.Sprintf(constant.NOTIFY_PRICE_UP, change.CarType, change.OldPrice, change.NewPrice))
		case PriceDown:
			sb.WriteString(fmt.Sprintf(constant.NOTIFY_PRICE_DOWN, change.CarType, change.OldPrice, change.NewPrice))
		case CarVanished:
			sb.WriteString(fmt.Sprintf(constant.NOTIFY_CAR_VANISHED, change.CarType))
		case CarAppeared:
			sb.WriteString(fmt.Sprintf(constant.NOTIFY_CAR_APPEARED, change.CarType, change.NewPrice))
		}
	}
	sb.WriteString(constant.NOTIFY_LAST_PRICES)
	sb.WriteString(FormatCars(sub.SubscribedCars))
	return sb.String()
}

// formatDuration turns "HH:MM" into "Xч Yм"; anything else is returned as is.
func formatDuration(value string) string {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return value
	}
	hours, errH := strconv.Atoi(parts[0])
	minutes, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil {
		return value
	}
	return fmt.Sprintf("%dч %dм", hours, minutes)
}

func travelTime(sub models.Subscription) string {
	depart, err := time.Parse(dateTimeLayout, sub.DateDepart+" "+sub.TimeDepart)
	if err != nil {
		return "-"
	}
	arrive, err := time.Parse(dateTimeLayout, sub.DateArrival+" "+sub.TimeArrival)
	if err != nil || arrive.Before(depart) {
		return "-"
	}
	d := arrive.Sub(depart)
	return fmt.Sprintf("%dч %dм", int(d.Hours()), int(d.Minutes())%60)
}
