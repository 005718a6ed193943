package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
)

const (
	codeMoscow = 2000000
	codeSPb    = 2004000
	codeTver   = 2010000
)

type fakeStations struct {
	mu       sync.Mutex
	codes    map[string]int
	cache    map[string]int
	stations []models.Station
	searches int
	err      error
}

func newFakeStations() *fakeStations {
	return &fakeStations{
		codes: map[string]int{"МОСКВА": codeMoscow, "САНКТ-ПЕТЕРБУРГ": codeSPb, "ТВЕРЬ": codeTver},
		cache: map[string]int{},
	}
}

func (f *fakeStations) LookupStationCode(_ context.Context, name string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, false, f.err
	}
	code, ok := f.codes[strings.ToUpper(strings.TrimSpace(name))]
	return code, ok, nil
}

func (f *fakeStations) CachedStationName(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToUpper(strings.TrimSpace(name))
	_, ok := f.cache[key]
	return key, ok
}

func (f *fakeStations) SearchStations(_ context.Context, _ string) ([]models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.err != nil {
		return nil, f.err
	}
	for _, station := range f.stations {
		f.cache[strings.ToUpper(station.Name)] = station.Code
	}
	return f.stations, nil
}

type fakeTrains struct {
	mu     sync.Mutex
	offers map[string][]models.TrainOffer
	errs   map[string]error
	calls  int
}

func newFakeTrains() *fakeTrains {
	return &fakeTrains{offers: map[string][]models.TrainOffer{}, errs: map[string]error{}}
}

func routeKey(dep, arr int, date string) string {
	return fmt.Sprintf("%d-%d-%s", dep, arr, date)
}

func (f *fakeTrains) set(dep, arr int, date string, offers ...models.TrainOffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offers[routeKey(dep, arr, date)] = offers
}

func (f *fakeTrains) SearchTrains(_ context.Context, dep, arr int, date time.Time) ([]models.TrainOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	key := routeKey(dep, arr, FormatDate(date))
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	offers := f.offers[key]
	result := make([]models.TrainOffer, len(offers))
	for i, offer := range offers {
		offer.Cars = append([]models.CarClass(nil), offer.Cars...)
		result[i] = offer
	}
	return result, nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) Notify(chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeNotifier) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

var errSourceDown = errors.New("source is down")

func offer(number, date string, cars ...models.CarClass) models.TrainOffer {
	return models.TrainOffer{
		Number:         number,
		Brand:          "Сапсан",
		StationDepart:  "МОСКВА",
		StationArrival: "САНКТ-ПЕТЕРБУРГ",
		DateDepart:     date,
		DateArrival:    date,
		TimeDepart:     "07:00",
		TimeArrival:    "11:00",
		TimeInWay:      "04:00",
		Cars:           cars,
	}
}

func car(carType string, seats, price int) models.CarClass {
	return models.CarClass{CarType: carType, FreeSeats: seats, MinimalPrice: price}
}
