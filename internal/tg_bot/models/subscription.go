package models

// Subscription ties a chat to one train on one departure date.
// SubscribedCars is the baseline the reconciler compares fresh search results against.
type Subscription struct {
	ID             string     `json:"id" bson:"_id,omitempty"`
	ChatID         int64      `json:"chatId" bson:"chatId"`
	TrainNumber    string     `json:"trainNumber" bson:"trainNumber"`
	TrainName      string     `json:"trainName" bson:"trainName"`
	StationDepart  string     `json:"stationDepart" bson:"stationDepart"`
	StationArrival string     `json:"stationArrival" bson:"stationArrival"`
	DateDepart     string     `json:"dateDepart" bson:"dateDepart"`
	DateArrival    string     `json:"dateArrival" bson:"dateArrival"`
	TimeDepart     string     `json:"timeDepart" bson:"timeDepart"`
	TimeArrival    string     `json:"timeArrival" bson:"timeArrival"`
	SubscribedCars []CarClass `json:"subscribedCars" bson:"subscribedCars"`
	Version        int        `json:"version" bson:"version"` // Bumped on every successful save
}

// NewSubscription builds a subscription snapshot of the offer for the chat.
func NewSubscription(chatID int64, offer TrainOffer) Subscription {
	cars := make([]CarClass, len(offer.Cars))
	copy(cars, offer.Cars)
	return Subscription{
		ChatID:         chatID,
		TrainNumber:    offer.Number,
		TrainName:      offer.Brand,
		StationDepart:  offer.StationDepart,
		StationArrival: offer.StationArrival,
		DateDepart:     offer.DateDepart,
		DateArrival:    offer.DateArrival,
		TimeDepart:     offer.TimeDepart,
		TimeArrival:    offer.TimeArrival,
		SubscribedCars: cars,
	}
}
