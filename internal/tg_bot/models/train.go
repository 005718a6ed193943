package models

// CarClass is one berth/seat category on one train.
type CarClass struct {
	CarType      string `json:"type" bson:"carType"`
	FreeSeats    int    `json:"freeSeats" bson:"freeSeats"`
	MinimalPrice int    `json:"tariff" bson:"minimalPrice"`
}

// TrainOffer is one train found for a route and date together with its current cars.
type TrainOffer struct {
	Number         string     `json:"number"`
	Brand          string     `json:"brand"`
	StationDepart  string     `json:"station0"`
	StationArrival string     `json:"station1"`
	DateDepart     string     `json:"date0"`
	DateArrival    string     `json:"date1"`
	TimeDepart     string     `json:"time0"`
	TimeArrival    string     `json:"time1"`
	TimeInWay      string     `json:"timeInWay"`
	Cars           []CarClass `json:"cars"`
}
