package models

import "time"

// BotState is the current step of the dialogue the bot is having with one user.
type BotState string

const (
	StateTrainsSearch              BotState = "TRAINS_SEARCH"
	StateTrainsSearchStarted       BotState = "TRAINS_SEARCH_STARTED"
	StateTrainsSearchFinish        BotState = "TRAINS_SEARCH_FINISH"
	StateAskStationDepart          BotState = "ASK_STATION_DEPART"
	StateAskStationArrival         BotState = "ASK_STATION_ARRIVAL"
	StateAskDateDepart             BotState = "ASK_DATE_DEPART"
	StateDateDepartReceived        BotState = "DATE_DEPART_RECEIVED"
	StateTrainInfoResponseAwaiting BotState = "TRAIN_INFO_RESPONSE_AWAITING"
	StateIdle                      BotState = "IDLE"
	StateShowMainMenu              BotState = "SHOW_MAIN_MENU"
	StateShowSubscriptions         BotState = "SHOW_SUBSCRIPTIONS"
	StateShowStationsBookMenu      BotState = "SHOW_STATIONS_BOOK_MENU"
	StateStationsSearch            BotState = "STATIONS_SEARCH"
	StateAskStationNamePart        BotState = "ASK_STATION_NAME_PART"
	StateStationNamePartReceived   BotState = "STATION_NAME_PART_RECEIVED"
	StateShowHelpMenu              BotState = "SHOW_HELP_MENU"
)

// DefaultBotState is used for users the bot has no state for.
const DefaultBotState = StateShowMainMenu

// SearchRequest holds the parameters collected during one train search conversation.
type SearchRequest struct {
	DepartureStationCode *int       `json:"departureStationCode,omitempty"`
	ArrivalStationCode   *int       `json:"arrivalStationCode,omitempty"`
	DateDepart           *time.Time `json:"dateDepart,omitempty"`
}

// UserState is the per-user session record kept by the state repositories.
type UserState struct {
	UserID        int64         `json:"userID"`        // Telegram user ID
	CurrentStep   BotState      `json:"currentStep"`   // Current step of the dialogue
	SearchRequest SearchRequest `json:"searchRequest"` // Parameters of the search in progress
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Station is one entry of the station directory.
type Station struct {
	Name string `json:"n"`
	Code int    `json:"c"`
}
