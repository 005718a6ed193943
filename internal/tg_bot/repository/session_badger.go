package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
	"time"
)

// BadgerSessions keeps user states and per-chat search results in a badger key-value store,
// so sessions survive restarts without periodic snapshots.
type BadgerSessions struct {
	db  *badger.DB
	ttl time.Duration // Lifetime of a session entry, 0 keeps entries forever
}

// OpenBadgerSessions opens (or creates) the badger database at path.
// An empty path opens an in-memory database.
func OpenBadgerSessions(path string, ttl time.Duration) (*BadgerSessions, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return &BadgerSessions{db: db, ttl: ttl}, nil
}

// Close closes the underlying database.
func (b *BadgerSessions) Close() error {
	return b.db.Close()
}

func userKey(userID int64) []byte {
	return []byte(fmt.Sprintf("user:%d", userID))
}

func trainsKey(chatID int64) []byte {
	return []byte(fmt.Sprintf("trains:%d", chatID))
}

func (b *BadgerSessions) get(key []byte, dst any) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dst)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (b *BadgerSessions) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal session value: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, data)
		if b.ttl > 0 {
			entry = entry.WithTTL(b.ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (b *BadgerSessions) loadUser(userID int64) models.UserState {
	state := models.UserState{UserID: userID}
	if _, err := b.get(userKey(userID), &state); err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("Failed to read user session")
	}
	return state
}

// GetUserState returns the user's current bot state, or models.DefaultBotState when the user is unknown.
func (b *BadgerSessions) GetUserState(userID int64) models.BotState {
	state := b.loadUser(userID)
	if state.CurrentStep == "" {
		return models.DefaultBotState
	}
	return state.CurrentStep
}

// SetUserState stores the user's current bot state.
func (b *BadgerSessions) SetUserState(userID int64, botState models.BotState) error {
	state := b.loadUser(userID)
	state.CurrentStep = botState
	state.UpdatedAt = time.Now()
	if err := b.set(userKey(userID), state); err != nil {
		return fmt.Errorf("save state of user %d: %w", userID, err)
	}
	return nil
}

// GetSearchRequest returns the user's search request; a zero request when there is none.
func (b *BadgerSessions) GetSearchRequest(userID int64) models.SearchRequest {
	return b.loadUser(userID).SearchRequest
}

// SaveSearchRequest overwrites the user's search request.
func (b *BadgerSessions) SaveSearchRequest(userID int64, request models.SearchRequest) error {
	state := b.loadUser(userID)
	state.SearchRequest = request
	state.UpdatedAt = time.Now()
	if err := b.set(userKey(userID), state); err != nil {
		return fmt.Errorf("save search request of user %d: %w", userID, err)
	}
	return nil
}

// SaveFoundTrains replaces the search results stored for the chat.
func (b *BadgerSessions) SaveFoundTrains(chatID int64, trains []models.TrainOffer) error {
	if err := b.set(trainsKey(chatID), trains); err != nil {
		return fmt.Errorf("save found trains of chat %d: %w", chatID, err)
	}
	return nil
}

// GetFoundTrains returns the last search results of the chat, or an empty slice.
func (b *BadgerSessions) GetFoundTrains(chatID int64) []models.TrainOffer {
	trains := []models.TrainOffer{}
	if _, err := b.get(trainsKey(chatID), &trains); err != nil {
		logrus.WithError(err).WithField("chatID", chatID).Error("Failed to read found trains")
		return []models.TrainOffer{}
	}
	return trains
}
