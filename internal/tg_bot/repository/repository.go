// Package repository provides storage for the train schedule bot: conversation sessions,
// cached search results, the station directory cache and user subscriptions.
package repository

import (
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
	"sync"
	"time"
)

// UsersState manages the conversation state of bot users in memory and on disk.
type UsersState struct {
	BatchBuffer     map[int64]*models.UserState `json:"batchBuffer"` // In-memory store of user states by user ID.
	storageFilePath string                      // File path for persisting user states.
	mu              *sync.RWMutex               // Protects BatchBuffer from concurrent access
}

// NewUsersStateMap creates a new UsersState instance with an empty memory buffer.
// Arguments:
//   - envStoragePath: file path where user states are persisted (empty disables persistence).
//
// Returns a pointer to a UsersState.
func NewUsersStateMap(envStoragePath string) *UsersState {
	return &UsersState{
		BatchBuffer:     make(map[int64]*models.UserState),
		storageFilePath: envStoragePath,
		mu:              &sync.RWMutex{},
	}
}

// GetUserState returns the user's current bot state, or models.DefaultBotState when the user is unknown.
func (m *UsersState) GetUserState(userID int64) models.BotState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.BatchBuffer[userID]
	if !ok || state == nil || state.CurrentStep == "" {
		return models.DefaultBotState
	}
	return state.CurrentStep
}

// SetUserState stores the user's current bot state.
func (m *UsersState) SetUserState(userID int64, botState models.BotState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getOrCreate(userID).CurrentStep = botState
	return nil
}

// GetSearchRequest returns a copy of the user's search request; a zero request when there is none.
func (m *UsersState) GetSearchRequest(userID int64) models.SearchRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.BatchBuffer[userID]
	if !ok || state == nil {
		return models.SearchRequest{}
	}
	return state.SearchRequest
}

// SaveSearchRequest overwrites the user's search request.
func (m *UsersState) SaveSearchRequest(userID int64, request models.SearchRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getOrCreate(userID).SearchRequest = request
	return nil
}

// getOrCreate must be called with the write lock held.
func (m *UsersState) getOrCreate(userID int64) *models.UserState {
	state, ok := m.BatchBuffer[userID]
	if !ok || state == nil {
		state = &models.UserState{UserID: userID}
		m.BatchBuffer[userID] = state
	}
	state.UpdatedAt = time.Now()
	return state
}

// LoadFromFile restores user states from the snapshot file. A missing file means a fresh start.
func (m *UsersState) LoadFromFile() error {
	if m.storageFilePath == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	buffer := make(map[int64]*models.UserState)
	loaded, err := readSnapshot(m.storageFilePath, &buffer)
	if err != nil {
		logrus.WithError(err).Error("Error loading user states")
		return err
	}
	if !loaded {
		logrus.Infof("No user states in %s, starting with empty buffer", m.storageFilePath)
		return nil
	}
	m.BatchBuffer = buffer
	logrus.Infof("Loaded %d user states from %s", len(m.BatchBuffer), m.storageFilePath)
	return nil
}

// SaveBatchToFile writes all user states to the snapshot file.
func (m *UsersState) SaveBatchToFile() error {
	if m.storageFilePath == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	startTime := time.Now()
	if err := writeSnapshot(m.storageFilePath, m.BatchBuffer); err != nil {
		logrus.WithError(err).Error("Error saving user states")
		return err
	}
	logrus.Debugf("Saved %d user states to %s in %v", len(m.BatchBuffer), m.storageFilePath, time.Since(startTime))
	return nil
}
