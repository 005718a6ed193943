package repository

import (
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
	"sync"
	"time"
)

// FoundTrains keeps the trains of the last search per chat, so that subscribe buttons
// pressed later can be resolved to a full train offer.
//
// It maintains a thread-safe in-memory map keyed by chat ID. The map can be persisted to and loaded
// from a JSON file. Copies are returned so callers cannot modify the stored slices.
type FoundTrains struct {
	foundTrains     map[int64][]models.TrainOffer // In-memory map of chat ID to last search results
	mu              sync.RWMutex                  // Mutex for thread-safe access
	storageFilePath string                        // Path to the file where search results are persisted
}

// NewFoundTrains creates a new instance of FoundTrains with the specified storage file path.
//
// Parameters:
//   - storageFilePath: The file path where the search results will be persisted in JSON format.
//
// Returns:
//   - *FoundTrains: A pointer to the initialized FoundTrains instance.
func NewFoundTrains(storageFilePath string) *FoundTrains {
	return &FoundTrains{
		foundTrains:     make(map[int64][]models.TrainOffer),
		storageFilePath: storageFilePath,
	}
}

// LoadFromFile restores the search results from the snapshot file. A missing file means a fresh start.
func (f *FoundTrains) LoadFromFile() error {
	if f.storageFilePath == "" {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	loaded, err := readSnapshot(f.storageFilePath, &f.foundTrains)
	if err != nil {
		logrus.WithError(err).Error("Error loading found trains")
		return err
	}
	if loaded {
		logrus.Infof("Loaded search results of %d chats from %s", len(f.foundTrains), f.storageFilePath)
	}
	return nil
}

// SaveFoundTrains replaces the search results stored for the chat.
//
// Parameters:
//   - chatID: The ID of the chat the search was made in.
//   - trains: The trains returned by the search.
//
// Returns:
//   - error: Always nil, as this operation does not currently fail.
func (f *FoundTrains) SaveFoundTrains(chatID int64, trains []models.TrainOffer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	trainsCopy := make([]models.TrainOffer, len(trains))
	copy(trainsCopy, trains)

	f.foundTrains[chatID] = trainsCopy
	return nil
}

// GetFoundTrains returns a copy of the last search results of the chat, or an empty slice.
func (f *FoundTrains) GetFoundTrains(chatID int64) []models.TrainOffer {
	f.mu.RLock()
	defer f.mu.RUnlock()

	trains, exists := f.foundTrains[chatID]
	if !exists {
		return []models.TrainOffer{}
	}

	trainsCopy := make([]models.TrainOffer, len(trains))
	copy(trainsCopy, trains)
	return trainsCopy
}

// SaveBatchToFile writes all search results to the snapshot file.
func (f *FoundTrains) SaveBatchToFile() error {
	if f.storageFilePath == "" {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	startTime := time.Now()
	if err := writeSnapshot(f.storageFilePath, f.foundTrains); err != nil {
		logrus.WithError(err).Error("Error saving found trains")
		return err
	}
	logrus.Debugf("Saved search results of %d chats to %s in %v", len(f.foundTrains), f.storageFilePath, time.Since(startTime))
	return nil
}
