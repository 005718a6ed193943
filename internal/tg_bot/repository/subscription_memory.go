package repository

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/google/uuid"
	"sort"
	"sync"
)

// MemorySubscriptions is a process-local subscription store, used in tests and when no database is configured.
type MemorySubscriptions struct {
	subscriptions map[string]models.Subscription
	mu            sync.RWMutex
}

// NewMemorySubscriptions creates an empty in-memory subscription store.
func NewMemorySubscriptions() *MemorySubscriptions {
	return &MemorySubscriptions{subscriptions: make(map[string]models.Subscription)}
}

func cloneSubscription(sub models.Subscription) models.Subscription {
	cars := make([]models.CarClass, len(sub.SubscribedCars))
	copy(cars, sub.SubscribedCars)
	sub.SubscribedCars = cars
	return sub
}

// filter must be called with the read lock held. Results are ordered by departure date and train number.
func (m *MemorySubscriptions) filter(match func(models.Subscription) bool) []models.Subscription {
	result := make([]models.Subscription, 0)
	for _, sub := range m.subscriptions {
		if match(sub) {
			result = append(result, cloneSubscription(sub))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DateDepart != result[j].DateDepart {
			return result[i].DateDepart < result[j].DateDepart
		}
		if result[i].TrainNumber != result[j].TrainNumber {
			return result[i].TrainNumber < result[j].TrainNumber
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// FindAll returns every stored subscription.
func (m *MemorySubscriptions) FindAll(_ context.Context) ([]models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter(func(models.Subscription) bool { return true }), nil
}

// FindByID returns the subscription with the id or ErrSubscriptionNotFound.
func (m *MemorySubscriptions) FindByID(_ context.Context, id string) (models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subscriptions[id]
	if !ok {
		return models.Subscription{}, fmt.Errorf("find subscription %s: %w", id, ErrSubscriptionNotFound)
	}
	return cloneSubscription(sub), nil
}

// FindByChatID returns the subscriptions owned by the chat.
func (m *MemorySubscriptions) FindByChatID(_ context.Context, chatID int64) ([]models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter(func(sub models.Subscription) bool { return sub.ChatID == chatID }), nil
}

// FindByChatIDAndTrainAndDate returns the chat's subscriptions to the train on the date.
func (m *MemorySubscriptions) FindByChatIDAndTrainAndDate(_ context.Context, chatID int64, trainNumber, dateDepart string) ([]models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter(func(sub models.Subscription) bool {
		return sub.ChatID == chatID && sub.TrainNumber == trainNumber && sub.DateDepart == dateDepart
	}), nil
}

// Save inserts a subscription without an ID or updates an existing one.
// An update succeeds only when sub.Version matches the stored version; on success the version is bumped in sub.
func (m *MemorySubscriptions) Save(_ context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub.ID == "" {
		sub.ID = uuid.NewString()
		sub.Version = 1
		m.subscriptions[sub.ID] = cloneSubscription(*sub)
		return nil
	}

	stored, ok := m.subscriptions[sub.ID]
	if !ok {
		return fmt.Errorf("save subscription %s: %w", sub.ID, ErrSubscriptionNotFound)
	}
	if stored.Version != sub.Version {
		return fmt.Errorf("save subscription %s (version %d, stored %d): %w", sub.ID, sub.Version, stored.Version, ErrVersionConflict)
	}
	sub.Version++
	m.subscriptions[sub.ID] = cloneSubscription(*sub)
	return nil
}

// DeleteByID removes the subscription. Deleting an unknown id returns ErrSubscriptionNotFound.
func (m *MemorySubscriptions) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscriptions[id]; !ok {
		return fmt.Errorf("delete subscription %s: %w", id, ErrSubscriptionNotFound)
	}
	delete(m.subscriptions, id)
	return nil
}
