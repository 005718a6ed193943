// Package storage selects the subscription store and session backends by driver name.
package storage

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/repository"
	botServ "github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/service"
	"github.com/sirupsen/logrus"
	"sort"
	"strings"
	"time"
)

// Options carries the connection settings of every backend; each driver reads only its own.
type Options struct {
	MongoURI        string
	MongoDB         string
	MySQLDSN        string
	SessionFilePath string        // JSON snapshot path for the memory session driver
	BadgerPath      string        // Empty opens an in-memory badger
	SessionTTL      time.Duration // Badger entry lifetime
}

// Subscriptions is an opened subscription store together with its release function.
type Subscriptions struct {
	Repository botServ.SubscriptionRepository
	Close      func(ctx context.Context) error
}

// Sessions is an opened session backend.
// Flush persists in-memory state and is a no-op for backends that write through.
type Sessions struct {
	States      botServ.UsersChatStateRepository
	FoundTrains botServ.FoundTrainsRepository
	Flush       func() error
	Close       func() error
}

// subscriptionsCreator opens one subscription store implementation
type subscriptionsCreator func(ctx context.Context, opts Options) (Subscriptions, error)

// sessionsCreator opens one session backend implementation
type sessionsCreator func(opts Options) (Sessions, error)

var subscriptionsRegistry = map[string]subscriptionsCreator{
	"memory": func(_ context.Context, _ Options) (Subscriptions, error) {
		return Subscriptions{
			Repository: repository.NewMemorySubscriptions(),
			Close:      func(context.Context) error { return nil },
		}, nil
	},
	"mongo": func(ctx context.Context, opts Options) (Subscriptions, error) {
		client, err := repository.ConnectMongo(ctx, opts.MongoURI)
		if err != nil {
			return Subscriptions{}, err
		}
		store := repository.NewMongoSubscriptions(client.Database(opts.MongoDB))
		if err = store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return Subscriptions{}, err
		}
		return Subscriptions{Repository: store, Close: client.Disconnect}, nil
	},
	"mysql": func(ctx context.Context, opts Options) (Subscriptions, error) {
		db, err := repository.OpenMySQL(ctx, opts.MySQLDSN)
		if err != nil {
			return Subscriptions{}, err
		}
		store := repository.NewMySQLSubscriptions(db)
		if err = store.Migrate(ctx); err != nil {
			db.Close()
			return Subscriptions{}, err
		}
		return Subscriptions{
			Repository: store,
			Close:      func(context.Context) error { return db.Close() },
		}, nil
	},
}

var sessionsRegistry = map[string]sessionsCreator{
	"memory": func(opts Options) (Sessions, error) {
		states := repository.NewUsersStateMap(opts.SessionFilePath)
		if err := states.LoadFromFile(); err != nil {
			logrus.WithError(err).Error("Failed to restore user states, starting empty")
		}
		trainsPath := ""
		if opts.SessionFilePath != "" {
			trainsPath = opts.SessionFilePath + ".trains"
		}
		foundTrains := repository.NewFoundTrains(trainsPath)
		if err := foundTrains.LoadFromFile(); err != nil {
			logrus.WithError(err).Error("Failed to restore found trains, starting empty")
		}
		flush := func() error {
			if err := states.SaveBatchToFile(); err != nil {
				return err
			}
			return foundTrains.SaveBatchToFile()
		}
		return Sessions{
			States:      states,
			FoundTrains: foundTrains,
			Flush:       flush,
			Close:       flush,
		}, nil
	},
	"badger": func(opts Options) (Sessions, error) {
		db, err := repository.OpenBadgerSessions(opts.BadgerPath, opts.SessionTTL)
		if err != nil {
			return Sessions{}, err
		}
		return Sessions{
			States:      db,
			FoundTrains: db,
			Flush:       func() error { return nil },
			Close:       db.Close,
		}, nil
	},
}

// OpenSubscriptions opens the subscription store registered under driver.
func OpenSubscriptions(ctx context.Context, driver string, opts Options) (Subscriptions, error) {
	creator, exists := subscriptionsRegistry[driver]
	if !exists {
		return Subscriptions{}, fmt.Errorf("unsupported STORAGE_DRIVER: %s (expected %s)", driver, drivers(subscriptionsRegistry))
	}
	return creator(ctx, opts)
}

// OpenSessions opens the session backend registered under driver.
func OpenSessions(driver string, opts Options) (Sessions, error) {
	creator, exists := sessionsRegistry[driver]
	if !exists {
		return Sessions{}, fmt.Errorf("unsupported SESSION_DRIVER: %s (expected %s)", driver, drivers(sessionsRegistry))
	}
	return creator(opts)
}

func drivers[T any](registry map[string]T) string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
