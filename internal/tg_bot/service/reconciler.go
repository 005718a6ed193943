package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/metrics"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"time"
)

// Reconciler periodically re-checks every subscription against the schedule source.
// Departed trains are unsubscribed, price changes are stored and reported to the owner.
type Reconciler struct {
	store    SubscriptionRepository
	stations StationLookup
	trains   TrainSearcher
	notifier Notifier
	metrics  *metrics.Metrics
	period   time.Duration // Pause between passes
	timeout  time.Duration // Limit for processing one subscription
	workers  int           // Subscriptions processed in parallel
	now      func() time.Time
}

// NewReconciler creates a Reconciler. workers below 1 means sequential processing.
func NewReconciler(store SubscriptionRepository, stations StationLookup, trains TrainSearcher, notifier Notifier,
	m *metrics.Metrics, period, timeout time.Duration, workers int) *Reconciler {
	if workers < 1 {
		workers = 1
	}
	return &Reconciler{
		store:    store,
		stations: stations,
		trains:   trains,
		notifier: notifier,
		metrics:  m,
		period:   period,
		timeout:  timeout,
		workers:  workers,
		now:      time.Now,
	}
}

// Run starts a pass immediately and then every period until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	logrus.Infof("Subscription reconciler started, period %v, workers %d", r.period, r.workers)
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		if err := r.RunOnce(ctx); err != nil {
			logrus.WithError(err).Error("Subscription reconciliation failed")
		}
		select {
		case <-ctx.Done():
			logrus.Info("Subscription reconciler stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce processes every stored subscription once. Failures of single subscriptions are logged
// and do not stop the pass; only a failure to list subscriptions is returned.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	start := time.Now()
	subs, err := r.store.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(r.workers)
	for _, sub := range subs {
		sub := sub
		g.Go(func() error {
			outcome := r.processSubscription(ctx, sub)
			r.metrics.SubscriptionProcessed(outcome)
			return nil
		})
	}
	_ = g.Wait()

	r.metrics.ObserveReconcile(time.Since(start).Seconds())
	logrus.Debugf("Processed %d subscriptions in %v", len(subs), time.Since(start))
	return nil
}

func (r *Reconciler) processSubscription(ctx context.Context, sub models.Subscription) string {
	log := logrus.WithFields(logrus.Fields{
		"id":     sub.ID,
		"chatID": sub.ChatID,
		"train":  sub.TrainNumber,
		"date":   sub.DateDepart,
	})
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	date, err := ParseDateDepart(sub.DateDepart)
	if err != nil {
		log.WithError(err).Error("Subscription has an invalid departure date")
		return metrics.OutcomeFailed
	}
	departureCode, err := r.stationCode(ctx, sub.StationDepart)
	if err != nil {
		log.WithError(err).Error("Failed to resolve departure station")
		return metrics.OutcomeFailed
	}
	arrivalCode, err := r.stationCode(ctx, sub.StationArrival)
	if err != nil {
		log.WithError(err).Error("Failed to resolve arrival station")
		return metrics.OutcomeFailed
	}

	offers, err := r.trains.SearchTrains(ctx, departureCode, arrivalCode, date)
	if err != nil {
		log.WithError(err).Warn("Train search failed, subscription skipped")
		return metrics.OutcomeSkipped
	}
	if len(offers) == 0 {
		// The source answers a date in the past with an empty listing.
		if date.Before(r.today()) {
			log.Info("Departure date has passed and the listing is empty")
			return r.departed(ctx, log, sub)
		}
		log.Warn("Train search returned nothing, subscription skipped")
		return metrics.OutcomeSkipped
	}

	if !containsTrain(offers, sub.TrainNumber) {
		return r.departed(ctx, log, sub)
	}

	cars := sub.SubscribedCars
	var changes []CarChange
	for _, offer := range offers {
		if offer.Number != sub.TrainNumber || offer.DateDepart != sub.DateDepart {
			continue
		}
		diff := DiffCars(cars, CollapseMinPrice(offer.Cars))
		changes = append(changes, diff.Changes...)
		cars = diff.Updated
	}
	if len(changes) == 0 {
		return metrics.OutcomeUnchanged
	}

	sub.SubscribedCars = cars
	if err = r.store.Save(ctx, &sub); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) || errors.Is(err, repository.ErrSubscriptionNotFound) {
			log.WithError(err).Warn("Subscription changed during reconciliation, skipped")
			return metrics.OutcomeSkipped
		}
		log.WithError(err).Error("Failed to store updated prices")
		return metrics.OutcomeFailed
	}

	r.notify(log, sub.ChatID, FormatPriceChanges(sub, changes))
	log.WithField("changes", len(changes)).Info("Subscription prices changed")
	return metrics.OutcomeChanged
}

func (r *Reconciler) departed(ctx context.Context, log *logrus.Entry, sub models.Subscription) string {
	if err := r.store.DeleteByID(ctx, sub.ID); err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			log.Info("Departed train was already unsubscribed")
			return metrics.OutcomeSkipped
		}
		log.WithError(err).Error("Failed to delete subscription of departed train")
		return metrics.OutcomeFailed
	}
	r.notify(log, sub.ChatID, FormatDeparted(sub))
	log.Info("Train departed, subscription removed")
	return metrics.OutcomeDeparted
}

func (r *Reconciler) stationCode(ctx context.Context, name string) (int, error) {
	code, ok, err := r.stations.LookupStationCode(ctx, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("station %q not found", name)
	}
	return code, nil
}

func (r *Reconciler) notify(log *logrus.Entry, chatID int64, text string) {
	if err := r.notifier.Notify(chatID, text); err != nil {
		log.WithError(err).Error("Failed to deliver notification")
		return
	}
	r.metrics.NotificationSent()
}

func containsTrain(offers []models.TrainOffer, trainNumber string) bool {
	for _, offer := range offers {
		if offer.Number == trainNumber {
			return true
		}
	}
	return false
}

// today returns the current calendar date at UTC midnight, comparable with ParseDateDepart results.
func (r *Reconciler) today() time.Time {
	n := r.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}
