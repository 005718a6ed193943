package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/metrics"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type reconcilerFixture struct {
	reconciler *Reconciler
	store      *repository.MemorySubscriptions
	trains     *fakeTrains
	notifier   *fakeNotifier
	metrics    *metrics.Metrics
}

func newReconcilerFixture(workers int) *reconcilerFixture {
	f := &reconcilerFixture{
		store:    repository.NewMemorySubscriptions(),
		trains:   newFakeTrains(),
		notifier: &fakeNotifier{},
		metrics:  metrics.NewMetrics("test", prometheus.NewRegistry()),
	}
	f.reconciler = NewReconciler(f.store, newFakeStations(), f.trains, f.notifier, f.metrics, time.Minute, time.Second, workers)
	f.reconciler.now = func() time.Time { return time.Date(2024, time.February, 1, 9, 30, 0, 0, time.UTC) }
	return f
}

func (f *reconcilerFixture) subscribe(t *testing.T, chatID int64, number, date string, cars ...models.CarClass) models.Subscription {
	t.Helper()
	sub := models.NewSubscription(chatID, offer(number, date, cars...))
	if err := f.store.Save(context.Background(), &sub); err != nil {
		t.Fatalf("save: %v", err)
	}
	return sub
}

func (f *reconcilerFixture) run(t *testing.T) {
	t.Helper()
	if err := f.reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
}

func TestReconciler_DepartedTrain(t *testing.T) {
	f := newReconcilerFixture(2)
	sub := f.subscribe(t, 1, "083M", "29.02.2024", car("Купе", 10, 5000))
	f.trains.set(codeMoscow, codeSPb, "29.02.2024", offer("084M", "29.02.2024"), offer("085M", "29.02.2024"))

	f.run(t)

	if _, err := f.store.FindByID(context.Background(), sub.ID); err == nil {
		t.Errorf("departed subscription was not deleted")
	}
	sent := f.notifier.messages()
	if len(sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(sent))
	}
	if sent[0].chatID != 1 || !strings.Contains(sent[0].text, "083M") {
		t.Errorf("unexpected notification %+v", sent[0])
	}
	if got := testutil.ToFloat64(f.metrics.SubscriptionsProcessed.WithLabelValues(metrics.OutcomeDeparted)); got != 1 {
		t.Errorf("expected departed metric 1, got %v", got)
	}
}

func TestReconciler_PriceChange(t *testing.T) {
	f := newReconcilerFixture(1)
	sub := f.subscribe(t, 1, "083M", "29.02.2024", car("Type1", 100, 5000))
	f.trains.set(codeMoscow, codeSPb, "29.02.2024",
		offer("083M", "29.02.2024", car("Type1", 80, 5500), car("Type1", 90, 6000)),
	)

	f.run(t)

	stored, err := f.store.FindByID(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(stored.SubscribedCars) != 1 || stored.SubscribedCars[0] != car("Type1", 80, 5500) {
		t.Errorf("unexpected stored cars %+v", stored.SubscribedCars)
	}
	if stored.Version != sub.Version+1 {
		t.Errorf("expected version bump, got %d", stored.Version)
	}
	sent := f.notifier.messages()
	if len(sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(sent))
	}
	if !strings.Contains(sent[0].text, constant.EMOJI_PRICE_UP) || !strings.Contains(sent[0].text, "5500") {
		t.Errorf("expected price up message, got %q", sent[0].text)
	}
}

func TestReconciler_SecondRunIsQuiet(t *testing.T) {
	f := newReconcilerFixture(4)
	f.subscribe(t, 1, "083M", "29.02.2024", car("Купе", 10, 5000), car("Люкс", 2, 12000))
	f.trains.set(codeMoscow, codeSPb, "29.02.2024",
		offer("083M", "29.02.2024", car("Купе", 8, 4500), car("Плацкарт", 50, 2500)),
	)

	f.run(t)
	if got := len(f.notifier.messages()); got != 1 {
		t.Fatalf("expected one notification on the first run, got %d", got)
	}
	f.run(t)
	if got := len(f.notifier.messages()); got != 1 {
		t.Errorf("expected no notifications on the second run, got %d total", got)
	}
}

func TestReconciler_NoChange(t *testing.T) {
	f := newReconcilerFixture(1)
	sub := f.subscribe(t, 1, "083M", "29.02.2024", car("Купе", 10, 5000))
	f.trains.set(codeMoscow, codeSPb, "29.02.2024", offer("083M", "29.02.2024", car("Купе", 3, 5000)))

	f.run(t)

	if got := len(f.notifier.messages()); got != 0 {
		t.Errorf("expected no notifications, got %d", got)
	}
	stored, _ := f.store.FindByID(context.Background(), sub.ID)
	if stored.Version != sub.Version {
		t.Errorf("unchanged subscription must not be saved")
	}
}

func TestReconciler_EmptyOrFailedSearchSkips(t *testing.T) {
	f := newReconcilerFixture(2)
	empty := f.subscribe(t, 1, "083M", "29.02.2024", car("Купе", 10, 5000))
	failing := f.subscribe(t, 2, "083M", "01.03.2024", car("Купе", 10, 5000))
	f.trains.errs[routeKey(codeMoscow, codeSPb, "01.03.2024")] = errSourceDown

	f.run(t)

	for _, id := range []string{empty.ID, failing.ID} {
		if _, err := f.store.FindByID(context.Background(), id); err != nil {
			t.Errorf("subscription %s must be kept: %v", id, err)
		}
	}
	if got := len(f.notifier.messages()); got != 0 {
		t.Errorf("expected no notifications, got %d", got)
	}
	if got := testutil.ToFloat64(f.metrics.SubscriptionsProcessed.WithLabelValues(metrics.OutcomeSkipped)); got != 2 {
		t.Errorf("expected 2 skipped, got %v", got)
	}
}

func TestReconciler_PastDateWithoutTrainsIsDeparted(t *testing.T) {
	f := newReconcilerFixture(2)
	sub := f.subscribe(t, 1, "083M", "01.01.2020", car("Купе", 10, 5000))

	for i := 0; i < 3; i++ {
		f.run(t)
	}

	if _, err := f.store.FindByID(context.Background(), sub.ID); err == nil {
		t.Errorf("past-date subscription was not deleted")
	}
	sent := f.notifier.messages()
	if len(sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(sent))
	}
	if sent[0].chatID != 1 || !strings.Contains(sent[0].text, "083M") {
		t.Errorf("unexpected notification %+v", sent[0])
	}
	if got := testutil.ToFloat64(f.metrics.SubscriptionsProcessed.WithLabelValues(metrics.OutcomeDeparted)); got != 1 {
		t.Errorf("expected departed metric 1, got %v", got)
	}
}

func TestReconciler_PastDateWithFailedSearchSkips(t *testing.T) {
	f := newReconcilerFixture(1)
	sub := f.subscribe(t, 1, "083M", "01.01.2020", car("Купе", 10, 5000))
	f.trains.errs[routeKey(codeMoscow, codeSPb, "01.01.2020")] = errSourceDown

	f.run(t)

	if _, err := f.store.FindByID(context.Background(), sub.ID); err != nil {
		t.Errorf("subscription must be kept on a failed search: %v", err)
	}
	if got := len(f.notifier.messages()); got != 0 {
		t.Errorf("expected no notifications, got %d", got)
	}
}

func TestReconciler_TodayWithoutTrainsSkips(t *testing.T) {
	f := newReconcilerFixture(1)
	sub := f.subscribe(t, 1, "083M", "01.02.2024", car("Купе", 10, 5000))

	f.run(t)

	if _, err := f.store.FindByID(context.Background(), sub.ID); err != nil {
		t.Errorf("subscription for today must be kept: %v", err)
	}
	if got := testutil.ToFloat64(f.metrics.SubscriptionsProcessed.WithLabelValues(metrics.OutcomeSkipped)); got != 1 {
		t.Errorf("expected 1 skipped, got %v", got)
	}
}

func TestReconciler_FailuresAreIsolated(t *testing.T) {
	f := newReconcilerFixture(1)
	broken := models.NewSubscription(1, offer("083M", "31.02.2024"))
	if err := f.store.Save(context.Background(), &broken); err != nil {
		t.Fatalf("save: %v", err)
	}
	unknown := models.NewSubscription(2, offer("083M", "29.02.2024"))
	unknown.StationArrival = "АТЛАНТИДА"
	if err := f.store.Save(context.Background(), &unknown); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.subscribe(t, 3, "085M", "29.02.2024", car("Купе", 10, 5000))
	f.trains.set(codeMoscow, codeSPb, "29.02.2024", offer("085M", "29.02.2024", car("Купе", 10, 4000)))

	f.run(t)

	sent := f.notifier.messages()
	if len(sent) != 1 || sent[0].chatID != 3 {
		t.Errorf("expected one notification to chat 3, got %+v", sent)
	}
	if got := testutil.ToFloat64(f.metrics.SubscriptionsProcessed.WithLabelValues(metrics.OutcomeFailed)); got != 2 {
		t.Errorf("expected 2 failed, got %v", got)
	}
}

func TestReconciler_NotifyFailureDoesNotStop(t *testing.T) {
	f := newReconcilerFixture(1)
	f.notifier.err = errSourceDown
	sub := f.subscribe(t, 1, "083M", "29.02.2024", car("Купе", 10, 5000))
	f.trains.set(codeMoscow, codeSPb, "29.02.2024", offer("084M", "29.02.2024"))

	f.run(t)

	if _, err := f.store.FindByID(context.Background(), sub.ID); err == nil {
		t.Errorf("subscription must be removed even if the notification failed")
	}
	if got := testutil.ToFloat64(f.metrics.NotificationsSent); got != 0 {
		t.Errorf("failed notification must not be counted, got %v", got)
	}
}

func TestReconciler_RunStopsOnCancel(t *testing.T) {
	f := newReconcilerFixture(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.reconciler.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop after cancel")
	}
}
