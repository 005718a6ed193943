package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

var subscriptionColumns = []string{"id", "chat_id", "train_number", "train_name", "station_depart", "station_arrival",
	"date_depart", "date_arrival", "time_depart", "time_arrival", "subscribed_cars", "version"}

func newMockStore(t *testing.T) (*MySQLSubscriptions, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMySQLSubscriptions(db), mock
}

func TestMySQLSubscriptions_Migrate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS subscriptions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLSubscriptions_Insert(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO subscriptions").
		WithArgs(sqlmock.AnyArg(), int64(1), "083M", "Сапсан", "МОСКВА", "САНКТ-ПЕТЕРБУРГ",
			"29.02.2024", "29.02.2024", "07:00", "11:00", `[{"type":"Купе","freeSeats":10,"tariff":5000}]`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sub := testSubscription(1, "083M", "29.02.2024")
	if err := store.Save(context.Background(), &sub); err != nil {
		t.Fatalf("save: %v", err)
	}
	if sub.ID == "" || sub.Version != 1 {
		t.Errorf("expected generated id and version 1, got %q/%d", sub.ID, sub.Version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLSubscriptions_UpdateVersion(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("UPDATE subscriptions SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE subscriptions SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	sub := testSubscription(1, "083M", "29.02.2024")
	sub.ID, sub.Version = "sub-1", 3
	if err := store.Save(context.Background(), &sub); err != nil {
		t.Fatalf("update: %v", err)
	}
	if sub.Version != 4 {
		t.Errorf("expected version 4, got %d", sub.Version)
	}

	stale := testSubscription(1, "083M", "29.02.2024")
	stale.ID, stale.Version = "sub-1", 3
	if err := store.Save(context.Background(), &stale); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("expected version conflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLSubscriptions_FindByChatID(t *testing.T) {
	store, mock := newMockStore(t)
	rows := sqlmock.NewRows(subscriptionColumns).
		AddRow("sub-1", int64(1), "083M", "Сапсан", "МОСКВА", "САНКТ-ПЕТЕРБУРГ", "29.02.2024", "29.02.2024",
			"07:00", "11:00", `[{"type":"Купе","freeSeats":10,"tariff":5000}]`, 2)
	mock.ExpectQuery("SELECT (.+) FROM subscriptions WHERE chat_id = \\?").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	subs, err := store.FindByChatID(context.Background(), 1)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscription, got %d", len(subs))
	}
	got := subs[0]
	if got.ID != "sub-1" || got.Version != 2 || len(got.SubscribedCars) != 1 || got.SubscribedCars[0].MinimalPrice != 5000 {
		t.Errorf("unexpected subscription %+v", got)
	}
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLSubscriptions_FindByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM subscriptions WHERE id = \\?").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(subscriptionColumns))

	if _, err := store.FindByID(context.Background(), "missing"); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestMySQLSubscriptions_Delete(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM subscriptions WHERE id = \\?").
		WithArgs("sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM subscriptions WHERE id = \\?").
		WithArgs("sub-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteByID(context.Background(), "sub-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteByID(context.Background(), "sub-1"); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
