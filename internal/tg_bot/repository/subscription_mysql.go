package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"time"
)

const createSubscriptionsTable = `CREATE TABLE IF NOT EXISTS subscriptions (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	chat_id BIGINT NOT NULL,
	train_number VARCHAR(16) NOT NULL,
	train_name VARCHAR(128) NOT NULL,
	station_depart VARCHAR(128) NOT NULL,
	station_arrival VARCHAR(128) NOT NULL,
	date_depart CHAR(10) NOT NULL,
	date_arrival CHAR(10) NOT NULL,
	time_depart CHAR(5) NOT NULL,
	time_arrival CHAR(5) NOT NULL,
	subscribed_cars TEXT NOT NULL,
	version INT NOT NULL,
	INDEX idx_subscriptions_chat (chat_id),
	INDEX idx_subscriptions_train_date (chat_id, train_number, date_depart)
)`

const selectSubscriptions = `SELECT id, chat_id, train_number, train_name, station_depart, station_arrival,
	date_depart, date_arrival, time_depart, time_arrival, subscribed_cars, version FROM subscriptions`

const orderSubscriptions = ` ORDER BY date_depart, train_number, id`

// MySQLSubscriptions stores subscriptions in the subscriptions table; car lists are kept as JSON text.
type MySQLSubscriptions struct {
	db *sql.DB
}

// OpenMySQL opens a connection pool for the DSN and checks it with a ping.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// NewMySQLSubscriptions creates a store over db.
func NewMySQLSubscriptions(db *sql.DB) *MySQLSubscriptions {
	return &MySQLSubscriptions{db: db}
}

// Migrate creates the subscriptions table when it does not exist.
func (r *MySQLSubscriptions) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSubscriptionsTable); err != nil {
		return fmt.Errorf("create subscriptions table: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (models.Subscription, error) {
	var (
		sub  models.Subscription
		cars string
	)
	err := row.Scan(&sub.ID, &sub.ChatID, &sub.TrainNumber, &sub.TrainName, &sub.StationDepart, &sub.StationArrival,
		&sub.DateDepart, &sub.DateArrival, &sub.TimeDepart, &sub.TimeArrival, &cars, &sub.Version)
	if err != nil {
		return models.Subscription{}, err
	}
	if err = json.Unmarshal([]byte(cars), &sub.SubscribedCars); err != nil {
		return models.Subscription{}, fmt.Errorf("decode cars of subscription %s: %w", sub.ID, err)
	}
	return sub, nil
}

func (r *MySQLSubscriptions) query(ctx context.Context, where string, args ...any) ([]models.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, selectSubscriptions+where+orderSubscriptions, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	subscriptions := make([]models.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subscriptions = append(subscriptions, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subscriptions, nil
}

// FindAll returns every stored subscription.
func (r *MySQLSubscriptions) FindAll(ctx context.Context) ([]models.Subscription, error) {
	return r.query(ctx, "")
}

// FindByID returns the subscription with the id or ErrSubscriptionNotFound.
func (r *MySQLSubscriptions) FindByID(ctx context.Context, id string) (models.Subscription, error) {
	row := r.db.QueryRowContext(ctx, selectSubscriptions+" WHERE id = ?", id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscription{}, fmt.Errorf("find subscription %s: %w", id, ErrSubscriptionNotFound)
	}
	if err != nil {
		return models.Subscription{}, fmt.Errorf("find subscription %s: %w", id, err)
	}
	return sub, nil
}

// FindByChatID returns the subscriptions owned by the chat.
func (r *MySQLSubscriptions) FindByChatID(ctx context.Context, chatID int64) ([]models.Subscription, error) {
	return r.query(ctx, " WHERE chat_id = ?", chatID)
}

// FindByChatIDAndTrainAndDate returns the chat's subscriptions to the train on the date.
func (r *MySQLSubscriptions) FindByChatIDAndTrainAndDate(ctx context.Context, chatID int64, trainNumber, dateDepart string) ([]models.Subscription, error) {
	return r.query(ctx, " WHERE chat_id = ? AND train_number = ? AND date_depart = ?", chatID, trainNumber, dateDepart)
}

// Save inserts a subscription without an ID or updates the stored row when the versions match.
func (r *MySQLSubscriptions) Save(ctx context.Context, sub *models.Subscription) error {
	cars, err := json.Marshal(sub.SubscribedCars)
	if err != nil {
		return fmt.Errorf("encode subscribed cars: %w", err)
	}

	if sub.ID == "" {
		id := uuid.NewString()
		_, err = r.db.ExecContext(ctx, `INSERT INTO subscriptions (id, chat_id, train_number, train_name, station_depart,
	station_arrival, date_depart, date_arrival, time_depart, time_arrival, subscribed_cars, version)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
			id, sub.ChatID, sub.TrainNumber, sub.TrainName, sub.StationDepart, sub.StationArrival,
			sub.DateDepart, sub.DateArrival, sub.TimeDepart, sub.TimeArrival, string(cars))
		if err != nil {
			return fmt.Errorf("insert subscription: %w", err)
		}
		sub.ID, sub.Version = id, 1
		return nil
	}

	result, err := r.db.ExecContext(ctx, `UPDATE subscriptions SET train_name = ?, station_depart = ?, station_arrival = ?,
	date_arrival = ?, time_depart = ?, time_arrival = ?, subscribed_cars = ?, version = version + 1
	WHERE id = ? AND version = ?`,
		sub.TrainName, sub.StationDepart, sub.StationArrival, sub.DateArrival, sub.TimeDepart, sub.TimeArrival,
		string(cars), sub.ID, sub.Version)
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", sub.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", sub.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("update subscription %s (version %d): %w", sub.ID, sub.Version, ErrVersionConflict)
	}
	sub.Version++
	return nil
}

// DeleteByID removes the subscription. Deleting an unknown id returns ErrSubscriptionNotFound.
func (r *MySQLSubscriptions) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete subscription %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subscription %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete subscription %s: %w", id, ErrSubscriptionNotFound)
	}
	return nil
}
