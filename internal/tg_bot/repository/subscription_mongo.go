package repository

import (
	"context"
	"errors"
	"fmt"
	"github.com/DenisKhanov/TrainScheduleBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

const subscriptionsCollection = "subscriptions"

// MongoSubscriptions stores subscriptions as documents of the "subscriptions" collection.
type MongoSubscriptions struct {
	collection *mongo.Collection
}

// ConnectMongo connects to MongoDB and checks the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// NewMongoSubscriptions creates a store over the subscriptions collection of db.
func NewMongoSubscriptions(db *mongo.Database) *MongoSubscriptions {
	return &MongoSubscriptions{collection: db.Collection(subscriptionsCollection)}
}

// EnsureIndexes creates the lookup indexes used by the store queries.
func (r *MongoSubscriptions) EnsureIndexes(ctx context.Context) error {
	chatIndex := mongo.IndexModel{
		Keys: bson.M{"chatId": 1},
	}
	trainDateIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "chatId", Value: 1},
			{Key: "trainNumber", Value: 1},
			{Key: "dateDepart", Value: 1},
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{chatIndex, trainDateIndex}); err != nil {
		return fmt.Errorf("create subscription indexes: %w", err)
	}
	return nil
}

func (r *MongoSubscriptions) find(ctx context.Context, filter bson.M) ([]models.Subscription, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dateDepart", Value: 1}, {Key: "trainNumber", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	subscriptions := make([]models.Subscription, 0)
	if err = cursor.All(ctx, &subscriptions); err != nil {
		return nil, fmt.Errorf("decode subscriptions: %w", err)
	}
	return subscriptions, nil
}

// FindAll returns every stored subscription.
func (r *MongoSubscriptions) FindAll(ctx context.Context) ([]models.Subscription, error) {
	return r.find(ctx, bson.M{})
}

// FindByID returns the subscription with the id or ErrSubscriptionNotFound.
func (r *MongoSubscriptions) FindByID(ctx context.Context, id string) (models.Subscription, error) {
	var sub models.Subscription
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Subscription{}, fmt.Errorf("find subscription %s: %w", id, ErrSubscriptionNotFound)
	}
	if err != nil {
		return models.Subscription{}, fmt.Errorf("find subscription %s: %w", id, err)
	}
	return sub, nil
}

// FindByChatID returns the subscriptions owned by the chat.
func (r *MongoSubscriptions) FindByChatID(ctx context.Context, chatID int64) ([]models.Subscription, error) {
	return r.find(ctx, bson.M{"chatId": chatID})
}

// FindByChatIDAndTrainAndDate returns the chat's subscriptions to the train on the date.
func (r *MongoSubscriptions) FindByChatIDAndTrainAndDate(ctx context.Context, chatID int64, trainNumber, dateDepart string) ([]models.Subscription, error) {
	return r.find(ctx, bson.M{"chatId": chatID, "trainNumber": trainNumber, "dateDepart": dateDepart})
}

// Save inserts a subscription without an ID or replaces the stored document when the versions match.
func (r *MongoSubscriptions) Save(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		doc := *sub
		doc.ID = primitive.NewObjectID().Hex()
		doc.Version = 1
		if _, err := r.collection.InsertOne(ctx, doc); err != nil {
			return fmt.Errorf("insert subscription: %w", err)
		}
		sub.ID, sub.Version = doc.ID, doc.Version
		logrus.WithFields(logrus.Fields{"id": sub.ID, "chatID": sub.ChatID}).Debug("Subscription inserted")
		return nil
	}

	doc := *sub
	doc.Version++
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": sub.ID, "version": sub.Version}, doc)
	if err != nil {
		return fmt.Errorf("replace subscription %s: %w", sub.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("replace subscription %s (version %d): %w", sub.ID, sub.Version, ErrVersionConflict)
	}
	sub.Version = doc.Version
	return nil
}

// DeleteByID removes the subscription. Deleting an unknown id returns ErrSubscriptionNotFound.
func (r *MongoSubscriptions) DeleteByID(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete subscription %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("delete subscription %s: %w", id, ErrSubscriptionNotFound)
	}
	return nil
}
