package store

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sentinel errors mapped to HTTP status codes by the handlers.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	logrus.Info("connected to MongoDB")
	return &DB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection("users")
}

func (db *DB) Categories() *mongo.Collection {
	return db.Database.Collection("categories")
}

func (db *DB) Genres() *mongo.Collection {
	return db.Database.Collection("genres")
}

func (db *DB) Titles() *mongo.Collection {
	return db.Database.Collection("titles")
}

func (db *DB) Reviews() *mongo.Collection {
	return db.Database.Collection("reviews")
}

func (db *DB) Comments() *mongo.Collection {
	return db.Database.Collection("comments")
}

// EnsureIndexes creates the unique indexes the API relies on. The
// one-review-per-(title,author) rule in particular is enforced here; the
// handler's existence check is an early exit, this index is the authority
// under concurrent creations.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	_, err := db.Users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
	})
	if err != nil {
		return err
	}
	if _, err := db.Categories().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	if _, err := db.Genres().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	if _, err := db.Reviews().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "titleId", Value: 1}, {Key: "authorId", Value: 1}},
		Options: unique,
	}); err != nil {
		return err
	}
	_, err = db.Comments().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "reviewId", Value: 1}},
	})
	return err
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}

// mapWriteErr converts mongo errors to the store's sentinel errors.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
