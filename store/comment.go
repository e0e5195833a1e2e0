package store

import (
	"context"

	"github.com/yamdb/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) ListComments(ctx context.Context, reviewID primitive.ObjectID, limit, offset int64) (int64, []models.Comment, error) {
	filter := bson.M{"reviewId": reviewID}
	total, err := db.Comments().CountDocuments(ctx, filter)
	if err != nil {
		return 0, nil, err
	}
	cur, err := db.Comments().Find(ctx, filter, options.Find().
		SetSort(bson.M{"pubDate": 1}).SetSkip(offset).SetLimit(limit))
	if err != nil {
		return 0, nil, err
	}
	defer cur.Close(ctx)
	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return 0, nil, err
	}
	return total, comments, nil
}

func (db *DB) CommentByID(ctx context.Context, reviewID, commentID primitive.ObjectID) (*models.Comment, error) {
	var c models.Comment
	err := db.Comments().FindOne(ctx, bson.M{"_id": commentID, "reviewId": reviewID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) CreateComment(ctx context.Context, c *models.Comment) (primitive.ObjectID, error) {
	res, err := db.Comments().InsertOne(ctx, c)
	if err != nil {
		return primitive.NilObjectID, mapWriteErr(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) UpdateComment(ctx context.Context, c *models.Comment) error {
	res, err := db.Comments().UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{
		"text": c.Text,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Comments().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
