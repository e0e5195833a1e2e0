package store

import (
	"context"

	"github.com/yamdb/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) ListReviews(ctx context.Context, titleID primitive.ObjectID, limit, offset int64) (int64, []models.Review, error) {
	filter := bson.M{"titleId": titleID}
	total, err := db.Reviews().CountDocuments(ctx, filter)
	if err != nil {
		return 0, nil, err
	}
	cur, err := db.Reviews().Find(ctx, filter, options.Find().
		SetSort(bson.M{"pubDate": 1}).SetSkip(offset).SetLimit(limit))
	if err != nil {
		return 0, nil, err
	}
	defer cur.Close(ctx)
	var reviews []models.Review
	if err := cur.All(ctx, &reviews); err != nil {
		return 0, nil, err
	}
	return total, reviews, nil
}

// ReviewByID is scoped to a title: a review id under the wrong title is a
// not-found, not a leak of another title's review.
func (db *DB) ReviewByID(ctx context.Context, titleID, reviewID primitive.ObjectID) (*models.Review, error) {
	var rv models.Review
	err := db.Reviews().FindOne(ctx, bson.M{"_id": reviewID, "titleId": titleID}).Decode(&rv)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// HasReviewByAuthor is the early-exit duplicate check; the unique index on
// (titleId, authorId) remains the final guard.
func (db *DB) HasReviewByAuthor(ctx context.Context, titleID, authorID primitive.ObjectID) (bool, error) {
	n, err := db.Reviews().CountDocuments(ctx, bson.M{"titleId": titleID, "authorId": authorID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (db *DB) CreateReview(ctx context.Context, rv *models.Review) (primitive.ObjectID, error) {
	res, err := db.Reviews().InsertOne(ctx, rv)
	if err != nil {
		return primitive.NilObjectID, mapWriteErr(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) UpdateReview(ctx context.Context, rv *models.Review) error {
	res, err := db.Reviews().UpdateOne(ctx, bson.M{"_id": rv.ID}, bson.M{"$set": bson.M{
		"text":  rv.Text,
		"score": rv.Score,
	}})
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReview cascades to the review's comments.
func (db *DB) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Reviews().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, err = db.Comments().DeleteMany(ctx, bson.M{"reviewId": id})
	return err
}
