package store

import (
	"context"

	"github.com/yamdb/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByUsernameEmail matches both fields exactly; the sign-up flow uses it
// to distinguish a re-signup from a conflicting registration.
func (db *DB) UserByUsernameEmail(ctx context.Context, username, email string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"username": username, "email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	res, err := db.Users().InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, mapWriteErr(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// SaveUser persists the mutable profile fields of an existing user. A
// username change is propagated to the author snapshots on the user's
// reviews and comments, so responses always show the current name.
func (db *DB) SaveUser(ctx context.Context, user *models.User) error {
	res, err := db.Users().UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"username":  user.Username,
		"email":     user.Email,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"bio":       user.Bio,
		"role":      user.Role,
	}})
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	snapshot := bson.M{"$set": bson.M{"author": user.Username}}
	if _, err := db.Reviews().UpdateMany(ctx, bson.M{"authorId": user.ID}, snapshot); err != nil {
		return err
	}
	_, err = db.Comments().UpdateMany(ctx, bson.M{"authorId": user.ID}, snapshot)
	return err
}

// SetConfirmationCode overwrites the single active code; nil clears it.
func (db *DB) SetConfirmationCode(ctx context.Context, id primitive.ObjectID, code *int) error {
	update := bson.M{"$set": bson.M{"confirmationCode": code}}
	if code == nil {
		update = bson.M{"$unset": bson.M{"confirmationCode": ""}}
	}
	res, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListUsers(ctx context.Context, search string, limit, offset int64) (int64, []models.User, error) {
	filter := bson.M{}
	if search != "" {
		filter["username"] = bson.M{"$regex": regexQuote(search), "$options": "i"}
	}
	total, err := db.Users().CountDocuments(ctx, filter)
	if err != nil {
		return 0, nil, err
	}
	cur, err := db.Users().Find(ctx, filter, options.Find().
		SetSort(bson.M{"username": 1}).SetSkip(offset).SetLimit(limit))
	if err != nil {
		return 0, nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return 0, nil, err
	}
	return total, users, nil
}

// DeleteUser removes the user and cascades to their reviews (with those
// reviews' comments) and their own comments.
func (db *DB) DeleteUser(ctx context.Context, username string) error {
	user, err := db.UserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	cur, err := db.Reviews().Find(ctx, bson.M{"authorId": user.ID})
	if err != nil {
		return err
	}
	var reviews []models.Review
	if err := cur.All(ctx, &reviews); err != nil {
		return err
	}
	reviewIDs := make([]primitive.ObjectID, 0, len(reviews))
	for _, rv := range reviews {
		reviewIDs = append(reviewIDs, rv.ID)
	}
	if len(reviewIDs) > 0 {
		if _, err := db.Comments().DeleteMany(ctx, bson.M{"reviewId": bson.M{"$in": reviewIDs}}); err != nil {
			return err
		}
		if _, err := db.Reviews().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": reviewIDs}}); err != nil {
			return err
		}
	}
	if _, err := db.Comments().DeleteMany(ctx, bson.M{"authorId": user.ID}); err != nil {
		return err
	}
	_, err = db.Users().DeleteOne(ctx, bson.M{"_id": user.ID})
	return err
}
