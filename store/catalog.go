package store

import (
	"context"
	"fmt"

	"github.com/yamdb/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Categories and genres are plain slugged reference data; both support only
// list, create and delete-by-slug.

func nameSearchFilter(search string) bson.M {
	filter := bson.M{}
	if search != "" {
		filter["name"] = bson.M{"$regex": regexQuote(search), "$options": "i"}
	}
	return filter
}

func (db *DB) ListCategories(ctx context.Context, search string, limit, offset int64) (int64, []models.Category, error) {
	filter := nameSearchFilter(search)
	total, err := db.Categories().CountDocuments(ctx, filter)
	if err != nil {
		return 0, nil, err
	}
	cur, err := db.Categories().Find(ctx, filter, options.Find().
		SetSort(bson.M{"slug": 1}).SetSkip(offset).SetLimit(limit))
	if err != nil {
		return 0, nil, err
	}
	defer cur.Close(ctx)
	var categories []models.Category
	if err := cur.All(ctx, &categories); err != nil {
		return 0, nil, err
	}
	return total, categories, nil
}

func (db *DB) ListGenres(ctx context.Context, search string, limit, offset int64) (int64, []models.Genre, error) {
	filter := nameSearchFilter(search)
	total, err := db.Genres().CountDocuments(ctx, filter)
	if err != nil {
		return 0, nil, err
	}
	cur, err := db.Genres().Find(ctx, filter, options.Find().
		SetSort(bson.M{"slug": 1}).SetSkip(offset).SetLimit(limit))
	if err != nil {
		return 0, nil, err
	}
	defer cur.Close(ctx)
	var genres []models.Genre
	if err := cur.All(ctx, &genres); err != nil {
		return 0, nil, err
	}
	return total, genres, nil
}

func (db *DB) CreateCategory(ctx context.Context, c *models.Category) (primitive.ObjectID, error) {
	res, err := db.Categories().InsertOne(ctx, c)
	if err != nil {
		return primitive.NilObjectID, mapWriteErr(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) CreateGenre(ctx context.Context, g *models.Genre) (primitive.ObjectID, error) {
	res, err := db.Genres().InsertOne(ctx, g)
	if err != nil {
		return primitive.NilObjectID, mapWriteErr(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	err := db.Categories().FindOne(ctx, bson.M{"slug": slug}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GenresBySlugs resolves slugs to genre records, erroring on any unknown slug.
func (db *DB) GenresBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error) {
	cur, err := db.Genres().Find(ctx, bson.M{"slug": bson.M{"$in": slugs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var genres []models.Genre
	if err := cur.All(ctx, &genres); err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(genres))
	for _, g := range genres {
		found[g.Slug] = true
	}
	for _, s := range slugs {
		if !found[s] {
			return nil, fmt.Errorf("%w: genre %q", ErrNotFound, s)
		}
	}
	return genres, nil
}

// DeleteCategory removes the category and nulls the back-reference on
// dependent titles; it never deletes the titles themselves.
func (db *DB) DeleteCategory(ctx context.Context, slug string) error {
	var c models.Category
	err := db.Categories().FindOneAndDelete(ctx, bson.M{"slug": slug}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	_, err = db.Titles().UpdateMany(ctx,
		bson.M{"categoryId": c.ID},
		bson.M{"$unset": bson.M{"categoryId": ""}})
	return err
}

// DeleteGenre removes the genre and its associations; titles keep their
// remaining genres.
func (db *DB) DeleteGenre(ctx context.Context, slug string) error {
	var g models.Genre
	err := db.Genres().FindOneAndDelete(ctx, bson.M{"slug": slug}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	_, err = db.Titles().UpdateMany(ctx,
		bson.M{"genreIds": g.ID},
		bson.M{"$pull": bson.M{"genreIds": g.ID}})
	return err
}
