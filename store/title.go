package store

import (
	"context"

	"github.com/yamdb/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TitleFilter is the set of list filters combined with AND semantics.
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         *int
}

// titleRow is the decoded shape of the aggregation pipeline output.
type titleRow struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Year        int                `bson:"year"`
	Description string             `bson:"description"`
	Rating      *float64           `bson:"rating"`
	Category    []models.Category  `bson:"category"`
	Genre       []models.Genre     `bson:"genre"`
}

func (r *titleRow) view() models.TitleView {
	v := models.TitleView{
		ID:          r.ID,
		Name:        r.Name,
		Year:        r.Year,
		Rating:      r.Rating,
		Description: r.Description,
		Genre:       r.Genre,
	}
	if v.Genre == nil {
		v.Genre = []models.Genre{}
	}
	if len(r.Category) > 0 {
		v.Category = &r.Category[0]
	}
	return v
}

// viewStages denormalizes category/genres and computes the rating, which is
// the mean of the title's review scores at query time. $avg over no reviews
// yields null, never zero.
func viewStages() []bson.M {
	return []bson.M{
		{"$lookup": bson.M{
			"from":         "reviews",
			"localField":   "_id",
			"foreignField": "titleId",
			"as":           "revs",
		}},
		{"$addFields": bson.M{"rating": bson.M{"$avg": "$revs.score"}}},
		{"$lookup": bson.M{
			"from":         "categories",
			"localField":   "categoryId",
			"foreignField": "_id",
			"as":           "category",
		}},
		{"$lookup": bson.M{
			"from":         "genres",
			"localField":   "genreIds",
			"foreignField": "_id",
			"as":           "genre",
		}},
		{"$project": bson.M{"revs": 0}},
	}
}

func (db *DB) titleMatch(ctx context.Context, f TitleFilter) (bson.M, bool, error) {
	match := bson.M{}
	if f.Name != "" {
		match["name"] = bson.M{"$regex": regexQuote(f.Name), "$options": "i"}
	}
	if f.Year != nil {
		match["year"] = *f.Year
	}
	if f.CategorySlug != "" {
		c, err := db.CategoryBySlug(ctx, f.CategorySlug)
		if err != nil {
			return nil, false, err
		}
		if c == nil {
			return nil, false, nil
		}
		match["categoryId"] = c.ID
	}
	if f.GenreSlug != "" {
		var g models.Genre
		err := db.Genres().FindOne(ctx, bson.M{"slug": f.GenreSlug}).Decode(&g)
		if err == mongo.ErrNoDocuments {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		match["genreIds"] = g.ID
	}
	return match, true, nil
}

func (db *DB) ListTitles(ctx context.Context, f TitleFilter, limit, offset int64) (int64, []models.TitleView, error) {
	match, ok, err := db.titleMatch(ctx, f)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		// Filter referenced an unknown slug; nothing can match.
		return 0, []models.TitleView{}, nil
	}
	total, err := db.Titles().CountDocuments(ctx, match)
	if err != nil {
		return 0, nil, err
	}
	pipeline := []bson.M{
		{"$match": match},
		{"$sort": bson.M{"_id": 1}},
		{"$skip": offset},
		{"$limit": limit},
	}
	pipeline = append(pipeline, viewStages()...)
	cur, err := db.Titles().Aggregate(ctx, pipeline)
	if err != nil {
		return 0, nil, err
	}
	defer cur.Close(ctx)
	var rows []titleRow
	if err := cur.All(ctx, &rows); err != nil {
		return 0, nil, err
	}
	views := make([]models.TitleView, 0, len(rows))
	for i := range rows {
		views = append(views, rows[i].view())
	}
	return total, views, nil
}

func (db *DB) TitleViewByID(ctx context.Context, id primitive.ObjectID) (*models.TitleView, error) {
	pipeline := append([]bson.M{{"$match": bson.M{"_id": id}}}, viewStages()...)
	cur, err := db.Titles().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []titleRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	v := rows[0].view()
	return &v, nil
}

func (db *DB) TitleByID(ctx context.Context, id primitive.ObjectID) (*models.Title, error) {
	var t models.Title
	err := db.Titles().FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (db *DB) CreateTitle(ctx context.Context, t *models.Title) (primitive.ObjectID, error) {
	res, err := db.Titles().InsertOne(ctx, t)
	if err != nil {
		return primitive.NilObjectID, mapWriteErr(err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) UpdateTitle(ctx context.Context, t *models.Title) error {
	set := bson.M{
		"name":        t.Name,
		"year":        t.Year,
		"description": t.Description,
		"genreIds":    t.GenreIDs,
	}
	update := bson.M{"$set": set}
	if t.CategoryID != nil {
		set["categoryId"] = *t.CategoryID
	} else {
		update["$unset"] = bson.M{"categoryId": ""}
	}
	res, err := db.Titles().UpdateOne(ctx, bson.M{"_id": t.ID}, update)
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTitle cascades to the title's reviews and, transitively, their
// comments.
func (db *DB) DeleteTitle(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Titles().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	cur, err := db.Reviews().Find(ctx, bson.M{"titleId": id})
	if err != nil {
		return err
	}
	var reviews []models.Review
	if err := cur.All(ctx, &reviews); err != nil {
		return err
	}
	if len(reviews) == 0 {
		return nil
	}
	reviewIDs := make([]primitive.ObjectID, 0, len(reviews))
	for _, rv := range reviews {
		reviewIDs = append(reviewIDs, rv.ID)
	}
	if _, err := db.Comments().DeleteMany(ctx, bson.M{"reviewId": bson.M{"$in": reviewIDs}}); err != nil {
		return err
	}
	_, err = db.Reviews().DeleteMany(ctx, bson.M{"titleId": id})
	return err
}
