package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Name string             `bson:"name" json:"name"`
	Slug string             `bson:"slug" json:"slug"`
}

type Genre struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Name string             `bson:"name" json:"name"`
	Slug string             `bson:"slug" json:"slug"`
}

// Title is the stored form: category and genres are held as references and
// denormalized on read (see store.TitleView).
type Title struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Name        string               `bson:"name"`
	Year        int                  `bson:"year"`
	Description string               `bson:"description"`
	CategoryID  *primitive.ObjectID  `bson:"categoryId,omitempty"`
	GenreIDs    []primitive.ObjectID `bson:"genreIds"`
}

// TitleView is the read representation: denormalized category/genre objects
// plus the rating computed from reviews at query time. Rating is nil when the
// title has no reviews, never zero.
type TitleView struct {
	ID          primitive.ObjectID `json:"id"`
	Name        string             `json:"name"`
	Year        int                `json:"year"`
	Rating      *float64           `json:"rating"`
	Description string             `json:"description"`
	Genre       []Genre            `json:"genre"`
	Category    *Category          `json:"category"`
}
