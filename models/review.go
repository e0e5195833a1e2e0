package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinScore = 1
	MaxScore = 10
)

// Review holds one author's review of a title. The (title, author) pair is
// unique; the store's index is the final guard against concurrent duplicates.
// Author is the username snapshot used on the wire; AuthorID drives cascades.
type Review struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TitleID  primitive.ObjectID `bson:"titleId" json:"-"`
	AuthorID primitive.ObjectID `bson:"authorId" json:"-"`
	Author   string             `bson:"author" json:"author"`
	Text     string             `bson:"text" json:"text"`
	Score    int                `bson:"score" json:"score"`
	PubDate  time.Time          `bson:"pubDate" json:"pub_date"`
}

type Comment struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReviewID primitive.ObjectID `bson:"reviewId" json:"-"`
	AuthorID primitive.ObjectID `bson:"authorId" json:"-"`
	Author   string             `bson:"author" json:"author"`
	Text     string             `bson:"text" json:"text"`
	PubDate  time.Time          `bson:"pubDate" json:"pub_date"`
}
