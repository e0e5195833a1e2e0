// Package importer performs the one-shot bulk load of the fixed-schema CSV
// fixture set (users, categories, genres, titles, title-genre links, reviews,
// comments) into the store. It runs out-of-band of the HTTP surface.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yamdb/backend/models"
	"github.com/yamdb/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Source yields the raw bytes of a named fixture file.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

type Importer struct {
	DB     *store.DB
	Source Source
}

// rows reads a CSV file into header-keyed records.
func (imp *Importer) rows(ctx context.Context, name string) ([]map[string]string, error) {
	rc, err := imp.Source.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	reader := csv.NewReader(rc)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", name, err)
	}
	var out []map[string]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// Run loads all fixture files in dependency order. CSV numeric ids are mapped
// to ObjectIDs for the duration of the run so cross-references resolve.
func (imp *Importer) Run(ctx context.Context) error {
	runID := uuid.New().String()
	log := logrus.WithField("run", runID)
	log.Info("bulk import started")

	users, err := imp.loadUsers(ctx, log)
	if err != nil {
		return err
	}
	categories, err := imp.loadCategories(ctx, log)
	if err != nil {
		return err
	}
	genres, err := imp.loadGenres(ctx, log)
	if err != nil {
		return err
	}
	titleGenres, err := imp.loadTitleGenres(ctx, genres, log)
	if err != nil {
		return err
	}
	titles, err := imp.loadTitles(ctx, categories, titleGenres, log)
	if err != nil {
		return err
	}
	reviews, err := imp.loadReviews(ctx, titles, users, log)
	if err != nil {
		return err
	}
	if err := imp.loadComments(ctx, reviews, users, log); err != nil {
		return err
	}
	log.Info("bulk import finished")
	return nil
}

func (imp *Importer) loadUsers(ctx context.Context, log *logrus.Entry) (map[string]*models.User, error) {
	rows, err := imp.rows(ctx, "users.csv")
	if err != nil {
		return nil, err
	}
	users := make(map[string]*models.User, len(rows))
	for _, row := range rows {
		role := row["role"]
		if role == "" {
			role = models.RoleUser
		}
		u := &models.User{
			Username:  row["username"],
			Email:     row["email"],
			Role:      role,
			Bio:       row["bio"],
			FirstName: row["first_name"],
			LastName:  row["last_name"],
		}
		id, err := imp.DB.CreateUser(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("users.csv row %s: %w", row["id"], err)
		}
		u.ID = id
		users[row["id"]] = u
	}
	log.WithField("rows", len(rows)).Info("loaded users.csv")
	return users, nil
}

func (imp *Importer) loadCategories(ctx context.Context, log *logrus.Entry) (map[string]primitive.ObjectID, error) {
	rows, err := imp.rows(ctx, "category.csv")
	if err != nil {
		return nil, err
	}
	ids := make(map[string]primitive.ObjectID, len(rows))
	for _, row := range rows {
		id, err := imp.DB.CreateCategory(ctx, &models.Category{Name: row["name"], Slug: row["slug"]})
		if err != nil {
			return nil, fmt.Errorf("category.csv row %s: %w", row["id"], err)
		}
		ids[row["id"]] = id
	}
	log.WithField("rows", len(rows)).Info("loaded category.csv")
	return ids, nil
}

func (imp *Importer) loadGenres(ctx context.Context, log *logrus.Entry) (map[string]primitive.ObjectID, error) {
	rows, err := imp.rows(ctx, "genre.csv")
	if err != nil {
		return nil, err
	}
	ids := make(map[string]primitive.ObjectID, len(rows))
	for _, row := range rows {
		id, err := imp.DB.CreateGenre(ctx, &models.Genre{Name: row["name"], Slug: row["slug"]})
		if err != nil {
			return nil, fmt.Errorf("genre.csv row %s: %w", row["id"], err)
		}
		ids[row["id"]] = id
	}
	log.WithField("rows", len(rows)).Info("loaded genre.csv")
	return ids, nil
}

// loadTitleGenres collects the association records per title so titles can be
// inserted with their genres in place.
func (imp *Importer) loadTitleGenres(ctx context.Context, genres map[string]primitive.ObjectID, log *logrus.Entry) (map[string][]primitive.ObjectID, error) {
	rows, err := imp.rows(ctx, "genre_title.csv")
	if err != nil {
		return nil, err
	}
	links := make(map[string][]primitive.ObjectID)
	for _, row := range rows {
		gid, ok := genres[row["genre_id"]]
		if !ok {
			return nil, fmt.Errorf("genre_title.csv row %s: unknown genre %s", row["id"], row["genre_id"])
		}
		links[row["title_id"]] = append(links[row["title_id"]], gid)
	}
	log.WithField("rows", len(rows)).Info("loaded genre_title.csv")
	return links, nil
}

func (imp *Importer) loadTitles(ctx context.Context, categories map[string]primitive.ObjectID, links map[string][]primitive.ObjectID, log *logrus.Entry) (map[string]primitive.ObjectID, error) {
	rows, err := imp.rows(ctx, "titles.csv")
	if err != nil {
		return nil, err
	}
	ids := make(map[string]primitive.ObjectID, len(rows))
	for _, row := range rows {
		year, err := strconv.Atoi(row["year"])
		if err != nil {
			return nil, fmt.Errorf("titles.csv row %s: bad year %q", row["id"], row["year"])
		}
		t := &models.Title{
			Name:     row["name"],
			Year:     year,
			GenreIDs: links[row["id"]],
		}
		if t.GenreIDs == nil {
			t.GenreIDs = []primitive.ObjectID{}
		}
		if cid, ok := categories[row["category"]]; ok {
			t.CategoryID = &cid
		}
		id, err := imp.DB.CreateTitle(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("titles.csv row %s: %w", row["id"], err)
		}
		ids[row["id"]] = id
	}
	log.WithField("rows", len(rows)).Info("loaded titles.csv")
	return ids, nil
}

func parsePubDate(raw string) time.Time {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	return time.Now().UTC()
}

func (imp *Importer) loadReviews(ctx context.Context, titles map[string]primitive.ObjectID, users map[string]*models.User, log *logrus.Entry) (map[string]primitive.ObjectID, error) {
	rows, err := imp.rows(ctx, "review.csv")
	if err != nil {
		return nil, err
	}
	ids := make(map[string]primitive.ObjectID, len(rows))
	for _, row := range rows {
		tid, ok := titles[row["title_id"]]
		if !ok {
			return nil, fmt.Errorf("review.csv row %s: unknown title %s", row["id"], row["title_id"])
		}
		author, ok := users[row["author"]]
		if !ok {
			return nil, fmt.Errorf("review.csv row %s: unknown author %s", row["id"], row["author"])
		}
		score, err := strconv.Atoi(row["score"])
		if err != nil {
			return nil, fmt.Errorf("review.csv row %s: bad score %q", row["id"], row["score"])
		}
		rv := &models.Review{
			TitleID:  tid,
			AuthorID: author.ID,
			Author:   author.Username,
			Text:     row["text"],
			Score:    score,
			PubDate:  parsePubDate(row["pub_date"]),
		}
		id, err := imp.DB.CreateReview(ctx, rv)
		if err != nil {
			return nil, fmt.Errorf("review.csv row %s: %w", row["id"], err)
		}
		ids[row["id"]] = id
	}
	log.WithField("rows", len(rows)).Info("loaded review.csv")
	return ids, nil
}

func (imp *Importer) loadComments(ctx context.Context, reviews map[string]primitive.ObjectID, users map[string]*models.User, log *logrus.Entry) error {
	rows, err := imp.rows(ctx, "comments.csv")
	if err != nil {
		return err
	}
	for _, row := range rows {
		rid, ok := reviews[row["review_id"]]
		if !ok {
			return fmt.Errorf("comments.csv row %s: unknown review %s", row["id"], row["review_id"])
		}
		author, ok := users[row["author"]]
		if !ok {
			return fmt.Errorf("comments.csv row %s: unknown author %s", row["id"], row["author"])
		}
		c := &models.Comment{
			ReviewID: rid,
			AuthorID: author.ID,
			Author:   author.Username,
			Text:     row["text"],
			PubDate:  parsePubDate(row["pub_date"]),
		}
		if _, err := imp.DB.CreateComment(ctx, c); err != nil {
			return fmt.Errorf("comments.csv row %s: %w", row["id"], err)
		}
	}
	log.WithField("rows", len(rows)).Info("loaded comments.csv")
	return nil
}
