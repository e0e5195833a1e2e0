package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yamdb/backend/middleware"
	"github.com/yamdb/backend/models"
	"github.com/yamdb/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore is an in-memory stand-in for *store.DB, implementing the handler
// store interfaces. It mirrors the store's contract: sentinel errors,
// scoped lookups, query-time rating.
type fakeStore struct {
	users      []*models.User
	categories []*models.Category
	genres     []*models.Genre
	titles     []*models.Title
	reviews    []*models.Review
	comments   []*models.Comment
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) UserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UserByUsernameEmail(_ context.Context, username, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username && u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateUser(_ context.Context, user *models.User) (primitive.ObjectID, error) {
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return primitive.NilObjectID, store.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	f.users = append(f.users, user)
	return user.ID, nil
}

func (f *fakeStore) SaveUser(_ context.Context, user *models.User) error {
	for i, u := range f.users {
		if u.ID == user.ID {
			f.users[i] = user
			for _, rv := range f.reviews {
				if rv.AuthorID == user.ID {
					rv.Author = user.Username
				}
			}
			for _, c := range f.comments {
				if c.AuthorID == user.ID {
					c.Author = user.Username
				}
			}
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) SetConfirmationCode(_ context.Context, id primitive.ObjectID, code *int) error {
	for _, u := range f.users {
		if u.ID == id {
			u.ConfirmationCode = code
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ListUsers(_ context.Context, search string, limit, offset int64) (int64, []models.User, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return int64(len(out)), out, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, username string) error {
	for i, u := range f.users {
		if u.Username == username {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ListCategories(_ context.Context, search string, limit, offset int64) (int64, []models.Category, error) {
	out := make([]models.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, *c)
	}
	return int64(len(out)), out, nil
}

func (f *fakeStore) CreateCategory(_ context.Context, c *models.Category) (primitive.ObjectID, error) {
	for _, existing := range f.categories {
		if existing.Slug == c.Slug {
			return primitive.NilObjectID, store.ErrDuplicate
		}
	}
	c.ID = primitive.NewObjectID()
	f.categories = append(f.categories, c)
	return c.ID, nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, slug string) error {
	for i, c := range f.categories {
		if c.Slug == slug {
			for _, t := range f.titles {
				if t.CategoryID != nil && *t.CategoryID == c.ID {
					t.CategoryID = nil
				}
			}
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ListGenres(_ context.Context, search string, limit, offset int64) (int64, []models.Genre, error) {
	out := make([]models.Genre, 0, len(f.genres))
	for _, g := range f.genres {
		out = append(out, *g)
	}
	return int64(len(out)), out, nil
}

func (f *fakeStore) CreateGenre(_ context.Context, g *models.Genre) (primitive.ObjectID, error) {
	for _, existing := range f.genres {
		if existing.Slug == g.Slug {
			return primitive.NilObjectID, store.ErrDuplicate
		}
	}
	g.ID = primitive.NewObjectID()
	f.genres = append(f.genres, g)
	return g.ID, nil
}

func (f *fakeStore) DeleteGenre(_ context.Context, slug string) error {
	for i, g := range f.genres {
		if g.Slug == slug {
			f.genres = append(f.genres[:i], f.genres[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) CategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	for _, c := range f.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GenresBySlugs(_ context.Context, slugs []string) ([]models.Genre, error) {
	var out []models.Genre
	for _, s := range slugs {
		found := false
		for _, g := range f.genres {
			if g.Slug == s {
				out = append(out, *g)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: genre %q", store.ErrNotFound, s)
		}
	}
	return out, nil
}

func (f *fakeStore) view(t *models.Title) *models.TitleView {
	v := &models.TitleView{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Description: t.Description,
		Genre:       []models.Genre{},
	}
	for _, gid := range t.GenreIDs {
		for _, g := range f.genres {
			if g.ID == gid {
				v.Genre = append(v.Genre, *g)
			}
		}
	}
	if t.CategoryID != nil {
		for _, c := range f.categories {
			if c.ID == *t.CategoryID {
				cc := *c
				v.Category = &cc
			}
		}
	}
	var sum, n int
	for _, rv := range f.reviews {
		if rv.TitleID == t.ID {
			sum += rv.Score
			n++
		}
	}
	if n > 0 {
		mean := float64(sum) / float64(n)
		v.Rating = &mean
	}
	return v
}

func (f *fakeStore) ListTitles(_ context.Context, filter store.TitleFilter, limit, offset int64) (int64, []models.TitleView, error) {
	views := make([]models.TitleView, 0, len(f.titles))
	for _, t := range f.titles {
		views = append(views, *f.view(t))
	}
	return int64(len(views)), views, nil
}

func (f *fakeStore) TitleViewByID(_ context.Context, id primitive.ObjectID) (*models.TitleView, error) {
	for _, t := range f.titles {
		if t.ID == id {
			return f.view(t), nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) TitleByID(_ context.Context, id primitive.ObjectID) (*models.Title, error) {
	for _, t := range f.titles {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CreateTitle(_ context.Context, t *models.Title) (primitive.ObjectID, error) {
	t.ID = primitive.NewObjectID()
	f.titles = append(f.titles, t)
	return t.ID, nil
}

func (f *fakeStore) UpdateTitle(_ context.Context, t *models.Title) error {
	for i, existing := range f.titles {
		if existing.ID == t.ID {
			f.titles[i] = t
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteTitle(_ context.Context, id primitive.ObjectID) error {
	for i, t := range f.titles {
		if t.ID == id {
			f.titles = append(f.titles[:i], f.titles[i+1:]...)
			var kept []*models.Review
			for _, rv := range f.reviews {
				if rv.TitleID != id {
					kept = append(kept, rv)
				} else {
					var keptComments []*models.Comment
					for _, c := range f.comments {
						if c.ReviewID != rv.ID {
							keptComments = append(keptComments, c)
						}
					}
					f.comments = keptComments
				}
			}
			f.reviews = kept
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ListReviews(_ context.Context, titleID primitive.ObjectID, limit, offset int64) (int64, []models.Review, error) {
	var out []models.Review
	for _, rv := range f.reviews {
		if rv.TitleID == titleID {
			out = append(out, *rv)
		}
	}
	return int64(len(out)), out, nil
}

func (f *fakeStore) ReviewByID(_ context.Context, titleID, reviewID primitive.ObjectID) (*models.Review, error) {
	for _, rv := range f.reviews {
		if rv.ID == reviewID && rv.TitleID == titleID {
			return rv, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) HasReviewByAuthor(_ context.Context, titleID, authorID primitive.ObjectID) (bool, error) {
	for _, rv := range f.reviews {
		if rv.TitleID == titleID && rv.AuthorID == authorID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateReview(_ context.Context, rv *models.Review) (primitive.ObjectID, error) {
	for _, existing := range f.reviews {
		if existing.TitleID == rv.TitleID && existing.AuthorID == rv.AuthorID {
			return primitive.NilObjectID, store.ErrDuplicate
		}
	}
	rv.ID = primitive.NewObjectID()
	f.reviews = append(f.reviews, rv)
	return rv.ID, nil
}

func (f *fakeStore) UpdateReview(_ context.Context, rv *models.Review) error {
	for i, existing := range f.reviews {
		if existing.ID == rv.ID {
			f.reviews[i] = rv
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteReview(_ context.Context, id primitive.ObjectID) error {
	for i, rv := range f.reviews {
		if rv.ID == id {
			f.reviews = append(f.reviews[:i], f.reviews[i+1:]...)
			var kept []*models.Comment
			for _, c := range f.comments {
				if c.ReviewID != id {
					kept = append(kept, c)
				}
			}
			f.comments = kept
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ListComments(_ context.Context, reviewID primitive.ObjectID, limit, offset int64) (int64, []models.Comment, error) {
	var out []models.Comment
	for _, c := range f.comments {
		if c.ReviewID == reviewID {
			out = append(out, *c)
		}
	}
	return int64(len(out)), out, nil
}

func (f *fakeStore) CommentByID(_ context.Context, reviewID, commentID primitive.ObjectID) (*models.Comment, error) {
	for _, c := range f.comments {
		if c.ID == commentID && c.ReviewID == reviewID {
			return c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CreateComment(_ context.Context, c *models.Comment) (primitive.ObjectID, error) {
	c.ID = primitive.NewObjectID()
	f.comments = append(f.comments, c)
	return c.ID, nil
}

func (f *fakeStore) UpdateComment(_ context.Context, c *models.Comment) error {
	for i, existing := range f.comments {
		if existing.ID == c.ID {
			f.comments[i] = c
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteComment(_ context.Context, id primitive.ObjectID) error {
	for i, c := range f.comments {
		if c.ID == id {
			f.comments = append(f.comments[:i], f.comments[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// asUser attaches a fixed identity to every request, standing in for the
// token middleware. nil leaves requests anonymous.
func asUser(u *models.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u != nil {
				r = r.WithContext(middleware.WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}
