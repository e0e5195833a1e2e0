package handlers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yamdb/backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func catalogRouter(fs *fakeStore, u *models.User) http.Handler {
	h := &CatalogHandler{Store: fs}
	r := chi.NewRouter()
	r.Use(asUser(u))
	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)
	r.Delete("/categories/{slug}", h.DeleteCategory)
	r.Get("/genres", h.ListGenres)
	r.Post("/genres", h.CreateGenre)
	r.Delete("/genres/{slug}", h.DeleteGenre)
	return r
}

func TestCreateCategory(t *testing.T) {
	fs := newFakeStore()
	r := catalogRouter(fs, adminUser())

	rec := serve(r, http.MethodPost, "/categories", `{"name":"Movies","slug":"movies"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"name":"Movies","slug":"movies"}`, rec.Body.String())

	rec = serve(r, http.MethodPost, "/categories", `{"name":"Films","slug":"movies"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already in use")

	rec = serve(r, http.MethodPost, "/categories", `{"name":"Bad","slug":"no spaces"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var fields map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Contains(t, fields, "slug")
}

func TestCatalogAccessControl(t *testing.T) {
	fs := newFakeStore()
	body := `{"name":"Movies","slug":"movies"}`

	rec := serve(catalogRouter(fs, nil), http.MethodPost, "/categories", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(catalogRouter(fs, plainUser("bob")), http.MethodPost, "/genres", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Reads stay public.
	rec = serve(catalogRouter(fs, nil), http.MethodGet, "/categories", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(catalogRouter(fs, nil), http.MethodGet, "/genres", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteCategoryKeepsTitles(t *testing.T) {
	fs := newFakeStore()
	seedCatalog(fs)
	title := seedTitle(fs, "Orphaned")
	r := catalogRouter(fs, adminUser())

	rec := serve(r, http.MethodDelete, "/categories/movies", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, fs.categories)
	require.Len(t, fs.titles, 1)
	assert.Nil(t, title.CategoryID)

	rec = serve(r, http.MethodDelete, "/categories/movies", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteGenre(t *testing.T) {
	fs := newFakeStore()
	fs.genres = []*models.Genre{
		{ID: primitive.NewObjectID(), Name: "Drama", Slug: "drama"},
	}
	r := catalogRouter(fs, adminUser())

	rec := serve(r, http.MethodDelete, "/genres/drama", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, fs.genres)

	rec = serve(r, http.MethodDelete, "/genres/drama", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
