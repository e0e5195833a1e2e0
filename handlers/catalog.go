package handlers

import (
	"context"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/yamdb/backend/authz"
	"github.com/yamdb/backend/middleware"
	"github.com/yamdb/backend/models"
	"github.com/yamdb/backend/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogStore covers categories and genres; both are slugged reference data
// supporting only list, create and delete.
type CatalogStore interface {
	ListCategories(ctx context.Context, search string, limit, offset int64) (int64, []models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) (primitive.ObjectID, error)
	DeleteCategory(ctx context.Context, slug string) error
	ListGenres(ctx context.Context, search string, limit, offset int64) (int64, []models.Genre, error)
	CreateGenre(ctx context.Context, g *models.Genre) (primitive.ObjectID, error)
	DeleteGenre(ctx context.Context, slug string) error
}

type CatalogHandler struct {
	Store CatalogStore
}

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

type SluggedRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50"`
}

func (h *CatalogHandler) decodeSlugged(w http.ResponseWriter, r *http.Request) (*SluggedRequest, bool) {
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.AdminOrReadOnly, true, requester, primitive.NilObjectID); err != nil {
		authzError(w, err)
		return nil, false
	}
	var req SluggedRequest
	if !decodeBody(w, r, &req) {
		return nil, false
	}
	if errs := validate.Map(req); errs != nil {
		fieldErrors(w, errs)
		return nil, false
	}
	if !slugPattern.MatchString(req.Slug) {
		fieldError(w, "slug", "may contain only letters, numbers, hyphens and underscores")
		return nil, false
	}
	return &req, true
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	total, categories, err := h.Store.ListCategories(r.Context(), r.URL.Query().Get("search"), p.Limit, p.Offset)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, paginated(r, p, total, categories))
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSlugged(w, r)
	if !ok {
		return
	}
	c := &models.Category{Name: req.Name, Slug: req.Slug}
	if _, err := h.Store.CreateCategory(r.Context(), c); err != nil {
		duplicateOr500(w, err, "slug", "failed to create category")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// DeleteCategory nulls the category reference on dependent titles; the
// titles themselves survive.
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.AdminOrReadOnly, true, requester, primitive.NilObjectID); err != nil {
		authzError(w, err)
		return
	}
	if err := h.Store.DeleteCategory(r.Context(), chi.URLParam(r, "slug")); err != nil {
		storeError(w, err, "category not found", "failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) ListGenres(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	total, genres, err := h.Store.ListGenres(r.Context(), r.URL.Query().Get("search"), p.Limit, p.Offset)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to list genres")
		return
	}
	writeJSON(w, http.StatusOK, paginated(r, p, total, genres))
}

func (h *CatalogHandler) CreateGenre(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSlugged(w, r)
	if !ok {
		return
	}
	g := &models.Genre{Name: req.Name, Slug: req.Slug}
	if _, err := h.Store.CreateGenre(r.Context(), g); err != nil {
		duplicateOr500(w, err, "slug", "failed to create genre")
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *CatalogHandler) DeleteGenre(w http.ResponseWriter, r *http.Request) {
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.AdminOrReadOnly, true, requester, primitive.NilObjectID); err != nil {
		authzError(w, err)
		return
	}
	if err := h.Store.DeleteGenre(r.Context(), chi.URLParam(r, "slug")); err != nil {
		storeError(w, err, "genre not found", "failed to delete genre")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
