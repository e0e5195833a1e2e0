package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yamdb/backend/authz"
	"github.com/yamdb/backend/middleware"
	"github.com/yamdb/backend/models"
	"github.com/yamdb/backend/store"
	"github.com/yamdb/backend/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TitlesStore interface {
	ListTitles(ctx context.Context, f store.TitleFilter, limit, offset int64) (int64, []models.TitleView, error)
	TitleViewByID(ctx context.Context, id primitive.ObjectID) (*models.TitleView, error)
	TitleByID(ctx context.Context, id primitive.ObjectID) (*models.Title, error)
	CreateTitle(ctx context.Context, t *models.Title) (primitive.ObjectID, error)
	UpdateTitle(ctx context.Context, t *models.Title) error
	DeleteTitle(ctx context.Context, id primitive.ObjectID) error
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	GenresBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error)
}

type TitlesHandler struct {
	Store TitlesStore
}

// CreateTitleRequest is the write shape: category and genre arrive as slug
// references. The response is always the denormalized read shape.
type CreateTitleRequest struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        *int     `json:"year" validate:"required"`
	Description string   `json:"description"`
	Genre       []string `json:"genre" validate:"required,min=1"`
	Category    string   `json:"category" validate:"required"`
}

type UpdateTitleRequest struct {
	Name        *string   `json:"name"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Genre       *[]string `json:"genre"`
	Category    *string   `json:"category"`
}

// pathID reads an ObjectID path parameter; a malformed id is a not-found,
// same as an unknown one.
func pathID(w http.ResponseWriter, r *http.Request, param, notFoundMsg string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, param))
	if err != nil {
		errorJSON(w, http.StatusNotFound, notFoundMsg)
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseTitleFilter(r *http.Request) store.TitleFilter {
	q := r.URL.Query()
	f := store.TitleFilter{
		CategorySlug: q.Get("category"),
		GenreSlug:    q.Get("genre"),
		Name:         q.Get("name"),
	}
	if v := q.Get("year"); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			f.Year = &y
		}
	}
	return f
}

func (h *TitlesHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	total, titles, err := h.Store.ListTitles(r.Context(), parseTitleFilter(r), p.Limit, p.Offset)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to list titles")
		return
	}
	writeJSON(w, http.StatusOK, paginated(r, p, total, titles))
}

func (h *TitlesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "title_id", "title not found")
	if !ok {
		return
	}
	view, err := h.Store.TitleViewByID(r.Context(), id)
	if err != nil {
		storeError(w, err, "title not found", "failed to load title")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// resolveRefs turns category/genre slugs into stored references. An unknown
// slug is a validation error on the write shape, not a path not-found.
func (h *TitlesHandler) resolveRefs(w http.ResponseWriter, r *http.Request, t *models.Title, categorySlug string, genreSlugs []string) bool {
	if categorySlug != "" {
		c, err := h.Store.CategoryBySlug(r.Context(), categorySlug)
		if err != nil {
			errorJSON(w, http.StatusInternalServerError, "failed to resolve category")
			return false
		}
		if c == nil {
			fieldError(w, "category", "category with slug \""+categorySlug+"\" does not exist")
			return false
		}
		t.CategoryID = &c.ID
	}
	if genreSlugs != nil {
		genres, err := h.Store.GenresBySlugs(r.Context(), genreSlugs)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fieldError(w, "genre", err.Error())
				return false
			}
			errorJSON(w, http.StatusInternalServerError, "failed to resolve genres")
			return false
		}
		ids := make([]primitive.ObjectID, 0, len(genres))
		for _, g := range genres {
			ids = append(ids, g.ID)
		}
		t.GenreIDs = ids
	}
	return true
}

func yearValid(w http.ResponseWriter, year int) bool {
	if year > time.Now().Year() {
		fieldError(w, "year", "cannot add titles that have not been released yet")
		return false
	}
	return true
}

func (h *TitlesHandler) Create(w http.ResponseWriter, r *http.Request) {
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.AdminOrReadOnly, true, requester, primitive.NilObjectID); err != nil {
		authzError(w, err)
		return
	}
	var req CreateTitleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validate.Map(req); errs != nil {
		fieldErrors(w, errs)
		return
	}
	if !yearValid(w, *req.Year) {
		return
	}
	t := &models.Title{
		Name:        req.Name,
		Year:        *req.Year,
		Description: req.Description,
	}
	if !h.resolveRefs(w, r, t, req.Category, req.Genre) {
		return
	}
	id, err := h.Store.CreateTitle(r.Context(), t)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to create title")
		return
	}
	view, err := h.Store.TitleViewByID(r.Context(), id)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to load title")
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *TitlesHandler) Update(w http.ResponseWriter, r *http.Request) {
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.AdminOrReadOnly, true, requester, primitive.NilObjectID); err != nil {
		authzError(w, err)
		return
	}
	id, ok := pathID(w, r, "title_id", "title not found")
	if !ok {
		return
	}
	t, err := h.Store.TitleByID(r.Context(), id)
	if err != nil {
		storeError(w, err, "title not found", "failed to load title")
		return
	}
	var req UpdateTitleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name != nil {
		if *req.Name == "" {
			fieldError(w, "name", "is required")
			return
		}
		t.Name = *req.Name
	}
	if req.Year != nil {
		if !yearValid(w, *req.Year) {
			return
		}
		t.Year = *req.Year
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	var categorySlug string
	var genreSlugs []string
	if req.Category != nil {
		categorySlug = *req.Category
	}
	if req.Genre != nil {
		if len(*req.Genre) == 0 {
			fieldError(w, "genre", "must have at least 1 elements")
			return
		}
		genreSlugs = *req.Genre
	}
	if !h.resolveRefs(w, r, t, categorySlug, genreSlugs) {
		return
	}
	if err := h.Store.UpdateTitle(r.Context(), t); err != nil {
		storeError(w, err, "title not found", "failed to update title")
		return
	}
	view, err := h.Store.TitleViewByID(r.Context(), id)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to load title")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Delete cascades to the title's reviews and their comments.
func (h *TitlesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.AdminOrReadOnly, true, requester, primitive.NilObjectID); err != nil {
		authzError(w, err)
		return
	}
	id, ok := pathID(w, r, "title_id", "title not found")
	if !ok {
		return
	}
	if err := h.Store.DeleteTitle(r.Context(), id); err != nil {
		storeError(w, err, "title not found", "failed to delete title")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
