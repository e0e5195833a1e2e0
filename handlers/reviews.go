package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/yamdb/backend/authz"
	"github.com/yamdb/backend/middleware"
	"github.com/yamdb/backend/models"
	"github.com/yamdb/backend/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewsStore interface {
	TitleByID(ctx context.Context, id primitive.ObjectID) (*models.Title, error)
	ListReviews(ctx context.Context, titleID primitive.ObjectID, limit, offset int64) (int64, []models.Review, error)
	ReviewByID(ctx context.Context, titleID, reviewID primitive.ObjectID) (*models.Review, error)
	HasReviewByAuthor(ctx context.Context, titleID, authorID primitive.ObjectID) (bool, error)
	CreateReview(ctx context.Context, rv *models.Review) (primitive.ObjectID, error)
	UpdateReview(ctx context.Context, rv *models.Review) error
	DeleteReview(ctx context.Context, id primitive.ObjectID) error
}

type ReviewsHandler struct {
	Store ReviewsStore
}

type CreateReviewRequest struct {
	Text  string `json:"text" validate:"required"`
	Score *int   `json:"score" validate:"required,gte=1,lte=10"`
}

type UpdateReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

// title resolves the path title, 404ing on unknown or malformed ids.
func (h *ReviewsHandler) title(w http.ResponseWriter, r *http.Request) (*models.Title, bool) {
	id, ok := pathID(w, r, "title_id", "title not found")
	if !ok {
		return nil, false
	}
	t, err := h.Store.TitleByID(r.Context(), id)
	if err != nil {
		storeError(w, err, "title not found", "failed to load title")
		return nil, false
	}
	return t, true
}

func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	t, ok := h.title(w, r)
	if !ok {
		return
	}
	p := parsePage(r)
	total, reviews, err := h.Store.ListReviews(r.Context(), t.ID, p.Limit, p.Offset)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}
	writeJSON(w, http.StatusOK, paginated(r, p, total, reviews))
}

// Create posts one review per (title, author). The author always comes from
// the request identity, never the payload. The existence check here is an
// early exit; the store's unique index settles concurrent creations.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	requester := middleware.UserFromContext(r.Context())
	owner := primitive.NilObjectID
	if requester != nil {
		owner = requester.ID
	}
	if err := authz.Authorize(authz.ContentOwnerOrStaff, true, requester, owner); err != nil {
		authzError(w, err)
		return
	}
	t, ok := h.title(w, r)
	if !ok {
		return
	}
	var req CreateReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validate.Map(req); errs != nil {
		fieldErrors(w, errs)
		return
	}
	exists, err := h.Store.HasReviewByAuthor(r.Context(), t.ID, requester.ID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to create review")
		return
	}
	if exists {
		fieldError(w, "title", "you have already reviewed this title")
		return
	}
	rv := &models.Review{
		TitleID:  t.ID,
		AuthorID: requester.ID,
		Author:   requester.Username,
		Text:     req.Text,
		Score:    *req.Score,
		PubDate:  time.Now().UTC(),
	}
	id, err := h.Store.CreateReview(r.Context(), rv)
	if err != nil {
		duplicateOr500(w, err, "title", "failed to create review")
		return
	}
	rv.ID = id
	writeJSON(w, http.StatusCreated, rv)
}

func (h *ReviewsHandler) review(w http.ResponseWriter, r *http.Request) (*models.Review, bool) {
	t, ok := h.title(w, r)
	if !ok {
		return nil, false
	}
	id, ok := pathID(w, r, "review_id", "review not found")
	if !ok {
		return nil, false
	}
	rv, err := h.Store.ReviewByID(r.Context(), t.ID, id)
	if err != nil {
		storeError(w, err, "review not found", "failed to load review")
		return nil, false
	}
	return rv, true
}

func (h *ReviewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rv, ok := h.review(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

// Update partially modifies an existing review; the one-review-per-author
// rule does not apply here, only to creation.
func (h *ReviewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	rv, ok := h.review(w, r)
	if !ok {
		return
	}
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.ContentOwnerOrStaff, true, requester, rv.AuthorID); err != nil {
		authzError(w, err)
		return
	}
	var req UpdateReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text != nil {
		if *req.Text == "" {
			fieldError(w, "text", "is required")
			return
		}
		rv.Text = *req.Text
	}
	if req.Score != nil {
		if *req.Score < models.MinScore || *req.Score > models.MaxScore {
			fieldError(w, "score", "must be between 1 and 10")
			return
		}
		rv.Score = *req.Score
	}
	if err := h.Store.UpdateReview(r.Context(), rv); err != nil {
		storeError(w, err, "review not found", "failed to update review")
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rv, ok := h.review(w, r)
	if !ok {
		return
	}
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.ContentOwnerOrStaff, true, requester, rv.AuthorID); err != nil {
		authzError(w, err)
		return
	}
	if err := h.Store.DeleteReview(r.Context(), rv.ID); err != nil {
		storeError(w, err, "review not found", "failed to delete review")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
