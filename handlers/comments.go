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

type CommentsStore interface {
	TitleByID(ctx context.Context, id primitive.ObjectID) (*models.Title, error)
	ReviewByID(ctx context.Context, titleID, reviewID primitive.ObjectID) (*models.Review, error)
	ListComments(ctx context.Context, reviewID primitive.ObjectID, limit, offset int64) (int64, []models.Comment, error)
	CommentByID(ctx context.Context, reviewID, commentID primitive.ObjectID) (*models.Comment, error)
	CreateComment(ctx context.Context, c *models.Comment) (primitive.ObjectID, error)
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id primitive.ObjectID) error
}

type CommentsHandler struct {
	Store CommentsStore
}

type CreateCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

type UpdateCommentRequest struct {
	Text *string `json:"text"`
}

// review resolves the path review, requiring it to belong to the path title.
func (h *CommentsHandler) review(w http.ResponseWriter, r *http.Request) (*models.Review, bool) {
	titleID, ok := pathID(w, r, "title_id", "title not found")
	if !ok {
		return nil, false
	}
	t, err := h.Store.TitleByID(r.Context(), titleID)
	if err != nil {
		storeError(w, err, "title not found", "failed to load title")
		return nil, false
	}
	reviewID, ok := pathID(w, r, "review_id", "review not found")
	if !ok {
		return nil, false
	}
	rv, err := h.Store.ReviewByID(r.Context(), t.ID, reviewID)
	if err != nil {
		storeError(w, err, "review not found", "failed to load review")
		return nil, false
	}
	return rv, true
}

func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	rv, ok := h.review(w, r)
	if !ok {
		return
	}
	p := parsePage(r)
	total, comments, err := h.Store.ListComments(r.Context(), rv.ID, p.Limit, p.Offset)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to list comments")
		return
	}
	writeJSON(w, http.StatusOK, paginated(r, p, total, comments))
}

func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	requester := middleware.UserFromContext(r.Context())
	owner := primitive.NilObjectID
	if requester != nil {
		owner = requester.ID
	}
	if err := authz.Authorize(authz.ContentOwnerOrStaff, true, requester, owner); err != nil {
		authzError(w, err)
		return
	}
	rv, ok := h.review(w, r)
	if !ok {
		return
	}
	var req CreateCommentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validate.Map(req); errs != nil {
		fieldErrors(w, errs)
		return
	}
	c := &models.Comment{
		ReviewID: rv.ID,
		AuthorID: requester.ID,
		Author:   requester.Username,
		Text:     req.Text,
		PubDate:  time.Now().UTC(),
	}
	id, err := h.Store.CreateComment(r.Context(), c)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to create comment")
		return
	}
	c.ID = id
	writeJSON(w, http.StatusCreated, c)
}

func (h *CommentsHandler) comment(w http.ResponseWriter, r *http.Request) (*models.Comment, bool) {
	rv, ok := h.review(w, r)
	if !ok {
		return nil, false
	}
	id, ok := pathID(w, r, "comment_id", "comment not found")
	if !ok {
		return nil, false
	}
	c, err := h.Store.CommentByID(r.Context(), rv.ID, id)
	if err != nil {
		storeError(w, err, "comment not found", "failed to load comment")
		return nil, false
	}
	return c, true
}

func (h *CommentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.comment(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CommentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.comment(w, r)
	if !ok {
		return
	}
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.ContentOwnerOrStaff, true, requester, c.AuthorID); err != nil {
		authzError(w, err)
		return
	}
	var req UpdateCommentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text != nil {
		if *req.Text == "" {
			fieldError(w, "text", "is required")
			return
		}
		c.Text = *req.Text
	}
	if err := h.Store.UpdateComment(r.Context(), c); err != nil {
		storeError(w, err, "comment not found", "failed to update comment")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CommentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.comment(w, r)
	if !ok {
		return
	}
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.ContentOwnerOrStaff, true, requester, c.AuthorID); err != nil {
		authzError(w, err)
		return
	}
	if err := h.Store.DeleteComment(r.Context(), c.ID); err != nil {
		storeError(w, err, "comment not found", "failed to delete comment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
