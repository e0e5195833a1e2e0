package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yamdb/backend/authz"
	"github.com/yamdb/backend/middleware"
	"github.com/yamdb/backend/models"
	"github.com/yamdb/backend/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UsersStore interface {
	ListUsers(ctx context.Context, search string, limit, offset int64) (int64, []models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, username string) error
}

type UsersHandler struct {
	Store UsersStore
}

// authzError maps a policy denial onto the response.
func authzError(w http.ResponseWriter, err error) {
	switch err {
	case authz.ErrUnauthenticated:
		errorJSON(w, http.StatusUnauthorized, "authentication required")
	default:
		errorJSON(w, http.StatusForbidden, "forbidden")
	}
}

type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

type UpdateUserRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role"`
}

// List handles GET /v1/users/ (admin only): paginated, with username search.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.AdminOnly, false, requester, primitive.NilObjectID); err != nil {
		authzError(w, err)
		return
	}
	p := parsePage(r)
	total, users, err := h.Store.ListUsers(r.Context(), r.URL.Query().Get("search"), p.Limit, p.Offset)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, paginated(r, p, total, users))
}

// Create handles POST /v1/users/ (admin only). No password is set; the new
// identity authenticates through the sign-up code flow like everyone else.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.AdminOnly, true, requester, primitive.NilObjectID); err != nil {
		authzError(w, err)
		return
	}
	var req CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validate.Map(req); errs != nil {
		fieldErrors(w, errs)
		return
	}
	if models.UsernameReserved(req.Username) {
		fieldError(w, "username", "username \"me\" is reserved")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if !models.RoleValid(req.Role) {
		fieldError(w, "role", "invalid role; use user, moderator, or admin")
		return
	}
	if existing, err := h.Store.UserByUsername(r.Context(), req.Username); err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to create user")
		return
	} else if existing != nil {
		fieldError(w, "username", "username already in use")
		return
	}
	if existing, err := h.Store.UserByEmail(r.Context(), req.Email); err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to create user")
		return
	} else if existing != nil {
		fieldError(w, "email", "email already in use")
		return
	}
	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	}
	if _, err := h.Store.CreateUser(r.Context(), user); err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Get handles GET /v1/users/{username}/ (admin only).
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.AdminOnly, false, requester, primitive.NilObjectID); err != nil {
		authzError(w, err)
		return
	}
	user, err := h.Store.UserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user == nil {
		errorJSON(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update handles PATCH /v1/users/{username}/ (admin only).
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.AdminOnly, true, requester, primitive.NilObjectID); err != nil {
		authzError(w, err)
		return
	}
	user, err := h.Store.UserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user == nil {
		errorJSON(w, http.StatusNotFound, "user not found")
		return
	}
	var req UpdateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !h.applyProfile(w, r, user, &req) {
		return
	}
	if req.Role != nil {
		if !models.RoleValid(*req.Role) {
			fieldError(w, "role", "invalid role; use user, moderator, or admin")
			return
		}
		user.Role = *req.Role
	}
	if err := h.Store.SaveUser(r.Context(), user); err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// applyProfile applies the non-role fields of a partial update, with the
// reserved-username and uniqueness checks shared by the admin and self paths.
func (h *UsersHandler) applyProfile(w http.ResponseWriter, r *http.Request, user *models.User, req *UpdateUserRequest) bool {
	if req.Username != nil && *req.Username != user.Username {
		if *req.Username == "" {
			fieldError(w, "username", "is required")
			return false
		}
		if models.UsernameReserved(*req.Username) {
			fieldError(w, "username", "username \"me\" is reserved")
			return false
		}
		existing, err := h.Store.UserByUsername(r.Context(), *req.Username)
		if err != nil {
			errorJSON(w, http.StatusInternalServerError, "failed to update user")
			return false
		}
		if existing != nil {
			fieldError(w, "username", "username already in use")
			return false
		}
		user.Username = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		if *req.Email == "" {
			fieldError(w, "email", "is required")
			return false
		}
		existing, err := h.Store.UserByEmail(r.Context(), *req.Email)
		if err != nil {
			errorJSON(w, http.StatusInternalServerError, "failed to update user")
			return false
		}
		if existing != nil {
			fieldError(w, "email", "email already in use")
			return false
		}
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	return true
}

// Delete handles DELETE /v1/users/{username}/ (admin only). Cascades to the
// user's reviews and comments.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requester := middleware.UserFromContext(r.Context())
	if err := authz.Authorize(authz.AdminOnly, true, requester, primitive.NilObjectID); err != nil {
		authzError(w, err)
		return
	}
	if err := h.Store.DeleteUser(r.Context(), chi.URLParam(r, "username")); err != nil {
		storeError(w, err, "user not found", "failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /v1/users/me/: always the requester, no object-level check.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.UserFromContext(r.Context()))
}

// UpdateMe handles PATCH /v1/users/me/. The role field is immutable here for
// non-admins: a supplied value is ignored, matching the read-only field in
// the admin-managed representation.
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	var req UpdateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !h.applyProfile(w, r, user, &req) {
		return
	}
	if req.Role != nil && user.IsAdmin() {
		if !models.RoleValid(*req.Role) {
			fieldError(w, "role", "invalid role; use user, moderator, or admin")
			return
		}
		user.Role = *req.Role
	}
	if err := h.Store.SaveUser(r.Context(), user); err != nil {
		errorJSON(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
