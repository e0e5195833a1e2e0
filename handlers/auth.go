package handlers

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yamdb/backend/middleware"
	"github.com/yamdb/backend/models"
	"github.com/yamdb/backend/service"
	"github.com/yamdb/backend/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthStore is the slice of the store the sign-up/token flow needs.
type AuthStore interface {
	UserByUsernameEmail(ctx context.Context, username, email string) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	SetConfirmationCode(ctx context.Context, id primitive.ObjectID, code *int) error
}

// CodeMailer dispatches a confirmation code to a recipient.
type CodeMailer interface {
	SendConfirmationCode(recipient string, code int) error
}

type AuthHandler struct {
	Store     AuthStore
	Mailer    CodeMailer // nil when SMTP is not configured; codes are logged
	JWTSecret string
	TokenTTL  time.Duration
	// RotateCode clears the stored code once a token has been issued.
	RotateCode bool
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// newConfirmationCode returns a uniformly random 6-digit code.
func newConfirmationCode() int {
	return rand.IntN(900000) + 100000
}

// Signup handles POST /v1/auth/signup/. An exact (username, email) match is a
// re-signup and only regenerates the code; anything else is a new
// registration, rejected when either field is already taken by a different
// identity.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validate.Map(req); errs != nil {
		fieldErrors(w, errs)
		return
	}

	user, err := h.Store.UserByUsernameEmail(r.Context(), req.Username, req.Email)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "signup failed")
		return
	}
	if user == nil {
		if models.UsernameReserved(req.Username) {
			fieldError(w, "username", "username \"me\" is reserved")
			return
		}
		existing, err := h.Store.UserByUsername(r.Context(), req.Username)
		if err != nil {
			errorJSON(w, http.StatusInternalServerError, "signup failed")
			return
		}
		if existing != nil {
			fieldError(w, "username", "username already in use")
			return
		}
		existing, err = h.Store.UserByEmail(r.Context(), req.Email)
		if err != nil {
			errorJSON(w, http.StatusInternalServerError, "signup failed")
			return
		}
		if existing != nil {
			fieldError(w, "email", "email already in use")
			return
		}
		// No password credential is ever set; the account is token-only.
		user = &models.User{
			Username: req.Username,
			Email:    req.Email,
			Role:     models.RoleUser,
		}
		id, err := h.Store.CreateUser(r.Context(), user)
		if err != nil {
			errorJSON(w, http.StatusInternalServerError, "signup failed")
			return
		}
		user.ID = id
	}

	code := newConfirmationCode()
	if err := h.Store.SetConfirmationCode(r.Context(), user.ID, &code); err != nil {
		errorJSON(w, http.StatusInternalServerError, "signup failed")
		return
	}
	// Dispatch after persisting: a delivery failure must never roll back the
	// identity or the stored code.
	if !h.dispatchCode(w, req.Email, code) {
		return
	}
	writeJSON(w, http.StatusOK, SignupResponse{Username: user.Username, Email: user.Email})
}

// dispatchCode sends the code best-effort. Only a transport-level failure is
// surfaced (500 with the transport error text); other send failures are
// logged and swallowed.
func (h *AuthHandler) dispatchCode(w http.ResponseWriter, recipient string, code int) bool {
	if h.Mailer == nil {
		logrus.WithField("recipient", recipient).Info("mail disabled; confirmation code not sent")
		return true
	}
	err := h.Mailer.SendConfirmationCode(recipient, code)
	if err == nil {
		return true
	}
	if service.IsTransportError(err) {
		errorJSON(w, http.StatusInternalServerError, "failed to send confirmation email: "+err.Error())
		return false
	}
	logrus.WithError(err).WithField("recipient", recipient).Warn("confirmation email not delivered")
	return true
}

type TokenRequest struct {
	Username         string `json:"username" validate:"required"`
	ConfirmationCode *int   `json:"confirmation_code" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// Token handles POST /v1/auth/token/: exchanges a matching confirmation code
// for a bearer token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validate.Map(req); errs != nil {
		fieldErrors(w, errs)
		return
	}
	user, err := h.Store.UserByUsername(r.Context(), req.Username)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "token issuance failed")
		return
	}
	if user == nil {
		errorJSON(w, http.StatusNotFound, "user not found")
		return
	}
	if user.ConfirmationCode == nil || *user.ConfirmationCode != *req.ConfirmationCode {
		fieldError(w, "confirmation_code", "invalid confirmation code")
		return
	}
	token, err := middleware.NewToken(user, h.JWTSecret, h.TokenTTL)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "could not create token")
		return
	}
	if h.RotateCode {
		if err := h.Store.SetConfirmationCode(r.Context(), user.ID, nil); err != nil {
			logrus.WithError(err).WithField("username", user.Username).Warn("rotate confirmation code")
		}
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}
