package handlers

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yamdb/backend/models"
)

type fakeMailer struct {
	sent []int
	err  error
}

func (m *fakeMailer) SendConfirmationCode(recipient string, code int) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, code)
	return nil
}

func newAuthHandler(fs *fakeStore) *AuthHandler {
	return &AuthHandler{
		Store:     fs,
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}
}

func doJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestSignupCreatesUser(t *testing.T) {
	fs := newFakeStore()
	h := newAuthHandler(fs)

	rec := doJSON(t, h.Signup, `{"username":"alice","email":"alice@example.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"username":"alice","email":"alice@example.com"}`, rec.Body.String())
	require.Len(t, fs.users, 1)
	u := fs.users[0]
	assert.Equal(t, models.RoleUser, u.Role)
	require.NotNil(t, u.ConfirmationCode)
	assert.GreaterOrEqual(t, *u.ConfirmationCode, 100000)
	assert.LessOrEqual(t, *u.ConfirmationCode, 999999)
}

func TestSignupSamePairRegeneratesCode(t *testing.T) {
	fs := newFakeStore()
	h := newAuthHandler(fs)

	rec := doJSON(t, h.Signup, `{"username":"alice","email":"alice@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fs.users[0].ConfirmationCode)
	first := *fs.users[0].ConfirmationCode

	rec = doJSON(t, h.Signup, `{"username":"alice","email":"alice@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fs.users, 1)
	require.NotNil(t, fs.users[0].ConfirmationCode)
	second := *fs.users[0].ConfirmationCode
	if second == first {
		// 1-in-900000 random collision; one more draw settles it.
		rec = doJSON(t, h.Signup, `{"username":"alice","email":"alice@example.com"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		second = *fs.users[0].ConfirmationCode
	}
	assert.NotEqual(t, first, second)
}

func TestSignupConflicts(t *testing.T) {
	fs := newFakeStore()
	h := newAuthHandler(fs)
	doJSON(t, h.Signup, `{"username":"alice","email":"alice@example.com"}`)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"username taken", `{"username":"alice","email":"other@example.com"}`, "username"},
		{"email taken", `{"username":"bob","email":"alice@example.com"}`, "email"},
		{"reserved username", `{"username":"me","email":"me@example.com"}`, "username"},
		{"reserved username case", `{"username":"ME","email":"me@example.com"}`, "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h.Signup, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var fields map[string][]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
			assert.Contains(t, fields, tt.field)
		})
	}
	require.Len(t, fs.users, 1)
}

func TestSignupValidation(t *testing.T) {
	fs := newFakeStore()
	h := newAuthHandler(fs)

	rec := doJSON(t, h.Signup, `{"username":"alice","email":"not-an-email"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h.Signup, `{"email":"alice@example.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, fs.users)
}

func TestSignupMailDelivery(t *testing.T) {
	fs := newFakeStore()
	h := newAuthHandler(fs)
	mailer := &fakeMailer{}
	h.Mailer = mailer

	rec := doJSON(t, h.Signup, `{"username":"alice","email":"alice@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, *fs.users[0].ConfirmationCode, mailer.sent[0])
}

func TestSignupTransportFailure(t *testing.T) {
	fs := newFakeStore()
	h := newAuthHandler(fs)
	h.Mailer = &fakeMailer{err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}

	rec := doJSON(t, h.Signup, `{"username":"alice","email":"alice@example.com"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to send confirmation email")
	// The identity and code survive the failed delivery.
	require.Len(t, fs.users, 1)
	assert.NotNil(t, fs.users[0].ConfirmationCode)
}

func TestSignupNonTransportFailureSwallowed(t *testing.T) {
	fs := newFakeStore()
	h := newAuthHandler(fs)
	h.Mailer = &fakeMailer{err: errors.New("550 mailbox unavailable")}

	rec := doJSON(t, h.Signup, `{"username":"alice","email":"alice@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenIssuance(t *testing.T) {
	fs := newFakeStore()
	h := newAuthHandler(fs)
	doJSON(t, h.Signup, `{"username":"alice","email":"alice@example.com"}`)
	code := *fs.users[0].ConfirmationCode

	rec := doJSON(t, h.Token, `{"username":"alice","confirmation_code":`+strconv.Itoa(code)+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	// Without rotation the code stays valid for repeated exchanges.
	assert.NotNil(t, fs.users[0].ConfirmationCode)
}

func TestTokenRotation(t *testing.T) {
	fs := newFakeStore()
	h := newAuthHandler(fs)
	h.RotateCode = true
	doJSON(t, h.Signup, `{"username":"alice","email":"alice@example.com"}`)
	code := *fs.users[0].ConfirmationCode

	rec := doJSON(t, h.Token, `{"username":"alice","confirmation_code":`+strconv.Itoa(code)+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, fs.users[0].ConfirmationCode)

	rec = doJSON(t, h.Token, `{"username":"alice","confirmation_code":`+strconv.Itoa(code)+`}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenUnknownUser(t *testing.T) {
	fs := newFakeStore()
	h := newAuthHandler(fs)

	rec := doJSON(t, h.Token, `{"username":"ghost","confirmation_code":123456}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "user not found")
}

func TestTokenWrongCode(t *testing.T) {
	fs := newFakeStore()
	h := newAuthHandler(fs)
	doJSON(t, h.Signup, `{"username":"alice","email":"alice@example.com"}`)
	wrong := *fs.users[0].ConfirmationCode + 1
	if wrong > 999999 {
		wrong = 100000
	}

	rec := doJSON(t, h.Token, `{"username":"alice","confirmation_code":`+strconv.Itoa(wrong)+`}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid confirmation code")
}

func TestConfirmationCodeRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code := newConfirmationCode()
		require.GreaterOrEqual(t, code, 100000)
		require.LessOrEqual(t, code, 999999)
	}
}
