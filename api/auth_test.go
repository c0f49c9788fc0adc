package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository/mock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestSignupEngineer(t *testing.T) {
	m := mock.NewMocks()
	h := NewAuthHandler(m.Accounts, m.Companies, m.Engineers, testSecret, time.Hour)

	w := postJSON(t, h.Signup, "/v1/auth/signup", map[string]string{
		"kind": "engineer", "name": "Alice", "email": "alice@example.com", "password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "engineer", claims["kind"])
	assert.Equal(t, "alice@example.com", claims["email"])
	assert.Equal(t, float64(1), claims["account_id"])

	// account stored with a bcrypt hash, never the raw password
	require.NotNil(t, m.Accounts.Stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(m.Accounts.Stored.PasswordHash), []byte("hunter2")))

	// the engineer side gets its draft profile
	require.NotNil(t, m.Engineers.Profiles[1])
	assert.Equal(t, models.ProfileDraft, m.Engineers.Profiles[1].Status)
}

func TestSignupCompanyCreatesCompanyProfile(t *testing.T) {
	m := mock.NewMocks()
	h := NewAuthHandler(m.Accounts, m.Companies, m.Engineers, testSecret, time.Hour)

	w := postJSON(t, h.Signup, "/v1/auth/signup", map[string]string{
		"kind": "company", "name": "Acme", "email": "hr@acme.com", "password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, m.Companies.Profiles[1])
}

func TestSignupValidation(t *testing.T) {
	m := mock.NewMocks()
	h := NewAuthHandler(m.Accounts, m.Companies, m.Engineers, testSecret, time.Hour)

	w := postJSON(t, h.Signup, "/v1/auth/signup", map[string]string{
		"kind": "engineer", "name": "Alice", "email": "alice@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, h.Signup, "/v1/auth/signup", map[string]string{
		"kind": "admin", "name": "Alice", "email": "alice@example.com", "password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	m := mock.NewMocks()
	m.Accounts.Stored = &models.Account{
		ID: 1, Kind: "engineer", Name: "Alice", Email: "alice@example.com", PasswordHash: string(hash),
	}
	h := NewAuthHandler(m.Accounts, m.Companies, m.Engineers, testSecret, time.Hour)

	w := postJSON(t, h.Signin, "/v1/auth/signin", map[string]string{
		"email": "alice@example.com", "password": "hunter2",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")

	w = postJSON(t, h.Signin, "/v1/auth/signin", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, h.Signin, "/v1/auth/signin", map[string]string{
		"email": "nobody@example.com", "password": "hunter2",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
