package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GustavoPerpetuo2002/rpg-backend/api/rest"
	"github.com/GustavoPerpetuo2002/rpg-backend/audit"
	"github.com/GustavoPerpetuo2002/rpg-backend/config"
	mw "github.com/GustavoPerpetuo2002/rpg-backend/middleware"
	"github.com/GustavoPerpetuo2002/rpg-backend/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testSecurity() config.SecurityConfig {
	return config.SecurityConfig{
		JWTSecret: "test-secret",
		JWTTTLH:   72 * time.Hour,
	}
}

func newAuthRouter(t *testing.T) *gin.Engine {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	sec := testSecurity()
	auditSvc := audit.New(db, testutil.Logger())
	t.Cleanup(func() { auditSvc.Stop(nil) })

	h := rest.NewAuthHandler(db, c, sec, auditSvc)
	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/logout", mw.Auth(sec, c), h.Logout)
	r.GET("/api/auth/me", mw.Auth(sec, c), h.Me)
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(r *gin.Engine, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	return doJSON(r, http.MethodPost, path, body, headers...)
}

func getJSON(r *gin.Engine, path string, headers ...string) *httptest.ResponseRecorder {
	return doJSON(r, http.MethodGet, path, nil, headers...)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRegister(t *testing.T) {
	r := newAuthRouter(t)

	w := postJSON(r, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "pass1234",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeBody(t, w)
	assert.NotEmpty(t, resp["token"])
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
}

func TestRegisterDuplicateUsername(t *testing.T) {
	r := newAuthRouter(t)

	w := postJSON(r, "/api/auth/register", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "pass1234",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w2 := postJSON(r, "/api/auth/register", map[string]string{
		"username": "bob", "email": "other@example.com", "password": "pass1234",
	})
	assert.Equal(t, http.StatusConflict, w2.Code)

	// Same email under a new username is rejected too.
	w3 := postJSON(r, "/api/auth/register", map[string]string{
		"username": "bob2", "email": "bob@example.com", "password": "pass1234",
	})
	assert.Equal(t, http.StatusConflict, w3.Code)
}

func TestRegisterValidation(t *testing.T) {
	r := newAuthRouter(t)

	// Too-short password.
	w := postJSON(r, "/api/auth/register", map[string]string{
		"username": "carol", "email": "carol@example.com", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bad email.
	w2 := postJSON(r, "/api/auth/register", map[string]string{
		"username": "carol", "email": "not-an-email", "password": "pass1234",
	})
	assert.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestLogin(t *testing.T) {
	r := newAuthRouter(t)

	postJSON(r, "/api/auth/register", map[string]string{
		"username": "dave", "email": "dave@example.com", "password": "pass1234",
	})

	w := postJSON(r, "/api/auth/login", map[string]string{
		"username": "dave", "password": "pass1234",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.NotEmpty(t, resp["token"])
}

func TestLoginWrongPassword(t *testing.T) {
	r := newAuthRouter(t)

	postJSON(r, "/api/auth/register", map[string]string{
		"username": "erin", "email": "erin@example.com", "password": "correct1",
	})

	w := postJSON(r, "/api/auth/login", map[string]string{
		"username": "erin", "password": "wrong123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	r := newAuthRouter(t)

	w := postJSON(r, "/api/auth/login", map[string]string{
		"username": "nobody", "password": "pass1234",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	r := newAuthRouter(t)

	w := postJSON(r, "/api/auth/register", map[string]string{
		"username": "frank", "email": "frank@example.com", "password": "pass1234",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	token := decodeBody(t, w)["token"].(string)

	// Token works before logout.
	w2 := getJSON(r, "/api/auth/me", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w2.Code)

	w3 := postJSON(r, "/api/auth/logout", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w3.Code)

	// Session removed; the same token is now rejected.
	w4 := getJSON(r, "/api/auth/me", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w4.Code)
}

func TestMe(t *testing.T) {
	r := newAuthRouter(t)

	w := postJSON(r, "/api/auth/register", map[string]string{
		"username": "grace", "email": "grace@example.com", "password": "pass1234",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	token := decodeBody(t, w)["token"].(string)

	w2 := getJSON(r, "/api/auth/me", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w2.Code)
	user := decodeBody(t, w2)["user"].(map[string]interface{})
	assert.Equal(t, "grace", user["username"])
	assert.Equal(t, "grace@example.com", user["email"])
}

func TestMeNoToken(t *testing.T) {
	r := newAuthRouter(t)
	w := getJSON(r, "/api/auth/me")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
