package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notes-api/internal/middleware"
	"notes-api/internal/repository/repotest"
	"notes-api/internal/service"
	"notes-api/pkg/jwt/jwttest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "Str0ng!Pass"

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

type testServer struct {
	handler   http.Handler
	blacklist *repotest.TokenBlacklist
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := repotest.NewUserRepository()
	notes := repotest.NewNoteRepository()
	blacklist := repotest.NewTokenBlacklist()

	userService := service.NewUserService(users)
	authService := service.NewAuthService(userService, blacklist, service.TokenConfig{
		AccessKeys:  jwttest.NewKeyPair(t),
		RefreshKeys: jwttest.NewKeyPair(t),
		AccessTTL:   time.Hour,
		RefreshTTL:  24 * time.Hour,
		CookiePath:  "/",
	})
	noteService := service.NewNoteService(notes, userService, nil)

	h := Handlers{
		Auth:   NewAuthHandler(authService),
		User:   NewUserHandler(userService),
		Note:   NewNoteHandler(noteService),
		Search: NewSearchHandler(noteService),
		Home:   NewHomeHandler(nil),
	}

	return &testServer{
		handler: NewRouter(h, RouterOptions{
			APIPrefix:      "/api",
			Verifier:       authService,
			Metrics:        middleware.NewMetrics(prometheus.NewRegistry()),
			AllowedOrigins: "http://localhost:5173",
			AllowedMethods: "GET,POST,PATCH,DELETE,OPTIONS",
			AllowedHeaders: "Content-Type,Authorization,X-Refresh-Token",
		}),
		blacklist: blacklist,
	}
}

type requestOption func(*http.Request)

func bearer(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func refreshHeader(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("X-Refresh-Token", token) }
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, opts ...requestOption) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func signupBody(email string) map[string]string {
	return map[string]string{
		"email":     email,
		"password":  testPassword,
		"firstName": "Ada",
		"lastName":  "Lovelace",
	}
}

// login signs up email and returns its access and refresh tokens.
func (s *testServer) login(t *testing.T, email string) (string, string) {
	t.Helper()

	rec, _ := s.do(t, http.MethodPost, "/api/auth/signup", signupBody(email))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var pair struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair.AccessToken, pair.RefreshToken
}

func (s *testServer) createNote(t *testing.T, token string) string {
	t.Helper()

	rec, resp := s.do(t, http.MethodPost, "/api/notes", map[string]interface{}{
		"title":   "Groceries",
		"content": "milk and eggs",
		"tags":    []string{"Home"},
	}, bearer(token))
	require.Equal(t, http.StatusCreated, rec.Code)

	var note struct {
		ID   string   `json:"id"`
		Tags []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &note))
	assert.Equal(t, []string{"home"}, note.Tags)
	return note.ID
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, http.MethodPost, "/api/auth/signup", signupBody("ada@example.com"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User registered successfully", resp.Message)

	var cookies []string
	for _, c := range rec.Result().Cookies() {
		cookies = append(cookies, c.Name)
		assert.True(t, c.HttpOnly)
	}
	assert.ElementsMatch(t, []string{"accessToken", "refreshToken"}, cookies)

	rec, resp = s.do(t, http.MethodPost, "/api/auth/signup", signupBody("ADA@example.com"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already exists", resp.Message)

	rec, resp = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "Wr0ng!Pass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", resp.Message)

	rec, resp = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", resp.Message)
}

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		body    interface{}
		message string
	}{
		{
			name:    "empty body",
			body:    nil,
			message: "Request body is required",
		},
		{
			name:    "unknown key",
			body:    `{"email":"a@example.com","admin":true}`,
			message: "Unrecognized key: \"admin\"",
		},
		{
			name: "weak password",
			body: map[string]string{
				"email":     "a@example.com",
				"password":  "password1",
				"firstName": "Ada",
				"lastName":  "Lovelace",
			},
			message: "Password should contain capital letters, small letters, numbers and special characters",
		},
		{
			name: "missing names",
			body: map[string]string{
				"email":    "a@example.com",
				"password": testPassword,
			},
			message: "Firstname is required, Lastname is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := s.do(t, http.MethodPost, "/api/auth/signup", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, resp.Message)
			assert.False(t, resp.Success)
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/notes", "/api/search?q=x", "/api/user/authenticated"} {
		rec, resp := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "Unauthorized", resp.Message, path)
	}

	rec, _ := s.do(t, http.MethodGet, "/api/notes", nil, bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatedUser(t *testing.T) {
	s := newTestServer(t)
	access, _ := s.login(t, "ada@example.com")

	rec, resp := s.do(t, http.MethodGet, "/api/user/authenticated", nil, bearer(access))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User details fetched successfully", resp.Message)

	var user map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &user))
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "password")
}

func TestNoteAccess(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.login(t, "owner@example.com")
	stranger, _ := s.login(t, "stranger@example.com")

	noteID := s.createNote(t, owner)

	rec, resp := s.do(t, http.MethodGet, "/api/notes/"+noteID, nil, bearer(owner))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Note fetched successfully", resp.Message)

	rec, resp = s.do(t, http.MethodGet, "/api/notes/"+noteID, nil, bearer(stranger))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You do not have access to this note", resp.Message)

	rec, resp = s.do(t, http.MethodGet, "/api/notes/missing", nil, bearer(owner))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Note not found", resp.Message)

	rec, _ = s.do(t, http.MethodPatch, "/api/notes/"+noteID, map[string]string{"title": "Hacked"}, bearer(stranger))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/notes/"+noteID, nil, bearer(stranger))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp = s.do(t, http.MethodPatch, "/api/notes/"+noteID, map[string]string{"title": "Groceries v2"}, bearer(owner))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Note updated successfully", resp.Message)

	rec, resp = s.do(t, http.MethodGet, "/api/notes", nil, bearer(stranger))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(resp.Data))

	rec, _ = s.do(t, http.MethodDelete, "/api/notes/"+noteID, nil, bearer(owner))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/notes/"+noteID, nil, bearer(owner))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShareNote(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.login(t, "owner@example.com")
	friend, _ := s.login(t, "friend@example.com")
	noteID := s.createNote(t, owner)
	sharePath := "/api/notes/" + noteID + "/share"

	rec, resp := s.do(t, http.MethodPost, sharePath, map[string][]string{"emails": {}}, bearer(owner))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No email addresses provided", resp.Message)

	rec, resp = s.do(t, http.MethodPost, sharePath, map[string][]string{"emails": {"not-an-email"}}, bearer(owner))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email is not valid", resp.Message)

	rec, resp = s.do(t, http.MethodPost, sharePath, map[string][]string{"emails": {"ghost@example.com"}}, bearer(owner))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Users not found: ghost@example.com", resp.Message)

	rec, resp = s.do(t, http.MethodPost, sharePath, map[string][]string{"emails": {"owner@example.com"}}, bearer(owner))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot share note with yourself", resp.Message)

	rec, resp = s.do(t, http.MethodPost, sharePath, map[string][]string{"emails": {" Friend@Example.com "}}, bearer(owner))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Note shared successfully", resp.Message)

	rec, _ = s.do(t, http.MethodGet, "/api/notes/"+noteID, nil, bearer(friend))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp = s.do(t, http.MethodPost, sharePath, map[string][]string{"emails": {"friend@example.com"}}, bearer(owner))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Note already shared with: friend@example.com", resp.Message)

	rec, resp = s.do(t, http.MethodPost, "/api/notes/missing/share", map[string][]string{"emails": {"friend@example.com"}}, bearer(owner))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Note not found", resp.Message)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.login(t, "owner@example.com")
	s.createNote(t, owner)

	rec, resp := s.do(t, http.MethodGet, "/api/search", nil, bearer(owner))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Search query is required", resp.Message)

	rec, resp = s.do(t, http.MethodGet, "/api/search?q=EGGS", nil, bearer(owner))
	require.Equal(t, http.StatusOK, rec.Code)

	var notes []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &notes))
	assert.Len(t, notes, 1)

	var meta struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Meta, &meta))
	assert.Equal(t, 1, meta.Total)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	s := newTestServer(t)
	access, refresh := s.login(t, "ada@example.com")

	rec, _ := s.do(t, http.MethodGet, "/api/notes", nil, bearer(access))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp := s.do(t, http.MethodPost, "/api/auth/logout", nil, bearer(access), refreshHeader(refresh))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logout successful", resp.Message)
	assert.Equal(t, 1, s.blacklist.Len())

	for _, c := range rec.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/notes", nil, bearer(access))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutWithoutRefreshTokenKeepsAccessToken(t *testing.T) {
	s := newTestServer(t)
	access, _ := s.login(t, "ada@example.com")

	rec, _ := s.do(t, http.MethodPost, "/api/auth/logout", nil, bearer(access))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, s.blacklist.Len())

	rec, _ = s.do(t, http.MethodGet, "/api/notes", nil, bearer(access))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshToken(t *testing.T) {
	s := newTestServer(t)
	access, refresh := s.login(t, "ada@example.com")

	rec, resp := s.do(t, http.MethodPost, "/api/auth/refresh-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token could not be refreshed", resp.Message)

	rec, _ = s.do(t, http.MethodPost, "/api/auth/refresh-token", nil, refreshHeader(access))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp = s.do(t, http.MethodPost, "/api/auth/refresh-token", nil, refreshHeader(refresh))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Token refreshed successfully", resp.Message)

	var pair struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &pair))
	require.NotEmpty(t, pair.AccessToken)

	rec, _ = s.do(t, http.MethodGet, "/api/user/authenticated", nil, bearer(pair.AccessToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterFallbacks(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, http.MethodGet, "/api/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", resp.Message)

	rec, resp = s.do(t, http.MethodGet, "/api/notes/abc/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", resp.Message)

	rec, resp = s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Notes API", resp.Message)

	rec, _ = s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	access, _ := s.login(t, "ada@example.com")

	tests := []struct {
		method string
		path   string
		opts   []requestOption
	}{
		{method: http.MethodPut, path: "/api/auth/login"},
		{method: http.MethodGet, path: "/api/auth/signup"},
		{method: http.MethodPut, path: "/api/notes"},
		{method: http.MethodPut, path: "/api/notes", opts: []requestOption{bearer(access)}},
		{method: http.MethodPost, path: "/api/notes/abc", opts: []requestOption{bearer(access)}},
		{method: http.MethodGet, path: "/api/notes/abc/share", opts: []requestOption{bearer(access)}},
		{method: http.MethodPost, path: "/api/search"},
		{method: http.MethodPut, path: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec, resp := s.do(t, tt.method, tt.path, nil, tt.opts...)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, "Method not allowed", resp.Message)
		})
	}
}
