package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seumatch/seumatch/internal/cache"
	"github.com/seumatch/seumatch/internal/http/dto"
	"github.com/seumatch/seumatch/internal/identity"
	"github.com/seumatch/seumatch/internal/push"
	"github.com/seumatch/seumatch/internal/session"
	"github.com/seumatch/seumatch/internal/theme"
)

// stubProvider implementa identity.Provider para probar el wiring HTTP de
// punta a punta sin red.
type stubProvider struct {
	mu        sync.Mutex
	current   *identity.User
	observers []identity.Observer

	idpResult *identity.PopupResult
	idpErr    error
}

func (s *stubProvider) emit(u *identity.User) {
	s.mu.Lock()
	s.current = u
	obs := append([]identity.Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, fn := range obs {
		fn(u)
	}
}

func (s *stubProvider) Register(_ context.Context, email, _ string) (*identity.User, error) {
	u := &identity.User{UID: "reg-" + email, Email: email}
	s.emit(u)
	return u, nil
}

func (s *stubProvider) SignInPassword(_ context.Context, email, _ string) (*identity.User, error) {
	u := &identity.User{UID: "pw-" + email, Email: email}
	s.emit(u)
	return u, nil
}

func (s *stubProvider) SignInIDP(_ context.Context, _ *identity.Credential) (*identity.PopupResult, error) {
	if s.idpErr != nil {
		return nil, s.idpErr
	}
	s.mu.Lock()
	s.current = s.idpResult.User
	s.mu.Unlock()
	return s.idpResult, nil
}

func (s *stubProvider) SignOut(_ context.Context) error {
	s.emit(nil)
	return nil
}

func (s *stubProvider) Observe(fn identity.Observer) (cancel func()) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	cur := s.current
	s.mu.Unlock()
	fn(cur)
	return func() {}
}

func (s *stubProvider) Token(_ context.Context, _ bool) (string, error) { return "tok", nil }

func (s *stubProvider) UpdateProfile(_ context.Context, _ identity.ProfileUpdate) error { return nil }

func (s *stubProvider) SendVerificationEmail(_ context.Context) error { return nil }

func (s *stubProvider) Reload(_ context.Context) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, &identity.Error{Code: identity.CodeNoCurrentUser}
	}
	return s.current, nil
}

func (s *stubProvider) CurrentUser() *identity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

type testApp struct {
	provider *stubProvider
	manager  *session.Manager
	handler  http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	p := &stubProvider{}
	m := session.NewManager(p, session.Options{
		DomainSuffix: "@seu.edu.bd",
		ResolveWait:  100 * time.Millisecond,
	})
	t.Cleanup(m.Close)

	mem := cache.NewMemory("", 0)
	fcm := push.NewFCM(push.Config{Enabled: true, Project: "seumatch"})
	h := New(Deps{
		Manager:     m,
		Cache:       mem,
		Themes:      theme.NewStore(mem, theme.Light),
		Registrar:   fcm,
		Deliverer:   fcm,
		ThemeCookie: "seumatch_theme",
		CORSOrigins: []string{"https://seumatch.example"},
	})
	return &testApp{provider: p, manager: m, handler: h}
}

func (a *testApp) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}

func TestRouter_Health(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusOK, app.do(t, "GET", "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, app.do(t, "GET", "/readyz", "").Code)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, "GET", "/healthz", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_SessionLifecycle(t *testing.T) {
	app := newTestApp(t)

	// Sin sesión: snapshot vacío.
	w := app.do(t, "GET", "/v1/auth/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap dto.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Session)

	// Login password: el stream publica la sesión.
	w = app.do(t, "POST", "/v1/auth/login", `{"email":"a@seu.edu.bd","password":"x"}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		w := app.do(t, "GET", "/v1/auth/session", "")
		var snap dto.SessionResponse
		_ = json.Unmarshal(w.Body.Bytes(), &snap)
		return snap.Session != nil && !snap.Loading
	}, 2*time.Second, 10*time.Millisecond)

	// Token de la sesión viva.
	w = app.do(t, "GET", "/v1/auth/token", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tok dto.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	assert.Equal(t, "tok", tok.Token)

	// Logout vuelve al snapshot vacío.
	w = app.do(t, "POST", "/v1/auth/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(t, "GET", "/v1/auth/session", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Nil(t, snap.Session)
}

func TestRouter_SocialLoginUnauthorizedDomain(t *testing.T) {
	app := newTestApp(t)
	app.provider.idpResult = &identity.PopupResult{
		User:       &identity.User{UID: "u1", Email: "x@gmail.com"},
		Credential: &identity.Credential{ProviderID: identity.GoogleProviderID},
	}

	w := app.do(t, "POST", "/v1/auth/social", `{"providerId":"google.com","idToken":"t"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "unauthorized_domain")
}

func TestRouter_SocialLoginOK(t *testing.T) {
	app := newTestApp(t)
	app.provider.idpResult = &identity.PopupResult{
		User: &identity.User{UID: "u2", Email: "b@seu.edu.bd", DisplayName: "Bee"},
		Credential: &identity.Credential{
			ProviderID:  identity.GoogleProviderID,
			AccessToken: "at",
		},
	}

	w := app.do(t, "POST", "/v1/auth/social", `{"providerId":"google.com","idToken":"t"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var view dto.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "b@seu.edu.bd", view.Email)
	assert.Equal(t, "Bee", view.DisplayName)
}

func TestRouter_TokenWithoutSession(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, "GET", "/v1/auth/token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "no_active_session")
}

func TestRouter_ThemeEndpoints(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, "GET", "/v1/theme/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "light")

	w = app.do(t, "PUT", "/v1/theme/", `{"theme":"dark"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dark")
	require.NotEmpty(t, w.Result().Cookies())
	assert.Equal(t, "dark", w.Result().Cookies()[0].Value)

	w = app.do(t, "POST", "/v1/theme/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "light")
}

func TestRouter_PushIncomingAndNext(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, "GET", "/v1/push/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st dto.PushStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.Supported)
	assert.Equal(t, string(push.PermissionDefault), st.Permission)

	w = app.do(t, "POST", "/v1/push/incoming", `{"title":"hola","body":"match nuevo"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = app.do(t, "GET", "/v1/push/next", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hola")
}

func TestRouter_ContactDisabled(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, "POST", "/v1/contact", `{"name":"Ana","message":"hola"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CORS(t *testing.T) {
	app := newTestApp(t)

	r := httptest.NewRequest("GET", "/healthz", nil)
	r.Header.Set("Origin", "https://seumatch.example")
	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, r)
	assert.Equal(t, "https://seumatch.example", w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest("GET", "/healthz", nil)
	r.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	app.handler.ServeHTTP(w, r)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
