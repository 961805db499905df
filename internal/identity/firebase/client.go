// Package firebase implementa identity.Provider contra las APIs REST de
// Google Identity Platform (identitytoolkit + securetoken).
package firebase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/seumatch/seumatch/internal/identity"
)

const (
	defaultBaseURL      = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenBaseURL = "https://securetoken.googleapis.com/v1"

	// Margen antes del exp real para considerar un token vencido.
	tokenSkew = 60 * time.Second
)

// Config configura el cliente.
type Config struct {
	APIKey       string
	BaseURL      string // identitytoolkit; override para testing
	TokenBaseURL string // securetoken; override para testing
}

// Client implementa identity.Provider con estado de sesión en memoria.
type Client struct {
	apiKey       string
	baseURL      string
	tokenBaseURL string
	http         *http.Client

	mu        sync.RWMutex
	sess      *liveSession
	observers map[int]identity.Observer
	nextObs   int
}

// liveSession es la sesión viva del proveedor.
type liveSession struct {
	user         *identity.User
	idToken      string
	refreshToken string
	expiresAt    time.Time
}

func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	tokenBase := strings.TrimRight(cfg.TokenBaseURL, "/")
	if tokenBase == "" {
		tokenBase = defaultTokenBaseURL
	}
	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      base,
		tokenBaseURL: tokenBase,
		http:         &http.Client{Timeout: 10 * time.Second},
		observers:    map[int]identity.Observer{},
	}
}

// ---- HTTP plumbing ----

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	u := c.baseURL + "/accounts:" + endpoint + "?key=" + url.QueryEscape(c.apiKey)
	req, _ := http.NewRequestWithContext(ctx, "POST", u, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		var ae apiError
		_ = json.NewDecoder(resp.Body).Decode(&ae)
		return mapAPIError(resp.StatusCode, ae.Error.Message)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// mapAPIError traduce mensajes del identitytoolkit a identity.Error.
func mapAPIError(status int, msg string) error {
	code := identity.CodeInvalidCredentials
	switch {
	case strings.HasPrefix(msg, "EMAIL_EXISTS"):
		code = identity.CodeEmailInUse
	case strings.HasPrefix(msg, "USER_DISABLED"):
		code = identity.CodeUserDisabled
	case strings.HasPrefix(msg, "EMAIL_NOT_FOUND"),
		strings.HasPrefix(msg, "INVALID_PASSWORD"),
		strings.HasPrefix(msg, "INVALID_LOGIN_CREDENTIALS"):
		code = identity.CodeInvalidCredentials
	default:
		if msg == "" {
			msg = fmt.Sprintf("identitytoolkit http %d", status)
		}
	}
	return &identity.Error{Code: code, Message: msg}
}

// ---- Wire types ----

type signInResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoUrl"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	ExpiresIn     string `json:"expiresIn"`
	EmailVerified bool   `json:"emailVerified"`

	// Solo en signInWithIdp
	ProviderID       string `json:"providerId"`
	OAuthAccessToken string `json:"oauthAccessToken"`
	OAuthIDToken     string `json:"oauthIdToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID          string                     `json:"localId"`
		Email            string                     `json:"email"`
		DisplayName      string                     `json:"displayName"`
		PhotoURL         string                     `json:"photoUrl"`
		EmailVerified    bool                       `json:"emailVerified"`
		ProviderUserInfo []identity.ProviderProfile `json:"providerUserInfo"`
	} `json:"users"`
}

// ---- identity.Provider ----

func (c *Client) Register(ctx context.Context, email, password string) (*identity.User, error) {
	var out signInResponse
	in := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	if err := c.post(ctx, "signUp", in, &out); err != nil {
		return nil, err
	}
	return c.adopt(ctx, &out)
}

func (c *Client) SignInPassword(ctx context.Context, email, password string) (*identity.User, error) {
	var out signInResponse
	in := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	if err := c.post(ctx, "signInWithPassword", in, &out); err != nil {
		return nil, err
	}
	return c.adopt(ctx, &out)
}

func (c *Client) SignInIDP(ctx context.Context, cred *identity.Credential) (*identity.PopupResult, error) {
	postBody := "providerId=" + cred.ProviderID
	if cred.IDToken != "" {
		postBody += "&id_token=" + cred.IDToken
	}
	if cred.AccessToken != "" {
		postBody += "&access_token=" + cred.AccessToken
	}
	var out signInResponse
	in := map[string]any{
		"postBody":            postBody,
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}
	if err := c.post(ctx, "signInWithIdp", in, &out); err != nil {
		return nil, err
	}
	user, err := c.adopt(ctx, &out)
	if err != nil {
		return nil, err
	}
	providerID := out.ProviderID
	if providerID == "" {
		providerID = cred.ProviderID
	}
	return &identity.PopupResult{
		User: user,
		Credential: &identity.Credential{
			ProviderID:  providerID,
			AccessToken: out.OAuthAccessToken,
			IDToken:     out.OAuthIDToken,
		},
	}, nil
}

// adopt instala la sesión devuelta por un endpoint de login y completa el
// usuario con un lookup (el signIn* no trae los providerUserInfo).
func (c *Client) adopt(ctx context.Context, r *signInResponse) (*identity.User, error) {
	ttl, _ := strconv.Atoi(r.ExpiresIn)
	if ttl <= 0 {
		ttl = 3600
	}
	sess := &liveSession{
		idToken:      r.IDToken,
		refreshToken: r.RefreshToken,
		expiresAt:    time.Now().Add(time.Duration(ttl) * time.Second),
	}

	user := &identity.User{
		UID:           r.LocalID,
		Email:         r.Email,
		DisplayName:   r.DisplayName,
		PhotoURL:      r.PhotoURL,
		EmailVerified: r.EmailVerified,
	}
	if full, err := c.lookup(ctx, r.IDToken); err == nil {
		user = full
	}
	sess.user = user

	c.mu.Lock()
	c.sess = sess
	obs := c.snapshotObservers()
	c.mu.Unlock()

	notify(obs, user)
	return user, nil
}

func (c *Client) lookup(ctx context.Context, idToken string) (*identity.User, error) {
	var out lookupResponse
	if err := c.post(ctx, "lookup", map[string]any{"idToken": idToken}, &out); err != nil {
		return nil, err
	}
	if len(out.Users) == 0 {
		return nil, &identity.Error{Code: identity.CodeNoCurrentUser, Message: "lookup returned no users"}
	}
	u := out.Users[0]
	return &identity.User{
		UID:           u.LocalID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		PhotoURL:      u.PhotoURL,
		EmailVerified: u.EmailVerified,
		ProviderData:  u.ProviderUserInfo,
	}, nil
}

func (c *Client) SignOut(_ context.Context) error {
	c.mu.Lock()
	had := c.sess != nil
	c.sess = nil
	obs := c.snapshotObservers()
	c.mu.Unlock()
	if had {
		notify(obs, nil)
	}
	return nil
}

func (c *Client) Observe(fn identity.Observer) (cancel func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	var cur *identity.User
	if c.sess != nil {
		cur = c.sess.user
	}
	c.mu.Unlock()

	// Primer disparo inmediato con el estado actual.
	fn(cur)

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Client) Token(ctx context.Context, forceRefresh bool) (string, error) {
	c.mu.RLock()
	sess := c.sess
	c.mu.RUnlock()
	if sess == nil {
		return "", &identity.Error{Code: identity.CodeNoCurrentUser, Message: "no live session"}
	}
	if !forceRefresh && time.Until(sess.expiresAt) > tokenSkew {
		return sess.idToken, nil
	}
	return c.refresh(ctx, sess)
}

// refresh canjea el refresh token en securetoken y actualiza la sesión viva.
func (c *Client) refresh(ctx context.Context, sess *liveSession) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", sess.refreshToken)

	u := c.tokenBaseURL + "/token?key=" + url.QueryEscape(c.apiKey)
	req, _ := http.NewRequestWithContext(ctx, "POST", u, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		var ae apiError
		_ = json.NewDecoder(resp.Body).Decode(&ae)
		return "", mapAPIError(resp.StatusCode, ae.Error.Message)
	}
	var out struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}

	ttl := tokenTTL(out.IDToken, out.ExpiresIn)

	c.mu.Lock()
	if c.sess == sess {
		c.sess.idToken = out.IDToken
		if out.RefreshToken != "" {
			c.sess.refreshToken = out.RefreshToken
		}
		c.sess.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Unlock()
	return out.IDToken, nil
}

// tokenTTL deriva la vigencia del token: exp del JWT si se puede decodificar
// (sin verificar; la firma es del proveedor), si no el expires_in del body.
func tokenTTL(idToken, expiresIn string) time.Duration {
	if tok, _, err := jwtv5.NewParser().ParseUnverified(idToken, jwtv5.MapClaims{}); err == nil {
		if exp, err := tok.Claims.GetExpirationTime(); err == nil && exp != nil {
			if d := time.Until(exp.Time); d > 0 {
				return d
			}
		}
	}
	if s, err := strconv.Atoi(expiresIn); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	return time.Hour
}

func (c *Client) UpdateProfile(ctx context.Context, up identity.ProfileUpdate) error {
	c.mu.RLock()
	sess := c.sess
	c.mu.RUnlock()
	if sess == nil {
		return &identity.Error{Code: identity.CodeNoCurrentUser, Message: "no live session"}
	}
	in := map[string]any{"idToken": sess.idToken, "returnSecureToken": false}
	if up.DisplayName != nil {
		in["displayName"] = *up.DisplayName
	}
	if up.PhotoURL != nil {
		in["photoUrl"] = *up.PhotoURL
	}
	if err := c.post(ctx, "update", in, nil); err != nil {
		return err
	}

	c.mu.Lock()
	if c.sess == sess && sess.user != nil {
		u := *sess.user
		if up.DisplayName != nil {
			u.DisplayName = *up.DisplayName
		}
		if up.PhotoURL != nil {
			u.PhotoURL = *up.PhotoURL
		}
		sess.user = &u
	}
	c.mu.Unlock()
	return nil
}

func (c *Client) SendVerificationEmail(ctx context.Context) error {
	c.mu.RLock()
	sess := c.sess
	c.mu.RUnlock()
	if sess == nil {
		return &identity.Error{Code: identity.CodeNoCurrentUser, Message: "no live session"}
	}
	in := map[string]any{"requestType": "VERIFY_EMAIL", "idToken": sess.idToken}
	return c.post(ctx, "sendOobCode", in, nil)
}

func (c *Client) Reload(ctx context.Context) (*identity.User, error) {
	c.mu.RLock()
	sess := c.sess
	c.mu.RUnlock()
	if sess == nil {
		return nil, &identity.Error{Code: identity.CodeNoCurrentUser, Message: "no live session"}
	}
	user, err := c.lookup(ctx, sess.idToken)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	var obs []identity.Observer
	if c.sess == sess {
		sess.user = user
		obs = c.snapshotObservers()
	}
	c.mu.Unlock()

	notify(obs, user)
	return user, nil
}

func (c *Client) CurrentUser() *identity.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sess == nil {
		return nil
	}
	return c.sess.user
}

// snapshotObservers copia la lista bajo lock para notificar fuera de él.
func (c *Client) snapshotObservers() []identity.Observer {
	out := make([]identity.Observer, 0, len(c.observers))
	for _, fn := range c.observers {
		out = append(out, fn)
	}
	return out
}

func notify(obs []identity.Observer, u *identity.User) {
	for _, fn := range obs {
		fn(u)
	}
}
