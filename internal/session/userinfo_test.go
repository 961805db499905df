package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seumatch/seumatch/internal/identity"
)

func newUserinfoServer(t *testing.T, status int, email string) *UserinfoClient {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"email": email})
	}))
	t.Cleanup(srv.Close)
	c := NewUserinfoClient(time.Second)
	c.URL = srv.URL
	return c
}

func TestUserinfoClient_Email(t *testing.T) {
	c := newUserinfoServer(t, http.StatusOK, " m@seu.edu.bd ")

	email, err := c.Email(context.Background(), "at-1")
	require.NoError(t, err)
	assert.Equal(t, "m@seu.edu.bd", email)
}

func TestUserinfoClient_HTTPError(t *testing.T) {
	c := newUserinfoServer(t, http.StatusUnauthorized, "")

	_, err := c.Email(context.Background(), "at-1")
	require.Error(t, err)
}

func TestManager_PopupFallsBackToUserinfo(t *testing.T) {
	p := newFakeProvider()
	p.idpResult = &identity.PopupResult{
		// Objeto crudo sin email por ninguna vía directa.
		User: &identity.User{UID: "u20"},
		Credential: &identity.Credential{
			ProviderID:  identity.GoogleProviderID,
			AccessToken: "at-1",
		},
	}
	ui := newUserinfoServer(t, http.StatusOK, "n@seu.edu.bd")
	m := newTestManager(t, p, Options{Userinfo: ui})

	sess, err := m.SignInSocialPopup(context.Background(), &identity.Credential{ProviderID: identity.GoogleProviderID})
	require.NoError(t, err)
	assert.Equal(t, "n@seu.edu.bd", sess.Email)
	assert.Equal(t, "u20", sess.UID)
}

func TestManager_UserinfoFailureFallsThroughToWait(t *testing.T) {
	p := newFakeProvider()
	p.idpResult = &identity.PopupResult{
		User: &identity.User{UID: "u21"},
		Credential: &identity.Credential{
			ProviderID:  identity.GoogleProviderID,
			AccessToken: "at-1",
		},
	}
	ui := newUserinfoServer(t, http.StatusForbidden, "")
	m := newTestManager(t, p, Options{Userinfo: ui, ResolveWait: 60 * time.Millisecond})

	_, err := m.SignInSocialPopup(context.Background(), &identity.Credential{ProviderID: identity.GoogleProviderID})
	assert.ErrorIs(t, err, ErrNoEmailResolved)
	assert.Equal(t, StateUnauthenticated, m.State())
}
