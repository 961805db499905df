package theme

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seumatch/seumatch/internal/cache"
)

func newStore(t *testing.T, fallback Theme) *Store {
	t.Helper()
	return NewStore(cache.NewMemory("", 0), fallback)
}

func TestStore_CurrentFallsBack(t *testing.T) {
	s := newStore(t, Dark)
	assert.Equal(t, Dark, s.Current(context.Background()))
}

func TestStore_SetAndCurrent(t *testing.T) {
	s := newStore(t, Light)
	ctx := context.Background()

	got, err := s.Set(ctx, Dark)
	require.NoError(t, err)
	assert.Equal(t, Dark, got)
	assert.Equal(t, Dark, s.Current(ctx))
}

func TestStore_SetInvalidUsesFallback(t *testing.T) {
	s := newStore(t, Light)
	got, err := s.Set(context.Background(), Theme("neon"))
	require.NoError(t, err)
	assert.Equal(t, Light, got)
}

func TestStore_CorruptValueFallsBack(t *testing.T) {
	c := cache.NewMemory("", 0)
	require.NoError(t, c.Set(context.Background(), "theme", "garbage", 0))
	s := NewStore(c, Light)
	assert.Equal(t, Light, s.Current(context.Background()))
}

func TestStore_Toggle(t *testing.T) {
	s := newStore(t, Light)
	ctx := context.Background()

	got, err := s.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, Dark, got)

	got, err = s.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, Light, got)
}

func TestNewStore_InvalidFallback(t *testing.T) {
	s := NewStore(cache.NewMemory("", 0), Theme("mauve"))
	assert.Equal(t, Light, s.Current(context.Background()))
}

func TestCookieRoundTrip(t *testing.T) {
	ck := Cookie("seumatch_theme", Dark, true)
	assert.Equal(t, "dark", ck.Value)
	assert.True(t, ck.Secure)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(ck)
	assert.Equal(t, Dark, FromCookie(r, "seumatch_theme", Light))
}

func TestFromCookie_MissingOrInvalid(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, Dark, FromCookie(r, "seumatch_theme", Dark))

	r.AddCookie(&http.Cookie{Name: "seumatch_theme", Value: "neon"})
	assert.Equal(t, Dark, FromCookie(r, "seumatch_theme", Dark))

	// Fallback inválido degrada a light.
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, Light, FromCookie(r2, "seumatch_theme", Theme("neon")))
}
