package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	m := NewMemory("test", 0)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k1", "v1", 0))
	v, err := m.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	require.NoError(t, m.Delete(ctx, "k1"))
	_, err = m.Get(ctx, "k1")
	assert.True(t, IsNotFound(err))
}

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory("", 0)
	_, err := m.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(context.Canceled))
}

func TestMemory_TTLExpires(t *testing.T) {
	m := NewMemory("", 0)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	_, err := m.Get(ctx, "short")
	assert.True(t, IsNotFound(err))
}

func TestMemory_DeletePrefix(t *testing.T) {
	m := NewMemory("app", 0)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "userdata:a@x:profile", "p", 0))
	require.NoError(t, m.Set(ctx, "userdata:a@x:draft", "d", 0))
	require.NoError(t, m.Set(ctx, "userdata:b@x:profile", "p", 0))
	require.NoError(t, m.Set(ctx, "theme", "dark", 0))

	n, err := m.DeletePrefix(ctx, "userdata:a@x:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = m.Get(ctx, "userdata:a@x:profile")
	assert.True(t, IsNotFound(err))
	v, err := m.Get(ctx, "userdata:b@x:profile")
	require.NoError(t, err)
	assert.Equal(t, "p", v)
	v, err = m.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)
}

func TestNew_DefaultsToMemory(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)
	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.Close())
}

func TestUserData_ClearUserData(t *testing.T) {
	m := NewMemory("", 0)
	ud := NewUserData(m)
	ctx := context.Background()

	require.NoError(t, ud.Set(ctx, "A@SEU.edu.bd", "profile", "cached", 0))
	require.NoError(t, ud.Set(ctx, "a@seu.edu.bd", "draft", "hi", 0))
	require.NoError(t, ud.Set(ctx, "b@seu.edu.bd", "profile", "other", 0))

	// Las keys se normalizan por email en minúsculas.
	v, err := ud.Get(ctx, "a@seu.edu.bd", "profile")
	require.NoError(t, err)
	assert.Equal(t, "cached", v)

	require.NoError(t, ud.ClearUserData(ctx, "a@seu.edu.bd"))
	_, err = ud.Get(ctx, "a@seu.edu.bd", "profile")
	assert.True(t, IsNotFound(err))
	_, err = ud.Get(ctx, "a@seu.edu.bd", "draft")
	assert.True(t, IsNotFound(err))

	// Otros usuarios quedan intactos.
	v, err = ud.Get(ctx, "b@seu.edu.bd", "profile")
	require.NoError(t, err)
	assert.Equal(t, "other", v)
}

func TestUserData_ClearAll(t *testing.T) {
	m := NewMemory("", 0)
	ud := NewUserData(m)
	ctx := context.Background()

	require.NoError(t, ud.Set(ctx, "a@seu.edu.bd", "profile", "x", 0))
	require.NoError(t, ud.Set(ctx, "b@seu.edu.bd", "profile", "y", 0))
	require.NoError(t, m.Set(ctx, "theme", "light", 0))

	require.NoError(t, ud.ClearAll(ctx))
	_, err := ud.Get(ctx, "a@seu.edu.bd", "profile")
	assert.True(t, IsNotFound(err))
	_, err = ud.Get(ctx, "b@seu.edu.bd", "profile")
	assert.True(t, IsNotFound(err))

	// ClearAll solo toca el namespace de datos de usuario.
	v, err := m.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestTabSync_AcquireRelease(t *testing.T) {
	m := NewMemory("", 0)
	ts := NewTabSync(m)
	ctx := context.Background()

	require.NoError(t, ts.Acquire(ctx, time.Minute))
	n, err := m.DeletePrefix(ctx, leasePrefix)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Release es idempotente aunque el lease ya no exista.
	require.NoError(t, ts.Release(ctx))
	require.NoError(t, ts.Release(ctx))
}
