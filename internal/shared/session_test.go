package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "tessera_session", "test-secret", time.Hour, false)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestLoadCreatesNewSession(t *testing.T) {
	sm := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Empty(t, sess.User())
}

func TestCommitAndReload(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)

	sess.SetUser("p-1")
	sess.Set("theme", "dark")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))
	cookie := sessionCookie(t, rec, sm.CookieName())

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	reloaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "p-1", reloaded.User())
	assert.Equal(t, "dark", reloaded.Get("theme"))
}

func TestDestroyClearsSession(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("p-1")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))
	cookie := sessionCookie(t, rec, sm.CookieName())

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	sess, err = sm.Load(ctx, next)
	require.NoError(t, err)
	sm.Destroy(sess)

	rec = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, next, sess))
	expired := sessionCookie(t, rec, sm.CookieName())
	assert.Equal(t, -1, expired.MaxAge)

	fresh := httptest.NewRequest(http.MethodGet, "/", nil)
	fresh.AddCookie(cookie)
	reloaded, err := sm.Load(ctx, fresh)
	require.NoError(t, err)
	assert.Empty(t, reloaded.User())
}

func TestDeleteValue(t *testing.T) {
	sm := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.Set("k", "v")
	sess.Delete("k")
	assert.Empty(t, sess.Get("k"))
}
