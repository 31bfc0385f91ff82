package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roosthq.org/internal/session"
)

func newSessionStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func writeSession(t *testing.T, w http.ResponseWriter, token string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"token":      token,
		"expires_at": "2026-09-29T00:00:00Z",
		"user": map[string]string{
			"id": "u1", "name": "Asel", "email": "asel@example.com", "role": "user",
		},
	})
	assert.NoError(t, err)
}

func writeItems(t *testing.T, w http.ResponseWriter, ids ...string) {
	t.Helper()
	items := make([]Listing, 0, len(ids))
	for _, id := range ids {
		items = append(items, Listing{ID: id, Title: "room " + id, City: "Almaty"})
	}
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(map[string]any{"items": items}))
}

func TestLoginPersistsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/auth/login", r.URL.Path)
		writeSession(t, w, "tok-1")
	}))
	defer srv.Close()

	store := newSessionStore(t)
	c := New(srv.URL, store)

	sess, err := c.Login(t.Context(), "asel@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", sess.Token)
	assert.Equal(t, "u1", sess.User.ID)

	stored, ok := store.Read()
	require.True(t, ok)
	assert.Equal(t, "tok-1", stored.Token)
}

func TestLoginFailureReportsServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "invalid email or password", "request_id": "req-9",
		})
	}))
	defer srv.Close()

	store := newSessionStore(t)
	c := New(srv.URL, store)

	_, err := c.Login(t.Context(), "asel@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid email or password", apiErr.Message)
	assert.Equal(t, "req-9", apiErr.RequestID)

	_, ok := store.Read()
	assert.False(t, ok)
}

func TestUnreachableServerIsDistinctError(t *testing.T) {
	store := newSessionStore(t)
	c := New("http://127.0.0.1:1", store)

	_, err := c.Listings(t.Context(), "")
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestWishlistCallsAttachBearerToken(t *testing.T) {
	var seenAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		writeItems(t, w, "l1")
	}))
	defer srv.Close()

	store := newSessionStore(t)
	require.NoError(t, store.Save("tok-7", session.User{ID: "u1"}))
	c := New(srv.URL, store)

	items, err := c.Wishlist(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-7", seenAuth)
	require.Len(t, items, 1)
	assert.Equal(t, "l1", items[0].ID)
}

func TestWishlistWithoutSessionFailsLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer srv.Close()

	c := New(srv.URL, newSessionStore(t))
	_, err := c.Wishlist(t.Context())
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRejectedSessionClearsAndRecordsIntent(t *testing.T) {
	authorized := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/login":
			authorized = true
			writeSession(t, w, "tok-fresh")
		case "/v1/wishlist":
			if !authorized {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeItems(t, w, "l1")
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store := newSessionStore(t)
	require.NoError(t, store.Save("tok-stale", session.User{ID: "u1"}))
	c := New(srv.URL, store)

	_, err := c.AddToWishlist(t.Context(), "l1")
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, ok := store.Read()
	assert.False(t, ok, "rejected session must be cleared")

	intent := c.PendingIntent()
	require.NotNil(t, intent)
	assert.Equal(t, "add", intent.Op)
	assert.Equal(t, "l1", intent.ListingID)

	_, err = c.Login(t.Context(), "asel@example.com", "secret1")
	require.NoError(t, err)

	items, err := c.ResumePending(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "l1", items[0].ID)
	assert.Nil(t, c.PendingIntent())
}

func TestStaleResponseDoesNotClobberNewerState(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstStarted)
			<-releaseFirst
			writeItems(t, w, "l1")
			return
		}
		writeItems(t, w, "l1", "l2")
	}))
	defer srv.Close()

	store := newSessionStore(t)
	require.NoError(t, store.Save("tok-1", session.User{ID: "u1"}))
	c := New(srv.URL, store)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.AddToWishlist(t.Context(), "l1")
	}()
	<-firstStarted

	newer, err := c.AddToWishlist(t.Context(), "l2")
	require.NoError(t, err)
	require.Len(t, newer, 2)

	close(releaseFirst)
	wg.Wait()

	cached := c.CachedWishlist()
	require.Len(t, cached, 2, "older response must not replace newer state")
	assert.Equal(t, "l2", cached[1].ID)
}

func TestLogoutClearsSession(t *testing.T) {
	store := newSessionStore(t)
	require.NoError(t, store.Save("tok-1", session.User{ID: "u1"}))

	c := New("http://unused", store)
	require.NoError(t, c.Logout())

	_, ok := store.Read()
	assert.False(t, ok)
}
