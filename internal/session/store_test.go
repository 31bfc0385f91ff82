package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewStore(path)
	require.NoError(t, err)
	return store, path
}

func TestSaveReadClear(t *testing.T) {
	store, path := newTestStore(t)

	_, ok := store.Read()
	assert.False(t, ok, "fresh store must read as unauthenticated")

	user := User{ID: "u1", Name: "A", Email: "a@x.com", Role: "user"}
	require.NoError(t, store.Save("tok-1", user))

	sess, ok := store.Read()
	require.True(t, ok)
	assert.Equal(t, "tok-1", sess.Token)
	assert.Equal(t, user, sess.User)

	// The durable scope holds the same pair under canonical keys.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Contains(t, payload, "token")
	assert.Contains(t, payload, "user")

	require.NoError(t, store.Clear())
	_, ok = store.Read()
	assert.False(t, ok)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "durable scope should be gone after clear")
}

func TestReadPrefersEphemeralScope(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Save("tok-mem", User{ID: "u1"}))

	// Another writer replaces the durable scope; the ephemeral scope wins.
	require.NoError(t, os.WriteFile(path, []byte(`{"token":"tok-file","user":{"id":"u2"}}`), 0o600))

	sess, ok := store.Read()
	require.True(t, ok)
	assert.Equal(t, "tok-mem", sess.Token)

	// A fresh store over the same file falls back to the durable scope.
	fresh, err := NewStore(path)
	require.NoError(t, err)
	sess, ok = fresh.Read()
	require.True(t, ok)
	assert.Equal(t, "tok-file", sess.Token)
	assert.Equal(t, "u2", sess.User.ID)
}

func TestClearPurgesLegacyKeys(t *testing.T) {
	store, path := newTestStore(t)
	legacy := `{"token":"tok","user":{"id":"u1"},"jwt":"old-token","currentUser":{"id":"stale"}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	require.NoError(t, store.Clear())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "legacy keys must not survive logout")
}

func TestOnChangeBroadcast(t *testing.T) {
	store, _ := newTestStore(t)

	var calls int32
	var last atomic.Value
	cancel := store.OnChange(func(s *Session) {
		atomic.AddInt32(&calls, 1)
		if s != nil {
			last.Store(s.Token)
		} else {
			last.Store("")
		}
	})
	defer cancel()

	require.NoError(t, store.Save("tok-1", User{ID: "u1"}))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "tok-1", last.Load())

	require.NoError(t, store.Clear())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "", last.Load())

	cancel()
	require.NoError(t, store.Save("tok-2", User{ID: "u1"}))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "cancelled listener must not fire")
}

func TestListenersSurviveDuplicateDelivery(t *testing.T) {
	store, _ := newTestStore(t)

	// A listener written the required way: idempotent on replay.
	var state atomic.Value
	state.Store("")
	cancel := store.OnChange(func(s *Session) {
		if s == nil {
			state.Store("")
			return
		}
		state.Store(s.Token)
	})
	defer cancel()

	require.NoError(t, store.Save("tok-1", User{ID: "u1"}))
	// Simulate the secondary delivery channel replaying the same change.
	store.broadcast()
	store.broadcast()
	assert.Equal(t, "tok-1", state.Load())
}

func TestWatchDeliversExternalChanges(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Watch())
	defer store.Close()

	var notified atomic.Int32
	cancel := store.OnChange(func(*Session) { notified.Add(1) })
	defer cancel()

	// Another process writes the durable scope directly.
	require.NoError(t, os.WriteFile(path, []byte(`{"token":"tok-ext","user":{"id":"u9"}}`), 0o600))

	require.Eventually(t, func() bool {
		return notified.Load() > 0
	}, 2*time.Second, 10*time.Millisecond, "expected watch to deliver the external change")

	sess, ok := store.Read()
	require.True(t, ok)
	assert.Equal(t, "tok-ext", sess.Token)
}
