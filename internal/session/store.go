// Package session holds the client's authenticated session across two
// storage scopes: an ephemeral in-process scope and a durable file scope.
//
// Reads prefer the ephemeral scope and fall back to the durable one, so the
// two may transiently disagree without affecting what callers observe. Every
// Save and Clear is broadcast to subscribers; a best-effort watch on the
// durable file feeds the same subscribers when another process touches it.
// Listeners may therefore be invoked more than once for one logical change
// and must be idempotent.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Canonical key names inside the durable scope. Using one canonical name per
// scope is part of the contract; anything else is a legacy key.
const (
	keyToken = "token"
	keyUser  = "user"
)

// legacyKeys were written by older clients. They are purged on Clear so a
// stale key cannot resurrect a logged-out session.
var legacyKeys = []string{"jwt", "authToken", "currentUser", "user_info"}

// User is the client-side snapshot persisted next to the token.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	PhotoURL string `json:"profilePhoto,omitempty"`
}

// Session is the token/user pair. A nil *Session means unauthenticated.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Listener receives the current session after a change. The argument is nil
// after Clear.
type Listener func(*Session)

// Store is the single authoritative owner of client session state.
type Store struct {
	mu        sync.Mutex
	path      string
	mem       *Session // ephemeral scope
	listeners map[int]Listener
	nextID    int

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore creates a store whose durable scope lives at path. The parent
// directory is created if needed.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("session: durable path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return &Store{
		path:      path,
		listeners: make(map[int]Listener),
	}, nil
}

// Save writes the pair into both scopes and broadcasts the change.
func (s *Store) Save(token string, user User) error {
	if token == "" {
		return errors.New("session: token is required")
	}
	sess := &Session{Token: token, User: user}

	s.mu.Lock()
	s.mem = sess
	err := s.writeDurable(sess)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.broadcast()
	return nil
}

// Read returns the current session: ephemeral scope first, then durable.
// The second return is false when neither scope holds a token.
func (s *Store) Read() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *Store) readLocked() (*Session, bool) {
	if s.mem != nil && s.mem.Token != "" {
		cp := *s.mem
		return &cp, true
	}
	sess, err := s.readDurable()
	if err != nil || sess == nil || sess.Token == "" {
		return nil, false
	}
	return sess, true
}

// Clear removes the pair from both scopes, including any legacy keys, and
// broadcasts the change.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.mem = nil
	err := s.purgeDurable()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.broadcast()
	return nil
}

// OnChange subscribes to session changes. The returned function cancels the
// subscription.
func (s *Store) OnChange(fn Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Watch starts the best-effort durable-scope watch. Changes made by another
// process are delivered to the same listeners as explicit Save/Clear calls,
// which is why listeners must tolerate duplicates.
func (s *Store) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return err
	}
	s.watcher = w
	s.done = make(chan struct{})

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name != s.path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					s.broadcast()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
				// Watch errors degrade the secondary channel only.
			case <-s.done:
				return
			}
		}
	}()
	return nil
}

// Close stops the durable-scope watch.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.watcher = nil
	return err
}

func (s *Store) broadcast() {
	s.mu.Lock()
	sess, _ := s.readLocked()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(sess)
	}
}

// Durable scope -------------------------------------------------------------
//
// The file is a flat JSON object so legacy keys can be detected and purged.

func (s *Store) writeDurable(sess *Session) error {
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	payload := map[string]json.RawMessage{
		keyToken: mustJSON(sess.Token),
		keyUser:  userJSON,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) readDurable() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	var sess Session
	if raw, ok := payload[keyToken]; ok {
		_ = json.Unmarshal(raw, &sess.Token)
	}
	if raw, ok := payload[keyUser]; ok {
		_ = json.Unmarshal(raw, &sess.User)
	}
	if sess.Token == "" {
		return nil, nil
	}
	return &sess, nil
}

func (s *Store) purgeDurable() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		// Corrupt durable scope: drop it wholesale.
		return os.Remove(s.path)
	}
	delete(payload, keyToken)
	delete(payload, keyUser)
	for _, k := range legacyKeys {
		delete(payload, k)
	}
	if len(payload) == 0 {
		return os.Remove(s.path)
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, out, 0o600)
}

func mustJSON(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
