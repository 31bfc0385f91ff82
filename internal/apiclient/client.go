// Package apiclient is the Go client for the Roost REST API. It owns the
// client side of the session contract: successful logins are persisted via
// the session store, bearer tokens ride on every authenticated call, a 401
// clears the session and records the interrupted call as a resume intent,
// and responses that lost a race to a newer call never clobber newer state.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"roosthq.org/internal/session"
)

var (
	// ErrUnreachable wraps transport-level failures so callers can present
	// a "cannot reach server" message distinct from HTTP errors.
	ErrUnreachable = errors.New("apiclient: cannot reach server")
	// ErrUnauthenticated is returned when the server rejected the session.
	// The local session has already been cleared when this is returned.
	ErrUnauthenticated = errors.New("apiclient: authentication required")
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apiclient: server returned %d: %s", e.Status, e.Message)
}

// Listing is the client-side listing snapshot.
type Listing struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	City       string   `json:"city"`
	RentAmount int64    `json:"rent_amount"`
	Amenities  []string `json:"amenities,omitempty"`
	PhotoURL   string   `json:"photo_url,omitempty"`
}

// Intent is an interrupted wishlist mutation to replay after the user
// re-authenticates.
type Intent struct {
	Op        string // "add" or "remove"
	ListingID string
}

// Client talks to one Roost API server.
type Client struct {
	base     string
	http     *http.Client
	sessions *session.Store

	mu       sync.Mutex
	seq      uint64 // issued wishlist-call sequence numbers
	applied  uint64 // newest sequence whose result was applied
	wishlist []Listing
	pending  *Intent
}

// Option configures Client behavior.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport (useful for tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New constructs a Client against the given base URL.
func New(base string, sessions *session.Store, opts ...Option) *Client {
	c := &Client{
		base:     base,
		http:     &http.Client{Timeout: 15 * time.Second},
		sessions: sessions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sessionResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	User      struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Role     string `json:"role"`
		PhotoURL string `json:"photo_url"`
	} `json:"user"`
}

type wishlistResponse struct {
	Items []Listing `json:"items"`
}

type listingsResponse struct {
	Items []Listing `json:"items"`
}

// Register creates an account and persists the resulting session.
func (c *Client) Register(ctx context.Context, name, email, password string) (*session.Session, error) {
	return c.authenticate(ctx, "/v1/auth/register", map[string]string{
		"name": name, "email": email, "password": password,
	})
}

// Login authenticates and persists the resulting session.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	return c.authenticate(ctx, "/v1/auth/login", map[string]string{
		"email": email, "password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) (*session.Session, error) {
	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, path, body, false, &resp); err != nil {
		return nil, err
	}
	user := session.User{
		ID:       resp.User.ID,
		Name:     resp.User.Name,
		Email:    resp.User.Email,
		Role:     resp.User.Role,
		PhotoURL: resp.User.PhotoURL,
	}
	if err := c.sessions.Save(resp.Token, user); err != nil {
		return nil, err
	}
	sess, _ := c.sessions.Read()
	return sess, nil
}

// Logout clears the local session. There is no server-side revocation; the
// token stays valid until it expires.
func (c *Client) Logout() error {
	return c.sessions.Clear()
}

// Listings fetches the public listing feed, optionally filtered by city.
func (c *Client) Listings(ctx context.Context, city string) ([]Listing, error) {
	path := "/v1/listings"
	if city != "" {
		path += "?city=" + url.QueryEscape(city)
	}
	var resp listingsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, false, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Wishlist fetches the subject's wishlist.
func (c *Client) Wishlist(ctx context.Context) ([]Listing, error) {
	seq := c.nextSeq()
	var resp wishlistResponse
	if err := c.do(ctx, http.MethodGet, "/v1/wishlist", nil, true, &resp); err != nil {
		return nil, err
	}
	return c.applyWishlist(seq, resp.Items), nil
}

// AddToWishlist adds a listing and returns the wishlist state the client
// currently knows. If the session was rejected, the add is recorded as a
// resume intent for after re-authentication.
func (c *Client) AddToWishlist(ctx context.Context, listingID string) ([]Listing, error) {
	seq := c.nextSeq()
	var resp wishlistResponse
	err := c.do(ctx, http.MethodPost, "/v1/wishlist", map[string]string{"listing_id": listingID}, true, &resp)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			c.setPending(&Intent{Op: "add", ListingID: listingID})
		}
		return nil, err
	}
	return c.applyWishlist(seq, resp.Items), nil
}

// RemoveFromWishlist removes a listing, with the same 401 behavior as add.
func (c *Client) RemoveFromWishlist(ctx context.Context, listingID string) ([]Listing, error) {
	seq := c.nextSeq()
	var resp wishlistResponse
	err := c.do(ctx, http.MethodDelete, "/v1/wishlist/"+listingID, nil, true, &resp)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			c.setPending(&Intent{Op: "remove", ListingID: listingID})
		}
		return nil, err
	}
	return c.applyWishlist(seq, resp.Items), nil
}

// PendingIntent returns the interrupted mutation, if any.
func (c *Client) PendingIntent() *Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	cp := *c.pending
	return &cp
}

// ResumePending replays the interrupted mutation after re-authentication.
// It is a no-op when nothing is pending.
func (c *Client) ResumePending(ctx context.Context) ([]Listing, error) {
	c.mu.Lock()
	intent := c.pending
	c.pending = nil
	c.mu.Unlock()
	if intent == nil {
		return c.CachedWishlist(), nil
	}
	switch intent.Op {
	case "add":
		return c.AddToWishlist(ctx, intent.ListingID)
	case "remove":
		return c.RemoveFromWishlist(ctx, intent.ListingID)
	default:
		return nil, fmt.Errorf("apiclient: unknown pending op %q", intent.Op)
	}
}

// CachedWishlist returns the newest wishlist state any completed call
// produced.
func (c *Client) CachedWishlist() []Listing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Listing(nil), c.wishlist...)
}

func (c *Client) nextSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// applyWishlist installs the response state unless a newer call already
// completed; a superseded response is discarded and the newer state wins.
func (c *Client) applyWishlist(seq uint64, items []Listing) []Listing {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq > c.applied {
		c.applied = seq
		c.wishlist = append([]Listing(nil), items...)
	}
	return append([]Listing(nil), c.wishlist...)
}

func (c *Client) setPending(intent *Intent) {
	c.mu.Lock()
	c.pending = intent
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, body any, authed bool, dst any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		sess, ok := c.sessions.Read()
		if !ok {
			return ErrUnauthenticated
		}
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && authed {
		// The session is no longer honored; drop it so the UI can route to
		// login. The caller records any resume intent.
		_ = c.sessions.Clear()
		return ErrUnauthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errBody struct {
			Error     string `json:"error"`
			RequestID string `json:"request_id"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
			apiErr.RequestID = errBody.RequestID
		}
		return apiErr
	}
	if dst == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
