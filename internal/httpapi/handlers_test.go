package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"roosthq.org/internal/account"
	"roosthq.org/internal/listing"
	"roosthq.org/internal/token"
	"roosthq.org/internal/wishlist"
)

func newTestAPI(t *testing.T, publicListingWrites bool) (*API, *token.Codec) {
	t.Helper()
	codec, err := token.New("test-secret")
	if err != nil {
		t.Fatalf("token.New: %v", err)
	}
	listings := listing.NewService(listing.NewInMemory())
	api := New(Options{
		Codec:               codec,
		Accounts:            account.NewService(account.NewInMemory(), codec),
		Listings:            listings,
		Wishlists:           wishlist.NewService(wishlist.NewInMemory(), listings),
		Version:             "test",
		PublicListingWrites: publicListingWrites,
	})
	return api, codec
}

func doJSON(t *testing.T, api *API, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	api.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func registerUser(t *testing.T, api *API, email string) account.Session {
	t.Helper()
	rr := doJSON(t, api, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name": "Test User", "email": email, "password": "secret1",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var sess account.Session
	decodeBody(t, rr, &sess)
	return sess
}

func adminToken(t *testing.T, codec *token.Codec) string {
	t.Helper()
	signed, _, err := codec.Issue("admin-1", "admin@roost.test", "admin")
	if err != nil {
		t.Fatalf("Issue admin token: %v", err)
	}
	return signed
}

func createListing(t *testing.T, api *API, bearer, title string) listing.Listing {
	t.Helper()
	rr := doJSON(t, api, http.MethodPost, "/v1/listings", bearer, map[string]any{
		"title": title, "city": "Pune", "rent_amount": 850000,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create listing: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var l listing.Listing
	decodeBody(t, rr, &l)
	return l
}

func TestRegisterLoginFlow(t *testing.T) {
	api, _ := newTestAPI(t, false)

	sess := registerUser(t, api, "A@X.com")
	if sess.Token == "" || sess.User.ID == "" {
		t.Fatalf("register returned incomplete session: %+v", sess)
	}
	if sess.User.Email != "a@x.com" {
		t.Fatalf("email not normalized: %s", sess.User.Email)
	}

	// Duplicate normalized email.
	rr := doJSON(t, api, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name": "B", "email": "  a@x.COM ", "password": "secret2",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d", rr.Code)
	}

	// Case-insensitive login.
	rr = doJSON(t, api, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "secret1",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	api, _ := newTestAPI(t, false)
	registerUser(t, api, "a@x.com")

	unknown := doJSON(t, api, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "nobody@x.com", "password": "secret1",
	})
	wrong := doJSON(t, api, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "bad-password",
	})

	if unknown.Code != http.StatusUnauthorized || wrong.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", unknown.Code, wrong.Code)
	}
	var a, b map[string]any
	decodeBody(t, unknown, &a)
	decodeBody(t, wrong, &b)
	if a["error"] != b["error"] {
		t.Fatalf("login failures leak which field was wrong: %v vs %v", a["error"], b["error"])
	}
}

func TestWishlistFlow(t *testing.T) {
	api, codec := newTestAPI(t, false)
	admin := adminToken(t, codec)
	l := createListing(t, api, admin, "Sunrise PG")
	sess := registerUser(t, api, "a@x.com")

	// Unauthenticated access is rejected.
	if rr := doJSON(t, api, http.MethodGet, "/v1/wishlist", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	add := func() *httptest.ResponseRecorder {
		return doJSON(t, api, http.MethodPost, "/v1/wishlist", sess.Token, map[string]string{"listing_id": l.ID})
	}

	rr := add()
	if rr.Code != http.StatusOK {
		t.Fatalf("add: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	// Second add is a successful no-op.
	rr = add()
	if rr.Code != http.StatusOK {
		t.Fatalf("repeat add: expected 200, got %d", rr.Code)
	}
	var resp wishlistResponse
	decodeBody(t, rr, &resp)
	if len(resp.Items) != 1 || resp.Items[0].ID != l.ID {
		t.Fatalf("expected exactly one occurrence, got %+v", resp.Items)
	}

	// Unknown listing leaves the wishlist unchanged.
	rr = doJSON(t, api, http.MethodPost, "/v1/wishlist", sess.Token, map[string]string{"listing_id": "L1-missing"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown listing: expected 404, got %d", rr.Code)
	}
	rr = doJSON(t, api, http.MethodGet, "/v1/wishlist", sess.Token, nil)
	decodeBody(t, rr, &resp)
	if len(resp.Items) != 1 {
		t.Fatalf("wishlist changed by failed add: %+v", resp.Items)
	}

	// Remove, then removing again reports not found.
	rr = doJSON(t, api, http.MethodDelete, "/v1/wishlist/"+l.ID, sess.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", rr.Code)
	}
	decodeBody(t, rr, &resp)
	if len(resp.Items) != 0 {
		t.Fatalf("expected empty wishlist, got %+v", resp.Items)
	}
	rr = doJSON(t, api, http.MethodDelete, "/v1/wishlist/"+l.ID, sess.Token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second remove: expected 404, got %d", rr.Code)
	}
}

func TestUserRoutesAreOwnerOnly(t *testing.T) {
	api, _ := newTestAPI(t, false)
	alice := registerUser(t, api, "alice@x.com")
	bob := registerUser(t, api, "bob@x.com")

	rr := doJSON(t, api, http.MethodGet, "/v1/users/"+alice.User.ID, alice.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("own profile: expected 200, got %d", rr.Code)
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rr = doJSON(t, api, method, "/v1/users/"+alice.User.ID, bob.Token, nil)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("%s other profile: expected 403, got %d", method, rr.Code)
		}
	}

	rr = doJSON(t, api, http.MethodPut, "/v1/users/"+alice.User.ID, alice.Token, map[string]string{"name": "Alice Renamed"})
	if rr.Code != http.StatusOK {
		t.Fatalf("update own profile: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var updated account.User
	decodeBody(t, rr, &updated)
	if updated.Name != "Alice Renamed" {
		t.Fatalf("profile not updated: %+v", updated)
	}
}

func TestListingWritesProtectedByDefault(t *testing.T) {
	api, codec := newTestAPI(t, false)

	// Anonymous and plain-user writes are rejected.
	rr := doJSON(t, api, http.MethodPost, "/v1/listings", "", map[string]any{"title": "X", "city": "Pune"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: expected 401, got %d", rr.Code)
	}
	sess := registerUser(t, api, "a@x.com")
	rr = doJSON(t, api, http.MethodPost, "/v1/listings", sess.Token, map[string]any{"title": "X", "city": "Pune"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("user create: expected 403, got %d", rr.Code)
	}

	// Admin writes and public reads work.
	l := createListing(t, api, adminToken(t, codec), "Sunrise PG")
	rr = doJSON(t, api, http.MethodGet, "/v1/listings/"+l.ID, "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("public read: expected 200, got %d", rr.Code)
	}
	rr = doJSON(t, api, http.MethodGet, "/v1/listings?city=pune", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("public list: expected 200, got %d", rr.Code)
	}
	var list listListingsResponse
	decodeBody(t, rr, &list)
	if len(list.Items) != 1 {
		t.Fatalf("city filter: expected 1 item, got %d", len(list.Items))
	}
}

func TestListingWritesPublicToggle(t *testing.T) {
	api, _ := newTestAPI(t, true)
	rr := doJSON(t, api, http.MethodPost, "/v1/listings", "", map[string]any{"title": "X", "city": "Pune"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("public-writes toggle: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestChangePasswordEndpoint(t *testing.T) {
	api, _ := newTestAPI(t, false)
	sess := registerUser(t, api, "a@x.com")

	rr := doJSON(t, api, http.MethodPut, "/v1/auth/change-password", sess.Token, map[string]string{
		"old_password": "wrong", "new_password": "newsecret",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong old password: expected 401, got %d", rr.Code)
	}

	rr = doJSON(t, api, http.MethodPut, "/v1/auth/change-password", sess.Token, map[string]string{
		"old_password": "secret1", "new_password": "newsecret",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("change password: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, api, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "newsecret",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login with new password: expected 200, got %d", rr.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	api, _ := newTestAPI(t, false)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, api, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
	}
}

func TestErrorBodiesCarryRequestID(t *testing.T) {
	api, _ := newTestAPI(t, false)
	rr := doJSON(t, api, http.MethodGet, "/v1/wishlist", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var body map[string]any
	decodeBody(t, rr, &body)
	if body["request_id"] == "" || body["request_id"] == nil {
		t.Fatalf("expected request_id in error body, got %s", rr.Body.String())
	}
	if fmt.Sprint(body["error"]) == "" {
		t.Fatalf("expected error message in body")
	}
}
