package session_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorhub/creator-hub-api/pkg/session"
)

// fakeAPI emulates the REST API with canned responses and per-path call
// counters, so the tests can assert how often the store talks to it.
type fakeAPI struct {
	server *httptest.Server

	mu       sync.Mutex
	calls    map[string]int
	statuses map[string]int
	bodies   map[string]string
	requests map[string]string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{
		calls:    map[string]int{},
		statuses: map[string]int{},
		bodies:   map[string]string{},
		requests: map[string]string{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls[key]++
	f.requests[key] = string(body)
	status, ok := f.statuses[key]
	response := f.bodies[key]
	f.mu.Unlock()

	if !ok {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if response != "" {
		_, _ = w.Write([]byte(response))
	}
}

func (f *fakeAPI) respond(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[method+" "+path] = status
	f.bodies[method+" "+path] = body
}

func (f *fakeAPI) callCount(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+" "+path]
}

func (f *fakeAPI) lastRequest(method, path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[method+" "+path]
}

// fakeWallet is an injectable WalletProvider for tests.
type fakeWallet struct {
	accounts []string
	chainID  string
	err      error

	mu        sync.Mutex
	callbacks []func([]string)
	unsubbed  bool
}

func (f *fakeWallet) Accounts(ctx context.Context) ([]string, error) {
	return f.accounts, f.err
}

func (f *fakeWallet) ChainID(ctx context.Context) (string, error) {
	return f.chainID, f.err
}

func (f *fakeWallet) OnAccountsChanged(cb func([]string)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, cb)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubbed = true
	}
}

func (f *fakeWallet) fireAccountsChanged(accounts []string) {
	f.mu.Lock()
	callbacks := append([]func([]string){}, f.callbacks...)
	f.mu.Unlock()
	for _, cb := range callbacks {
		cb(accounts)
	}
}

func profileJSON(uid string, extra map[string]any) string {
	profile := map[string]any{
		"uid":                   uid,
		"email":                 "alice@example.com",
		"name":                  "Alice",
		"bio":                   "",
		"avatar_url":            nil,
		"auth_providers_linked": []any{},
		"web3_wallets":          []any{},
	}
	for k, v := range extra {
		profile[k] = v
	}
	encoded, _ := json.Marshal(profile)
	return string(encoded)
}

func authResultJSON(uid string) string {
	return `{"tokens":{"access_token":"access-1","refresh_token":"refresh-1"},"profile":` + profileJSON(uid, nil) + `}`
}

func newStore(t *testing.T, api *fakeAPI, opts ...func(*session.Config)) *session.Store {
	t.Helper()

	cfg := session.Config{BaseURL: api.server.URL}
	for _, opt := range opts {
		opt(&cfg)
	}

	store, err := session.New(cfg)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func withWallet(w session.WalletProvider) func(*session.Config) {
	return func(cfg *session.Config) { cfg.Wallet = w }
}

func withCredentials(c *session.Credentials) func(*session.Config) {
	return func(cfg *session.Config) { cfg.Credentials = c }
}

func idToken(t *testing.T, sub string) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).
		SignedString([]byte("external-provider-secret"))
	require.NoError(t, err)
	return token
}

func TestStore_Resume(t *testing.T) {
	ctx := context.Background()

	t.Run("without credentials lands in anonymous", func(t *testing.T) {
		api := newFakeAPI(t)
		store := newStore(t, api)
		assert.Equal(t, session.StateUnknown, store.State())

		var states []session.State
		store.OnChange(func(s session.State) { states = append(states, s) })

		require.NoError(t, store.Resume(ctx))
		assert.Equal(t, session.StateAnonymous, store.State())
		assert.Equal(t, []session.State{session.StateAnonymous}, states)
	})

	t.Run("valid credentials fetch the aggregate exactly once", func(t *testing.T) {
		api := newFakeAPI(t)
		api.respond(http.MethodGet, "/api/users/uid-1", http.StatusOK, profileJSON("uid-1", nil))
		store := newStore(t, api, withCredentials(&session.Credentials{
			AccessToken: "access-1", RefreshToken: "refresh-1", UserID: "uid-1",
		}))

		var states []session.State
		store.OnChange(func(s session.State) { states = append(states, s) })

		require.NoError(t, store.Resume(ctx))
		assert.Equal(t, session.StateAuthenticated, store.State())
		assert.Equal(t, []session.State{session.StateLoading, session.StateAuthenticated}, states)
		assert.Equal(t, 1, api.callCount(http.MethodGet, "/api/users/uid-1"))

		identity := store.Identity()
		require.NotNil(t, identity)
		assert.Equal(t, "uid-1", identity.UserID)
	})

	t.Run("stale credentials land in anonymous without error", func(t *testing.T) {
		api := newFakeAPI(t)
		api.respond(http.MethodGet, "/api/users/uid-1", http.StatusUnauthorized, `{"error":"unauthorized"}`)
		store := newStore(t, api, withCredentials(&session.Credentials{
			AccessToken: "expired", UserID: "uid-1",
		}))

		require.NoError(t, store.Resume(ctx))
		assert.Equal(t, session.StateAnonymous, store.State())
		assert.Nil(t, store.Identity())
	})
}

func TestStore_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success authenticates with the aggregate from the response", func(t *testing.T) {
		api := newFakeAPI(t)
		api.respond(http.MethodPost, "/api/auth/login", http.StatusOK, authResultJSON("uid-1"))
		store := newStore(t, api)
		require.NoError(t, store.Resume(ctx))

		identity, err := store.Login(ctx, "alice@example.com", "super-secret-pw", true)
		require.NoError(t, err)
		assert.Equal(t, "uid-1", identity.UserID)
		assert.Equal(t, session.StateAuthenticated, store.State())

		// The auth response carries the aggregate; no separate fetch.
		assert.Zero(t, api.callCount(http.MethodGet, "/api/users/uid-1"))

		creds := store.Credentials()
		require.NotNil(t, creds)
		assert.Equal(t, "access-1", creds.AccessToken)

		assert.Contains(t, api.lastRequest(http.MethodPost, "/api/auth/login"), `"remember_me":true`)
	})

	t.Run("rejected credentials return to anonymous", func(t *testing.T) {
		api := newFakeAPI(t)
		api.respond(http.MethodPost, "/api/auth/login", http.StatusUnauthorized, `{"error":"invalid_credentials"}`)
		store := newStore(t, api)
		require.NoError(t, store.Resume(ctx))

		_, err := store.Login(ctx, "alice@example.com", "wrong", false)
		assert.ErrorIs(t, err, session.ErrInvalidCredentials)
		assert.Equal(t, session.StateAnonymous, store.State())
		assert.Nil(t, store.Credentials())
	})
}

func TestStore_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		api := newFakeAPI(t)
		api.respond(http.MethodPost, "/api/auth/signup", http.StatusCreated, authResultJSON("uid-1"))
		store := newStore(t, api)
		require.NoError(t, store.Resume(ctx))

		identity, err := store.Signup(ctx, "Alice", "alice@example.com", "super-secret-pw", false)
		require.NoError(t, err)
		assert.Equal(t, "uid-1", identity.UserID)
		assert.Equal(t, session.StateAuthenticated, store.State())
	})

	t.Run("email already in use", func(t *testing.T) {
		api := newFakeAPI(t)
		api.respond(http.MethodPost, "/api/auth/signup", http.StatusConflict, `{"error":"conflict"}`)
		store := newStore(t, api)
		require.NoError(t, store.Resume(ctx))

		_, err := store.Signup(ctx, "Alice", "alice@example.com", "super-secret-pw", false)
		assert.ErrorIs(t, err, session.ErrEmailAlreadyInUse)
		assert.Equal(t, session.StateAnonymous, store.State())
	})
}

func TestStore_Logout(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, api *fakeAPI, store *session.Store) {
		t.Helper()
		api.respond(http.MethodPost, "/api/auth/login", http.StatusOK, authResultJSON("uid-1"))
		_, err := store.Login(ctx, "alice@example.com", "super-secret-pw", false)
		require.NoError(t, err)
	}

	t.Run("clears local state and revokes server side", func(t *testing.T) {
		api := newFakeAPI(t)
		api.respond(http.MethodPost, "/api/auth/logout", http.StatusNoContent, "")
		store := newStore(t, api)
		require.NoError(t, store.Resume(ctx))
		login(t, api, store)

		require.NoError(t, store.Logout(ctx))
		assert.Equal(t, session.StateAnonymous, store.State())
		assert.Nil(t, store.Profile())
		assert.Nil(t, store.Credentials())
		assert.Equal(t, 1, api.callCount(http.MethodPost, "/api/auth/logout"))
	})

	t.Run("succeeds locally even when the server call fails", func(t *testing.T) {
		api := newFakeAPI(t)
		api.respond(http.MethodPost, "/api/auth/logout", http.StatusInternalServerError, `{"error":"internal"}`)
		store := newStore(t, api)
		require.NoError(t, store.Resume(ctx))
		login(t, api, store)

		require.NoError(t, store.Logout(ctx))
		assert.Equal(t, session.StateAnonymous, store.State())
	})
}

func TestStore_ProfileMutations(t *testing.T) {
	ctx := context.Background()

	authenticate := func(t *testing.T, api *fakeAPI, store *session.Store) {
		t.Helper()
		api.respond(http.MethodPost, "/api/auth/login", http.StatusOK, authResultJSON("uid-1"))
		require.NoError(t, store.Resume(ctx))
		_, err := store.Login(ctx, "alice@example.com", "super-secret-pw", false)
		require.NoError(t, err)
	}

	t.Run("update profile refreshes the cached aggregate", func(t *testing.T) {
		api := newFakeAPI(t)
		store := newStore(t, api)
		authenticate(t, api, store)

		api.respond(http.MethodPut, "/api/users/uid-1", http.StatusOK, profileJSON("uid-1", map[string]any{"bio": "hello"}))

		bio := "hello"
		require.NoError(t, store.UpdateProfile(ctx, nil, &bio))

		profile := store.Profile()
		require.NotNil(t, profile)
		assert.Equal(t, "hello", profile.Bio)
		assert.Contains(t, api.lastRequest(http.MethodPut, "/api/users/uid-1"), `"bio":"hello"`)
		assert.NotContains(t, api.lastRequest(http.MethodPut, "/api/users/uid-1"), `"name"`)
	})

	t.Run("mutations require authentication", func(t *testing.T) {
		api := newFakeAPI(t)
		store := newStore(t, api)
		require.NoError(t, store.Resume(ctx))

		name := "Alice"
		assert.ErrorIs(t, store.UpdateProfile(ctx, &name, nil), session.ErrNotAuthenticated)
		assert.ErrorIs(t, store.UpdateAvatar(ctx, nil), session.ErrNotAuthenticated)
	})

	t.Run("update avatar sends an explicit null to clear", func(t *testing.T) {
		api := newFakeAPI(t)
		store := newStore(t, api)
		authenticate(t, api, store)

		api.respond(http.MethodPut, "/api/users/uid-1/avatar", http.StatusOK, profileJSON("uid-1", nil))

		require.NoError(t, store.UpdateAvatar(ctx, nil))
		assert.JSONEq(t, `{"avatar_url":null}`, api.lastRequest(http.MethodPut, "/api/users/uid-1/avatar"))
	})

	t.Run("server-side session expiry drops to anonymous", func(t *testing.T) {
		api := newFakeAPI(t)
		store := newStore(t, api)
		authenticate(t, api, store)

		api.respond(http.MethodPut, "/api/users/uid-1", http.StatusUnauthorized, `{"error":"session_not_found"}`)

		bio := "hello"
		assert.ErrorIs(t, store.UpdateProfile(ctx, nil, &bio), session.ErrNotAuthenticated)
		assert.Equal(t, session.StateAnonymous, store.State())
	})
}

func TestStore_ConnectWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("no provider injected", func(t *testing.T) {
		api := newFakeAPI(t)
		store := newStore(t, api)
		require.NoError(t, store.Resume(ctx))

		_, err := store.ConnectWallet(ctx)
		assert.ErrorIs(t, err, session.ErrWalletProviderUnavailable)
	})

	t.Run("wallet with no accounts", func(t *testing.T) {
		api := newFakeAPI(t)
		store := newStore(t, api, withWallet(&fakeWallet{accounts: []string{}, chainID: "1"}))
		require.NoError(t, store.Resume(ctx))

		_, err := store.ConnectWallet(ctx)
		assert.ErrorIs(t, err, session.ErrNoAccountsAvailable)
	})

	t.Run("anonymous connect tracks the address without linking", func(t *testing.T) {
		api := newFakeAPI(t)
		store := newStore(t, api, withWallet(&fakeWallet{accounts: []string{"0xabc"}, chainID: "1"}))
		require.NoError(t, store.Resume(ctx))

		conn, err := store.ConnectWallet(ctx)
		require.NoError(t, err)
		assert.Equal(t, "0xabc", conn.Address)
		assert.Equal(t, "1", conn.ChainID)
		assert.Equal(t, "0xabc", store.ConnectedAddress())
		assert.Zero(t, api.callCount(http.MethodPost, "/api/users/uid-1/link-wallet"))
	})

	t.Run("authenticated connect links the wallet", func(t *testing.T) {
		api := newFakeAPI(t)
		api.respond(http.MethodPost, "/api/auth/login", http.StatusOK, authResultJSON("uid-1"))
		api.respond(http.MethodPost, "/api/users/uid-1/link-wallet", http.StatusCreated, profileJSON("uid-1", map[string]any{
			"web3_wallets": []map[string]any{{"id": "w-1", "user_id": "uid-1", "address": "0xabc", "chain_id": "1", "is_primary": true}},
		}))
		store := newStore(t, api, withWallet(&fakeWallet{accounts: []string{"0xabc"}, chainID: "1"}))
		require.NoError(t, store.Resume(ctx))
		_, err := store.Login(ctx, "alice@example.com", "super-secret-pw", false)
		require.NoError(t, err)

		conn, err := store.ConnectWallet(ctx)
		require.NoError(t, err)
		assert.Equal(t, "0xabc", conn.Address)
		assert.Equal(t, 1, api.callCount(http.MethodPost, "/api/users/uid-1/link-wallet"))

		profile := store.Profile()
		require.NotNil(t, profile)
		require.NotNil(t, profile.PrimaryWallet())
		assert.Equal(t, "0xabc", profile.PrimaryWallet().Address)

		assert.JSONEq(t, `{"address":"0xabc","chain_id":"1"}`, api.lastRequest(http.MethodPost, "/api/users/uid-1/link-wallet"))
	})

	t.Run("account changes update the tracked address", func(t *testing.T) {
		api := newFakeAPI(t)
		wallet := &fakeWallet{accounts: []string{"0xabc"}, chainID: "1"}
		store := newStore(t, api, withWallet(wallet))
		require.NoError(t, store.Resume(ctx))

		_, err := store.ConnectWallet(ctx)
		require.NoError(t, err)

		wallet.fireAccountsChanged([]string{"0xdef"})
		assert.Equal(t, "0xdef", store.ConnectedAddress())

		wallet.fireAccountsChanged(nil)
		assert.Empty(t, store.ConnectedAddress())
	})

	t.Run("close unsubscribes from the wallet", func(t *testing.T) {
		api := newFakeAPI(t)
		wallet := &fakeWallet{accounts: []string{"0xabc"}, chainID: "1"}
		store, err := session.New(session.Config{BaseURL: api.server.URL, Wallet: wallet})
		require.NoError(t, err)

		store.Close()
		assert.True(t, wallet.unsubbed)

		_, err = store.ConnectWallet(context.Background())
		assert.ErrorIs(t, err, session.ErrClosed)
	})
}

func TestStore_LinkProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous performs a fresh social sign-in", func(t *testing.T) {
		api := newFakeAPI(t)
		api.respond(http.MethodPost, "/api/auth/social", http.StatusOK, authResultJSON("uid-1"))
		store := newStore(t, api)
		require.NoError(t, store.Resume(ctx))

		identity, err := store.LinkProvider(ctx, "google", idToken(t, "goog-1"))
		require.NoError(t, err)
		assert.Equal(t, "uid-1", identity.UserID)
		assert.Equal(t, session.StateAuthenticated, store.State())
	})

	t.Run("authenticated links to the active identity", func(t *testing.T) {
		api := newFakeAPI(t)
		api.respond(http.MethodPost, "/api/auth/login", http.StatusOK, authResultJSON("uid-1"))
		api.respond(http.MethodPost, "/api/users/uid-1/link-provider", http.StatusCreated, profileJSON("uid-1", map[string]any{
			"auth_providers_linked": []map[string]any{{"id": "l-1", "user_id": "uid-1", "provider_name": "google", "provider_user_id": "goog-1"}},
		}))
		store := newStore(t, api)
		require.NoError(t, store.Resume(ctx))
		_, err := store.Login(ctx, "alice@example.com", "super-secret-pw", false)
		require.NoError(t, err)

		identity, err := store.LinkProvider(ctx, "google", idToken(t, "goog-1"))
		require.NoError(t, err)
		assert.Equal(t, "uid-1", identity.UserID)
		assert.Zero(t, api.callCount(http.MethodPost, "/api/auth/social"), "no fresh sign-in for a linked session")
		assert.JSONEq(t, `{"provider_name":"google","provider_user_id":"goog-1"}`, api.lastRequest(http.MethodPost, "/api/users/uid-1/link-provider"))

		profile := store.Profile()
		require.NotNil(t, profile)
		require.Len(t, profile.AuthProvidersLinked, 1)
	})

	t.Run("external account owned elsewhere conflicts", func(t *testing.T) {
		api := newFakeAPI(t)
		api.respond(http.MethodPost, "/api/auth/login", http.StatusOK, authResultJSON("uid-1"))
		api.respond(http.MethodPost, "/api/users/uid-1/link-provider", http.StatusConflict, `{"error":"conflict"}`)
		store := newStore(t, api)
		require.NoError(t, store.Resume(ctx))
		_, err := store.Login(ctx, "alice@example.com", "super-secret-pw", false)
		require.NoError(t, err)

		_, err = store.LinkProvider(ctx, "google", idToken(t, "goog-1"))
		assert.ErrorIs(t, err, session.ErrProviderLinkConflict)
		assert.Equal(t, session.StateAuthenticated, store.State(), "the local session survives the conflict")
	})
}
