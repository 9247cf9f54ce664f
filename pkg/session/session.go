// Package session is the client-side session/identity store for the Creator
// Hub API. It owns the "who is logged in" state machine, keeps a locally
// cached profile aggregate in sync with server state after every mutation,
// and exposes wallet connectivity through an injected WalletProvider.
//
// The cached aggregate is a display convenience only: it is overwritten by
// the next successful fetch or mutation and is never a write source of
// truth.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// State is the identity state of the store.
type State string

const (
	// StateUnknown is the initial state before Resume has run.
	StateUnknown State = "unknown"
	// StateLoading covers the window between a reported session and the
	// aggregate fetch resolving it.
	StateLoading State = "loading"
	// StateAuthenticated means an identity is active and a profile is cached.
	StateAuthenticated State = "authenticated"
	// StateAnonymous means no identity is active.
	StateAnonymous State = "anonymous"
)

// Identity is the minimal description of the active user.
type Identity struct {
	UserID    string
	Email     string
	Name      string
	AvatarURL *string
}

// Credentials is a persisted session: the token pair plus the user id it was
// issued for. Callers that want sessions to survive restarts persist this and
// hand it back to Config.Credentials.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

// WalletConnection is the result of a successful ConnectWallet.
type WalletConnection struct {
	Address string
	ChainID string
}

// Config configures a Store.
type Config struct {
	// BaseURL is the root of the API, e.g. "https://api.example.com".
	BaseURL string

	// HTTPClient is optional; a client with a 15s timeout is used when nil.
	HTTPClient *http.Client

	// Wallet is the injected wallet capability. Nil means no compatible
	// wallet is present and ConnectWallet fails with
	// ErrWalletProviderUnavailable.
	Wallet WalletProvider

	// Credentials is a previously persisted session, resumed by Resume.
	Credentials *Credentials

	Logger *zerolog.Logger
}

// Store is the process-wide session/identity store. All methods are safe for
// concurrent use.
type Store struct {
	api    *apiClient
	wallet WalletProvider
	logger *zerolog.Logger

	mu               sync.Mutex
	state            State
	creds            *Credentials
	profile          *Profile
	connectedAddress string
	closed           bool

	listeners  map[int]func(State)
	listenerID int

	unsubscribeWallet func()
}

// New creates a Store in the Unknown state. Call Resume to resolve a
// persisted session, and Close when done.
func New(cfg Config) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("session: BaseURL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	s := &Store{
		api:       &apiClient{baseURL: cfg.BaseURL, http: httpClient},
		wallet:    cfg.Wallet,
		logger:    logger,
		state:     StateUnknown,
		creds:     cfg.Credentials,
		listeners: map[int]func(State){},
	}

	if s.wallet != nil {
		s.unsubscribeWallet = s.wallet.OnAccountsChanged(s.accountsChanged)
	}

	return s, nil
}

// Close releases the wallet subscription and marks the store unusable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	if s.unsubscribeWallet != nil {
		s.unsubscribeWallet()
		s.unsubscribeWallet = nil
	}
	s.listeners = map[int]func(State){}
}

// OnChange registers a listener invoked after every state transition. The
// returned function unregisters it.
func (s *Store) OnChange(cb func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listenerID++
	id := s.listenerID
	s.listeners[id] = cb

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// State returns the current identity state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the active identity, or nil when not authenticated.
func (s *Store) Identity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identityLocked()
}

// Profile returns the cached profile aggregate, or nil when not
// authenticated.
func (s *Store) Profile() *Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Credentials returns the active session credentials for persistence, or nil
// when not authenticated.
func (s *Store) Credentials() *Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil
	}
	creds := *s.creds
	return &creds
}

// ConnectedAddress returns the wallet address last reported connected, which
// is tracked whether or not an identity is active.
func (s *Store) ConnectedAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectedAddress
}

// Resume resolves the persisted session handed to New: with credentials it
// moves Unknown to Loading and fetches the aggregate once, landing in
// Authenticated or, when the session is no longer valid, Anonymous. Without
// credentials it lands in Anonymous directly.
func (s *Store) Resume(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	creds := s.creds
	if creds == nil {
		s.mu.Unlock()
		s.transition(StateAnonymous, nil, nil)
		return nil
	}
	s.mu.Unlock()

	s.transition(StateLoading, creds, nil)

	profile, err := s.api.getProfile(ctx, creds.AccessToken, creds.UserID)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusNotFound) {
			s.logger.Debug().Str("uid", creds.UserID).Msg("persisted session no longer valid")
			s.transition(StateAnonymous, nil, nil)
			return nil
		}
		s.transition(StateAnonymous, nil, nil)
		return err
	}

	s.transition(StateAuthenticated, creds, profile)
	return nil
}

// Login authenticates with email and password.
func (s *Store) Login(ctx context.Context, email, password string, rememberMe bool) (*Identity, error) {
	if err := s.beginAuthFlow(); err != nil {
		return nil, err
	}

	result, err := s.api.login(ctx, email, password, rememberMe)
	if err != nil {
		s.transition(StateAnonymous, nil, nil)
		if isAPIStatus(err, http.StatusUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.completeAuthFlow(result), nil
}

// Signup registers a new account and signs it in, creating the backing
// profile record and its password provider link.
func (s *Store) Signup(ctx context.Context, name, email, password string, rememberMe bool) (*Identity, error) {
	if err := s.beginAuthFlow(); err != nil {
		return nil, err
	}

	result, err := s.api.signup(ctx, name, email, password, rememberMe)
	if err != nil {
		s.transition(StateAnonymous, nil, nil)
		if isAPIStatus(err, http.StatusConflict) {
			return nil, ErrEmailAlreadyInUse
		}
		return nil, err
	}

	return s.completeAuthFlow(result), nil
}

// Logout always succeeds locally: the server-side session revocation is best
// effort, the cached aggregate and credentials are cleared regardless.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	creds := s.creds
	s.mu.Unlock()

	if creds != nil {
		if err := s.api.logout(ctx, creds.AccessToken); err != nil {
			s.logger.Warn().Err(err).Msg("server-side logout failed")
		}
	}

	s.transition(StateAnonymous, nil, nil)
	return nil
}

// UpdateProfile applies a partial profile update; nil fields stay unchanged.
// The cached aggregate is replaced with the server's refreshed copy.
func (s *Store) UpdateProfile(ctx context.Context, name, bio *string) error {
	creds, err := s.requireAuth()
	if err != nil {
		return err
	}

	req := updateProfileRequest{Name: name, Bio: bio}
	profile, err := s.api.updateProfile(ctx, creds.AccessToken, creds.UserID, req)
	if err != nil {
		return s.mapAuthedError(err)
	}

	s.replaceProfile(profile)
	return nil
}

// UpdateAvatar sets the avatar image URL; nil clears it.
func (s *Store) UpdateAvatar(ctx context.Context, avatarURL *string) error {
	creds, err := s.requireAuth()
	if err != nil {
		return err
	}

	profile, err := s.api.updateAvatar(ctx, creds.AccessToken, creds.UserID, avatarURL)
	if err != nil {
		return s.mapAuthedError(err)
	}

	s.replaceProfile(profile)
	return nil
}

// ConnectWallet asks the injected wallet for its accounts and chain. The
// connected address is tracked regardless of authentication state; with an
// active identity the wallet is additionally linked to the profile, primary
// iff the user had none.
func (s *Store) ConnectWallet(ctx context.Context) (*WalletConnection, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	wallet := s.wallet
	s.mu.Unlock()

	if wallet == nil {
		return nil, ErrWalletProviderUnavailable
	}

	accounts, err := wallet.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("wallet accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccountsAvailable
	}

	chainID, err := wallet.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("wallet chain id: %w", err)
	}

	address := accounts[0]

	s.mu.Lock()
	s.connectedAddress = address
	creds := s.creds
	authenticated := s.state == StateAuthenticated
	s.mu.Unlock()

	if authenticated {
		profile, err := s.api.linkWallet(ctx, creds.AccessToken, creds.UserID, address, chainID)
		if err != nil {
			return nil, s.mapAuthedError(err)
		}
		s.replaceProfile(profile)
	}

	return &WalletConnection{Address: address, ChainID: chainID}, nil
}

// LinkProvider resolves an external identity token against the local session.
// With an active identity it links the external account to it; anonymous it
// performs a fresh social sign-in. Either way an external account already
// tied to a different identity fails with ErrProviderLinkConflict.
func (s *Store) LinkProvider(ctx context.Context, providerName, idToken string) (*Identity, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	creds := s.creds
	authenticated := s.state == StateAuthenticated
	s.mu.Unlock()

	if authenticated {
		providerUserID, err := subjectOf(idToken)
		if err != nil {
			return nil, err
		}

		profile, err := s.api.linkProvider(ctx, creds.AccessToken, creds.UserID, providerName, providerUserID)
		if err != nil {
			if isAPIStatus(err, http.StatusConflict) {
				return nil, ErrProviderLinkConflict
			}
			return nil, s.mapAuthedError(err)
		}

		s.replaceProfile(profile)
		return s.Identity(), nil
	}

	if err := s.beginAuthFlow(); err != nil {
		return nil, err
	}

	result, err := s.api.socialLogin(ctx, providerName, idToken, false)
	if err != nil {
		s.transition(StateAnonymous, nil, nil)
		if isAPIStatus(err, http.StatusConflict) {
			return nil, ErrProviderLinkConflict
		}
		return nil, err
	}

	return s.completeAuthFlow(result), nil
}

// RecentActivity fetches the latest activity events for the active identity.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]ActivityEvent, error) {
	creds, err := s.requireAuth()
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/api/users/%s/activity?limit=%d", creds.UserID, limit)
	var events []ActivityEvent
	if err := s.api.do(ctx, http.MethodGet, path, creds.AccessToken, nil, &events); err != nil {
		return nil, s.mapAuthedError(err)
	}
	return events, nil
}

func (s *Store) beginAuthFlow() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()

	s.transition(StateLoading, nil, nil)
	return nil
}

// completeAuthFlow lands the store in Authenticated. The aggregate returned
// by the auth endpoint is the single profile fetch of this transition.
func (s *Store) completeAuthFlow(result *authResult) *Identity {
	creds := &Credentials{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		UserID:       result.Profile.UserID,
	}
	s.transition(StateAuthenticated, creds, result.Profile)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identityLocked()
}

func (s *Store) requireAuth() (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.state != StateAuthenticated || s.creds == nil {
		return nil, ErrNotAuthenticated
	}

	creds := *s.creds
	return &creds, nil
}

// mapAuthedError handles the server reporting an expired or revoked session
// during an authenticated call by dropping to Anonymous.
func (s *Store) mapAuthedError(err error) error {
	if isAPIStatus(err, http.StatusUnauthorized) {
		s.logger.Debug().Msg("session rejected by server")
		s.transition(StateAnonymous, nil, nil)
		return ErrNotAuthenticated
	}
	return err
}

func (s *Store) replaceProfile(profile *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticated {
		s.profile = profile
	}
}

func (s *Store) transition(state State, creds *Credentials, profile *Profile) {
	s.mu.Lock()
	s.state = state
	s.creds = creds
	s.profile = profile
	listeners := make([]func(State), 0, len(s.listeners))
	for _, cb := range s.listeners {
		listeners = append(listeners, cb)
	}
	s.mu.Unlock()

	for _, cb := range listeners {
		cb(state)
	}
}

func (s *Store) identityLocked() *Identity {
	if s.state != StateAuthenticated || s.profile == nil {
		return nil
	}
	return &Identity{
		UserID:    s.profile.UserID,
		Email:     s.profile.Email,
		Name:      s.profile.Name,
		AvatarURL: s.profile.AvatarURL,
	}
}

func (s *Store) accountsChanged(accounts []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(accounts) == 0 {
		s.connectedAddress = ""
		return
	}
	s.connectedAddress = accounts[0]
}

func isAPIStatus(err error, status int) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// subjectOf extracts the subject claim from an identity token without
// verifying it; verification is the server's job.
func subjectOf(idToken string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return "", fmt.Errorf("parse identity token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("identity token has no subject")
	}
	return sub, nil
}
