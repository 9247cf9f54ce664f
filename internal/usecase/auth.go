package usecase

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/creatorhub/creator-hub-api/internal/auth"
	"github.com/creatorhub/creator-hub-api/internal/config"
	"github.com/creatorhub/creator-hub-api/internal/model"
	"github.com/creatorhub/creator-hub-api/internal/provider"
	"github.com/creatorhub/creator-hub-api/internal/repository"
	"github.com/creatorhub/creator-hub-api/internal/security"
)

// AuthUsecase defines the authentication flows. Each successful flow ends
// with a session and the full profile aggregate, creating the backing profile
// row on first login when it is absent.
type AuthUsecase interface {
	Signup(ctx context.Context, params SignupParams) (*AuthResult, error)
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)
	LoginWithGoogle(ctx context.Context, idToken string, rememberMe bool) (*AuthResult, error)
	Logout(ctx context.Context, sessionID string) error
}

// SignupParams defines the parameters for email/password registration.
type SignupParams struct {
	Name       string
	Email      string
	Password   string
	RememberMe bool
}

// LoginParams defines the parameters for email/password login.
type LoginParams struct {
	Email      string
	Password   string
	RememberMe bool
}

// Tokens is an access/refresh token pair.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResult bundles the session tokens with the profile aggregate fetched on
// the transition into the authenticated state.
type AuthResult struct {
	Tokens  Tokens         `json:"tokens"`
	Profile *model.Profile `json:"profile"`
}

var (
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidIDToken     = errors.New("invalid identity token")
	ErrSessionNotFound    = errors.New("session not found")
)

const passwordProvider = "password"

type authUsecase struct {
	accountRepo    repository.AccountRepository
	sessionRepo    repository.SessionRepository
	providerRepo   repository.ProviderRepository
	profileUsecase ProfileUsecase
	googleVerifier provider.IdentityVerifier
	jwtAuth        auth.JWTAuthenticator
	cfg            *config.Config
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	accountRepo repository.AccountRepository,
	sessionRepo repository.SessionRepository,
	providerRepo repository.ProviderRepository,
	profileUsecase ProfileUsecase,
	googleVerifier provider.IdentityVerifier,
	jwtAuth auth.JWTAuthenticator,
	cfg *config.Config,
) AuthUsecase {
	return &authUsecase{
		accountRepo:    accountRepo,
		sessionRepo:    sessionRepo,
		providerRepo:   providerRepo,
		profileUsecase: profileUsecase,
		googleVerifier: googleVerifier,
		jwtAuth:        jwtAuth,
		cfg:            cfg,
	}
}

func (u *authUsecase) Signup(ctx context.Context, params SignupParams) (*AuthResult, error) {
	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	uid := uuid.NewString()
	account, err := u.accountRepo.CreateAccount(ctx, &model.Account{
		UserID:       uid,
		Email:        params.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailAlreadyInUse
		}
		return nil, err
	}

	profile, err := u.profileUsecase.CreateUser(ctx, CreateUserParams{
		UID:   uid,
		Email: params.Email,
		Name:  params.Name,
		Providers: []ProviderLinkParams{
			{Provider: passwordProvider, ProviderUserID: account.ID.Hex()},
		},
	})
	if err != nil {
		return nil, err
	}

	return u.createAuthSession(ctx, profile, params.RememberMe)
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	account, err := u.accountRepo.GetAccountByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if ok, err := security.VerifyPassword(params.Password, account.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	if err := u.accountRepo.UpdateLastLogin(ctx, account.UserID); err != nil {
		return nil, err
	}

	profile, err := u.ensureProfile(ctx, account.UserID, account.Email, "", nil)
	if err != nil {
		return nil, err
	}

	return u.createAuthSession(ctx, profile, params.RememberMe)
}

// LoginWithGoogle signs in with a verified Google ID token. An unknown
// external account joins an existing user when one owns the email (account
// link), and creates a fresh user otherwise.
func (u *authUsecase) LoginWithGoogle(ctx context.Context, idToken string, rememberMe bool) (*AuthResult, error) {
	identity, err := u.googleVerifier.Verify(ctx, idToken)
	if err != nil {
		return nil, ErrInvalidIDToken
	}

	profile, err := u.profileForExternalIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}

	return u.createAuthSession(ctx, profile, rememberMe)
}

func (u *authUsecase) Logout(ctx context.Context, sessionID string) error {
	if err := u.sessionRepo.RevokeSession(ctx, sessionID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrSessionNotFound
		}
		return err
	}

	return nil
}

func (u *authUsecase) profileForExternalIdentity(
	ctx context.Context,
	identity *provider.ExternalIdentity,
) (*model.Profile, error) {
	// Known external account: sign in as its owner.
	link, err := u.providerRepo.GetByProviderUser(ctx, identity.Provider, identity.ProviderUserID)
	if err == nil {
		return u.profileUsecase.GetProfile(ctx, link.UserID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Unknown external account with a known email: link it to that user.
	if account, err := u.accountRepo.GetAccountByEmail(ctx, identity.Email); err == nil {
		profile, _, err := u.profileUsecase.LinkProvider(ctx, account.UserID, identity.Provider, identity.ProviderUserID)
		return profile, err
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// First social login: create the backing row with the provider link.
	var avatar *string
	if identity.AvatarURL != "" {
		avatar = &identity.AvatarURL
	}

	return u.profileUsecase.CreateUser(ctx, CreateUserParams{
		UID:       uuid.NewString(),
		Email:     identity.Email,
		Name:      identity.Name,
		AvatarURL: avatar,
		Providers: []ProviderLinkParams{
			{Provider: identity.Provider, ProviderUserID: identity.ProviderUserID},
		},
	})
}

// ensureProfile fetches the aggregate for the user, creating the backing
// profile row on first-ever login when it is absent.
func (u *authUsecase) ensureProfile(
	ctx context.Context,
	uid, email, name string,
	avatarURL *string,
) (*model.Profile, error) {
	profile, err := u.profileUsecase.GetProfile(ctx, uid)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	return u.profileUsecase.CreateUser(ctx, CreateUserParams{
		UID:       uid,
		Email:     email,
		Name:      name,
		AvatarURL: avatarURL,
		Providers: []ProviderLinkParams{
			{Provider: passwordProvider, ProviderUserID: uid},
		},
	})
}

func (u *authUsecase) createAuthSession(
	ctx context.Context,
	profile *model.Profile,
	rememberMe bool,
) (*AuthResult, error) {
	session, err := u.sessionRepo.CreateSession(ctx, &model.Session{
		UserID:     profile.ID,
		RememberMe: rememberMe,
	})
	if err != nil {
		return nil, err
	}

	refreshExpiresIn := u.cfg.Token.RefreshTokenExpiresIn
	if rememberMe {
		refreshExpiresIn = u.cfg.Token.RememberMeRefreshExpiresIn
	}

	accessToken, err := u.generateToken(
		profile.ID,
		session.ID.Hex(),
		u.cfg.Token.AccessTokenSecret,
		u.cfg.Token.AccessTokenExpiresIn,
	)
	if err != nil {
		return nil, err
	}

	refreshToken, err := u.generateToken(
		profile.ID,
		session.ID.Hex(),
		u.cfg.Token.RefreshTokenSecret,
		refreshExpiresIn,
	)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if _, err := u.sessionRepo.UpdateTokens(ctx, session.ID.Hex(), repository.UpdateTokensParams{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  now.Add(u.cfg.Token.AccessTokenExpiresIn),
		RefreshTokenExpiresAt: now.Add(refreshExpiresIn),
	}); err != nil {
		return nil, err
	}

	return &AuthResult{
		Tokens:  Tokens{AccessToken: accessToken, RefreshToken: refreshToken},
		Profile: profile,
	}, nil
}

func (u *authUsecase) generateToken(userID, sessionID, secret string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := auth.SessionClaims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    u.cfg.Token.Issuer,
			Audience:  jwt.ClaimStrings{u.cfg.Token.Issuer},
		},
	}

	return u.jwtAuth.GenerateToken(claims, secret)
}
