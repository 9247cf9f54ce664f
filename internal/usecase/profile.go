package usecase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/creatorhub/creator-hub-api/internal/model"
	"github.com/creatorhub/creator-hub-api/internal/repository"
)

// ProfileUsecase owns every write to the profile, provider-link, and wallet
// rows. Every mutation re-reads the full aggregate from Postgres before
// returning, so callers always see the latest committed state.
type ProfileUsecase interface {
	CreateUser(ctx context.Context, params CreateUserParams) (*model.Profile, error)
	GetProfile(ctx context.Context, uid string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, uid string, params UpdateProfileParams) (*model.Profile, error)
	UpdateAvatar(ctx context.Context, uid string, avatarURL *string) (*model.Profile, error)
	LinkProvider(ctx context.Context, uid, provider, providerUserID string) (*model.Profile, bool, error)
	LinkWallet(ctx context.Context, uid, address, chainID string, isPrimary *bool) (*model.Profile, bool, error)
	RecentActivity(ctx context.Context, uid string, limit int64) ([]model.ActivityEvent, error)
}

// CreateUserParams defines the parameters for creating a profile row.
type CreateUserParams struct {
	UID       string
	Email     string
	Name      string
	AvatarURL *string
	Providers []ProviderLinkParams
}

// ProviderLinkParams names one external login method supplied at creation.
type ProviderLinkParams struct {
	Provider       string
	ProviderUserID string
}

// UpdateProfileParams defines the optional fields of a partial profile
// update. Nil means unchanged.
type UpdateProfileParams struct {
	Name            *string
	Bio             *string
	DashboardLayout *json.RawMessage
}

// ProfileCacher is the cache surface the usecase needs; satisfied by
// *cache.ProfileCache and by fakes in tests.
type ProfileCacher interface {
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Set(ctx context.Context, profile *model.Profile) error
	Invalidate(ctx context.Context, userID string) error
}

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrNoFieldsProvided  = errors.New("no fields provided")
	ErrProviderConflict  = errors.New("provider already linked to another account")
	ErrWalletConflict    = errors.New("wallet link conflict")
)

type profileUsecase struct {
	userRepo     repository.UserRepository
	providerRepo repository.ProviderRepository
	walletRepo   repository.WalletRepository
	activityRepo repository.ActivityRepository
	profileCache ProfileCacher
	logger       *zerolog.Logger
}

// NewProfileUsecase creates a new instance of ProfileUsecase.
func NewProfileUsecase(
	userRepo repository.UserRepository,
	providerRepo repository.ProviderRepository,
	walletRepo repository.WalletRepository,
	activityRepo repository.ActivityRepository,
	profileCache ProfileCacher,
	logger *zerolog.Logger,
) ProfileUsecase {
	return &profileUsecase{
		userRepo:     userRepo,
		providerRepo: providerRepo,
		walletRepo:   walletRepo,
		activityRepo: activityRepo,
		profileCache: profileCache,
		logger:       logger,
	}
}

func (u *profileUsecase) CreateUser(ctx context.Context, params CreateUserParams) (*model.Profile, error) {
	user := &model.User{
		ID:        params.UID,
		Email:     params.Email,
		Name:      params.Name,
		AvatarURL: params.AvatarURL,
	}

	if _, err := u.userRepo.CreateUser(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	for _, p := range params.Providers {
		link := &model.LinkedProvider{
			UserID:         params.UID,
			Provider:       p.Provider,
			ProviderUserID: p.ProviderUserID,
		}
		if _, err := u.providerRepo.CreateProvider(ctx, link); err != nil {
			if repository.IsUniqueViolation(err) {
				continue
			}
			return nil, err
		}
	}

	u.appendActivity(ctx, params.UID, model.ActivitySignup, nil)

	return u.refreshAggregate(ctx, params.UID)
}

func (u *profileUsecase) GetProfile(ctx context.Context, uid string) (*model.Profile, error) {
	if profile, err := u.profileCache.Get(ctx, uid); err == nil {
		return profile, nil
	}

	return u.refreshAggregate(ctx, uid)
}

func (u *profileUsecase) UpdateProfile(
	ctx context.Context,
	uid string,
	params UpdateProfileParams,
) (*model.Profile, error) {
	_, err := u.userRepo.UpdateUser(ctx, uid, repository.UpdateUserParams{
		Name:            params.Name,
		Bio:             params.Bio,
		DashboardLayout: params.DashboardLayout,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoFieldsToUpdate):
			return nil, ErrNoFieldsProvided
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	u.appendActivity(ctx, uid, model.ActivityProfileUpdated, nil)

	return u.refreshAggregate(ctx, uid)
}

func (u *profileUsecase) UpdateAvatar(ctx context.Context, uid string, avatarURL *string) (*model.Profile, error) {
	if err := u.userRepo.UpdateAvatar(ctx, uid, avatarURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	u.appendActivity(ctx, uid, model.ActivityAvatarUpdated, nil)

	return u.refreshAggregate(ctx, uid)
}

// LinkProvider is idempotent on (uid, provider): an existing pair returns the
// current aggregate without inserting. The returned bool reports whether a
// new link was created.
func (u *profileUsecase) LinkProvider(
	ctx context.Context,
	uid, provider, providerUserID string,
) (*model.Profile, bool, error) {
	if _, err := u.userRepo.GetUser(ctx, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}

	if existing, err := u.providerRepo.GetByUserAndProvider(ctx, uid, provider); err == nil && existing != nil {
		profile, err := u.refreshAggregate(ctx, uid)
		return profile, false, err
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	// The same external account must not be tied to two identities.
	if other, err := u.providerRepo.GetByProviderUser(ctx, provider, providerUserID); err == nil && other.UserID != uid {
		return nil, false, ErrProviderConflict
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	link := &model.LinkedProvider{
		UserID:         uid,
		Provider:       provider,
		ProviderUserID: providerUserID,
	}
	if _, err := u.providerRepo.CreateProvider(ctx, link); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, false, ErrProviderConflict
		}
		return nil, false, err
	}

	u.appendActivity(ctx, uid, model.ActivityProviderLinked, map[string]any{"provider": provider})

	profile, err := u.refreshAggregate(ctx, uid)
	return profile, true, err
}

func (u *profileUsecase) LinkWallet(
	ctx context.Context,
	uid, address, chainID string,
	isPrimary *bool,
) (*model.Profile, bool, error) {
	if _, err := u.userRepo.GetUser(ctx, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}

	wallet, created, err := u.walletRepo.LinkWallet(ctx, uid, address, chainID, isPrimary)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, false, ErrWalletConflict
		}
		return nil, false, err
	}

	if created {
		u.appendActivity(ctx, uid, model.ActivityWalletLinked, map[string]any{
			"address":  wallet.Address,
			"chain_id": wallet.ChainID,
		})
	}

	profile, err := u.refreshAggregate(ctx, uid)
	return profile, created, err
}

func (u *profileUsecase) RecentActivity(ctx context.Context, uid string, limit int64) ([]model.ActivityEvent, error) {
	return u.activityRepo.RecentByUserID(ctx, uid, limit)
}

// refreshAggregate reads the aggregate straight from Postgres and replaces
// the cached copy. The cache never serves a mutation result: it is dropped
// first so a failed re-read cannot leave a stale entry behind.
func (u *profileUsecase) refreshAggregate(ctx context.Context, uid string) (*model.Profile, error) {
	if err := u.profileCache.Invalidate(ctx, uid); err != nil {
		u.logger.Warn().Err(err).Str("uid", uid).Msg("failed to invalidate cached profile")
	}

	user, err := u.userRepo.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	providers, err := u.providerRepo.ListByUserID(ctx, uid)
	if err != nil {
		return nil, err
	}

	wallets, err := u.walletRepo.ListByUserID(ctx, uid)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{
		User:                *user,
		AuthProvidersLinked: providers,
		Web3Wallets:         wallets,
	}

	if err := u.profileCache.Set(ctx, profile); err != nil {
		u.logger.Warn().Err(err).Str("uid", uid).Msg("failed to cache profile aggregate")
	}

	return profile, nil
}

// appendActivity writes a log event. Log writes are best effort and never
// fail the mutation that produced them.
func (u *profileUsecase) appendActivity(ctx context.Context, uid, eventType string, detail map[string]any) {
	event := &model.ActivityEvent{
		UserID: uid,
		Type:   eventType,
		Detail: detail,
	}
	if _, err := u.activityRepo.AppendEvent(ctx, event); err != nil {
		u.logger.Warn().Err(err).Str("uid", uid).Str("type", eventType).Msg("failed to append activity event")
	}
}
