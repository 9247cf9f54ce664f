package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/creatorhub/creator-hub-api/internal/model"
	"github.com/creatorhub/creator-hub-api/internal/repository"
)

// In-memory fakes for the repository and cache interfaces. Fakes instead of
// a mock framework: the behavior under test is the interplay of several
// stores, which is much easier to read as small stateful implementations.

var errUnique = &pq.Error{Code: "23505"}

type fakeUserRepo struct {
	users map[string]*model.User

	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.users[user.ID]; ok {
		return nil, errUnique
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	f.users[user.ID] = &copied
	return user, nil
}

func (f *fakeUserRepo) GetUser(ctx context.Context, uid string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	user, ok := f.users[uid]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, uid string, params repository.UpdateUserParams) (*model.User, error) {
	if params.Name == nil && params.Bio == nil && params.DashboardLayout == nil {
		return nil, repository.ErrNoFieldsToUpdate
	}
	user, ok := f.users[uid]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.Bio != nil {
		user.Bio = *params.Bio
	}
	if params.DashboardLayout != nil {
		user.DashboardLayout = *params.DashboardLayout
	}
	user.UpdatedAt = time.Now()
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) UpdateAvatar(ctx context.Context, uid string, avatarURL *string) error {
	user, ok := f.users[uid]
	if !ok {
		return sql.ErrNoRows
	}
	user.AvatarURL = avatarURL
	user.UpdatedAt = time.Now()
	return nil
}

type fakeProviderRepo struct {
	links []model.LinkedProvider
}

func (f *fakeProviderRepo) CreateProvider(ctx context.Context, link *model.LinkedProvider) (*model.LinkedProvider, error) {
	for _, l := range f.links {
		if l.UserID == link.UserID && l.Provider == link.Provider {
			return nil, errUnique
		}
		if l.Provider == link.Provider && l.ProviderUserID == link.ProviderUserID {
			return nil, errUnique
		}
	}
	link.ID = fmt.Sprintf("link-%d", len(f.links)+1)
	link.CreatedAt = time.Now()
	f.links = append(f.links, *link)
	return link, nil
}

func (f *fakeProviderRepo) GetByUserAndProvider(ctx context.Context, userID, provider string) (*model.LinkedProvider, error) {
	for i := range f.links {
		if f.links[i].UserID == userID && f.links[i].Provider == provider {
			copied := f.links[i]
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProviderRepo) GetByProviderUser(ctx context.Context, provider, providerUserID string) (*model.LinkedProvider, error) {
	for i := range f.links {
		if f.links[i].Provider == provider && f.links[i].ProviderUserID == providerUserID {
			copied := f.links[i]
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProviderRepo) ListByUserID(ctx context.Context, userID string) ([]model.LinkedProvider, error) {
	out := []model.LinkedProvider{}
	for _, l := range f.links {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeWalletRepo struct {
	wallets []model.LinkedWallet
}

func (f *fakeWalletRepo) LinkWallet(ctx context.Context, userID, address, chainID string, isPrimary *bool) (*model.LinkedWallet, bool, error) {
	for i := range f.wallets {
		w := &f.wallets[i]
		if w.UserID != userID || w.Address != address || w.ChainID != chainID {
			continue
		}
		if isPrimary == nil || *isPrimary == w.IsPrimary {
			copied := *w
			return &copied, false, nil
		}
		if *isPrimary {
			f.clearPrimary(userID, w.ID)
		}
		w.IsPrimary = *isPrimary
		copied := *w
		return &copied, false, nil
	}

	count := 0
	for _, w := range f.wallets {
		if w.UserID == userID {
			count++
		}
	}

	primary := count == 0
	if isPrimary != nil {
		primary = *isPrimary
	}
	if primary {
		f.clearPrimary(userID, "")
	}

	wallet := model.LinkedWallet{
		ID:        fmt.Sprintf("wallet-%d", len(f.wallets)+1),
		UserID:    userID,
		Address:   address,
		ChainID:   chainID,
		IsPrimary: primary,
		LinkedAt:  time.Now(),
	}
	f.wallets = append(f.wallets, wallet)
	return &wallet, true, nil
}

func (f *fakeWalletRepo) clearPrimary(userID, keepID string) {
	for i := range f.wallets {
		if f.wallets[i].UserID == userID && f.wallets[i].ID != keepID {
			f.wallets[i].IsPrimary = false
		}
	}
}

func (f *fakeWalletRepo) ListByUserID(ctx context.Context, userID string) ([]model.LinkedWallet, error) {
	out := []model.LinkedWallet{}
	for _, w := range f.wallets {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakeActivityRepo struct {
	events    []model.ActivityEvent
	appendErr error
}

func (f *fakeActivityRepo) AppendEvent(ctx context.Context, event *model.ActivityEvent) (*model.ActivityEvent, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	event.ID = fmt.Sprintf("event-%d", len(f.events)+1)
	event.CreatedAt = time.Now()
	f.events = append(f.events, *event)
	return event, nil
}

func (f *fakeActivityRepo) RecentByUserID(ctx context.Context, userID string, limit int64) ([]model.ActivityEvent, error) {
	out := []model.ActivityEvent{}
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeActivityRepo) typesFor(userID string) []string {
	types := []string{}
	for _, e := range f.events {
		if e.UserID == userID {
			types = append(types, e.Type)
		}
	}
	return types
}

type fakeProfileCache struct {
	profiles map[string]*model.Profile

	setCalls        int
	invalidateCalls int
}

func newFakeProfileCache() *fakeProfileCache {
	return &fakeProfileCache{profiles: map[string]*model.Profile{}}
}

func (f *fakeProfileCache) Get(ctx context.Context, userID string) (*model.Profile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("cache miss for %s", userID)
	}
	return profile, nil
}

func (f *fakeProfileCache) Set(ctx context.Context, profile *model.Profile) error {
	f.setCalls++
	f.profiles[profile.ID] = profile
	return nil
}

func (f *fakeProfileCache) Invalidate(ctx context.Context, userID string) error {
	f.invalidateCalls++
	delete(f.profiles, userID)
	return nil
}

type fakeRankCache struct {
	ranks map[string]int64
	sets  int
}

func newFakeRankCache() *fakeRankCache {
	return &fakeRankCache{ranks: map[string]int64{}}
}

func (f *fakeRankCache) Get(ctx context.Context, userID string) (int64, error) {
	rank, ok := f.ranks[userID]
	if !ok {
		return 0, fmt.Errorf("cache miss for %s", userID)
	}
	return rank, nil
}

func (f *fakeRankCache) Set(ctx context.Context, userID string, rank int64) error {
	f.sets++
	f.ranks[userID] = rank
	return nil
}

type fakeStatsRepo struct {
	points       int64
	rank         int64
	enrollments  int64
	projects     int64
	achievements []model.Achievement

	pointsErr       error
	rankErr         error
	enrollmentsErr  error
	projectsErr     error
	achievementsErr error
}

func (f *fakeStatsRepo) Points(ctx context.Context, userID string) (int64, error) {
	return f.points, f.pointsErr
}

func (f *fakeStatsRepo) Rank(ctx context.Context, userID string) (int64, error) {
	return f.rank, f.rankErr
}

func (f *fakeStatsRepo) EnrollmentCount(ctx context.Context, userID string) (int64, error) {
	return f.enrollments, f.enrollmentsErr
}

func (f *fakeStatsRepo) ProjectCount(ctx context.Context, userID string) (int64, error) {
	return f.projects, f.projectsErr
}

func (f *fakeStatsRepo) Achievements(ctx context.Context, userID string) ([]model.Achievement, error) {
	return f.achievements, f.achievementsErr
}

type fakeAccountRepo struct {
	accounts map[string]*model.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[string]*model.Account{}}
}

func (f *fakeAccountRepo) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	if _, ok := f.accounts[account.Email]; ok {
		return nil, mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}
	}
	account.ID = bson.NewObjectID()
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	copied := *account
	f.accounts[account.Email] = &copied
	return account, nil
}

func (f *fakeAccountRepo) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	account, ok := f.accounts[email]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *account
	return &copied, nil
}

func (f *fakeAccountRepo) GetAccountByUserID(ctx context.Context, userID string) (*model.Account, error) {
	for _, account := range f.accounts {
		if account.UserID == userID {
			copied := *account
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeAccountRepo) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	for _, account := range f.accounts {
		if account.UserID == userID {
			account.PasswordHash = passwordHash
			account.UpdatedAt = time.Now()
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (f *fakeAccountRepo) UpdateLastLogin(ctx context.Context, userID string) error {
	for _, account := range f.accounts {
		if account.UserID == userID {
			account.LastLoginAt = time.Now()
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

type fakeSessionRepo struct {
	sessions map[string]*model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*model.Session{}}
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, session *model.Session) (*model.Session, error) {
	session.ID = bson.NewObjectID()
	session.CreatedAt = time.Now()
	copied := *session
	f.sessions[session.ID.Hex()] = &copied
	return session, nil
}

func (f *fakeSessionRepo) GetSession(ctx context.Context, id string) (*model.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionRepo) UpdateTokens(ctx context.Context, id string, params repository.UpdateTokensParams) (*model.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	session.AccessToken = params.AccessToken
	session.RefreshToken = params.RefreshToken
	session.AccessTokenExpiresAt = params.AccessTokenExpiresAt
	session.RefreshTokenExpiresAt = params.RefreshTokenExpiresAt
	copied := *session
	return &copied, nil
}

func (f *fakeSessionRepo) RevokeSession(ctx context.Context, id string) error {
	session, ok := f.sessions[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	session.Revoked = true
	return nil
}

type fakeTokenRepo struct {
	tokens map[string]*model.PasswordResetToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]*model.PasswordResetToken{}}
}

func (f *fakeTokenRepo) CreateToken(ctx context.Context, token *model.PasswordResetToken) (*model.PasswordResetToken, error) {
	token.ID = bson.NewObjectID()
	token.CreatedAt = time.Now()
	copied := *token
	f.tokens[token.JTI] = &copied
	return token, nil
}

func (f *fakeTokenRepo) GetTokenByJTI(ctx context.Context, jti string) (*model.PasswordResetToken, error) {
	token, ok := f.tokens[jti]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *token
	return &copied, nil
}

func (f *fakeTokenRepo) MarkTokenAsUsed(ctx context.Context, jti string) error {
	token, ok := f.tokens[jti]
	if !ok {
		return mongo.ErrNoDocuments
	}
	token.Used = true
	return nil
}

func (f *fakeTokenRepo) InvalidateUserTokens(ctx context.Context, userID string) error {
	for _, token := range f.tokens {
		if token.UserID == userID {
			token.Used = true
		}
	}
	return nil
}
