// Package provider verifies identity tokens issued by external login
// providers. Providers are consumed as black boxes; only token verification
// and basic profile lookup live here.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var ErrInvalidGoogleAudience = errors.New("invalid google audience")

// ExternalIdentity is the provider-scoped identity extracted from a verified
// token.
type ExternalIdentity struct {
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
	AvatarURL      string
}

// IdentityVerifier turns a provider-issued ID token into an
// ExternalIdentity.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*ExternalIdentity, error)
}

// GoogleVerifier validates Google ID tokens against a client ID.
type GoogleVerifier struct {
	clientID string
}

// NewGoogleVerifier creates a GoogleVerifier for the given OAuth client ID.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// Verify checks the ID token with Google's tokeninfo endpoint and fetches the
// user's basic profile.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*ExternalIdentity, error) {
	oauth2Service, err := oauth2.NewService(ctx, option.WithHTTPClient(&http.Client{}))
	if err != nil {
		return nil, err
	}

	tokenInfoCall := oauth2Service.Tokeninfo()
	tokenInfoCall.IdToken(idToken)
	tokenInfo, err := tokenInfoCall.Do()
	if err != nil {
		return nil, err
	}

	if tokenInfo.Audience != v.clientID {
		return nil, ErrInvalidGoogleAudience
	}

	identity := &ExternalIdentity{
		Provider:       "google",
		ProviderUserID: tokenInfo.UserId,
		Email:          tokenInfo.Email,
	}

	if info, err := fetchGoogleUserInfo(ctx, idToken); err == nil {
		identity.Name = info.Name
		identity.AvatarURL = info.Picture
	}

	return identity, nil
}

func fetchGoogleUserInfo(ctx context.Context, accessToken string) (*oauth2.Userinfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.googleapis.com/oauth2/v1/userinfo", nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("status code is not OK")
	}

	var userInfo oauth2.Userinfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, err
	}

	return &userInfo, nil
}
