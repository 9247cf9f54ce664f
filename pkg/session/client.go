package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// apiClient is a thin JSON client over the REST API. It carries no state
// besides the base URL; the access token is passed per call by the store.
type apiClient struct {
	baseURL string
	http    *http.Client
}

// apiError is a non-2xx response, decoded from the shared error body shape.
type apiError struct {
	Status  int
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

type signupRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type socialLoginRequest struct {
	Provider   string `json:"provider"`
	IDToken    string `json:"id_token"`
	RememberMe bool   `json:"remember_me"`
}

type updateProfileRequest struct {
	Name *string `json:"name,omitempty"`
	Bio  *string `json:"bio,omitempty"`
}

type linkProviderRequest struct {
	ProviderName   string `json:"provider_name"`
	ProviderUserID string `json:"provider_user_id"`
}

type linkWalletRequest struct {
	Address string `json:"address"`
	ChainID string `json:"chain_id"`
}

func (c *apiClient) signup(ctx context.Context, name, email, password string, rememberMe bool) (*authResult, error) {
	req := signupRequest{Name: name, Email: email, Password: password, RememberMe: rememberMe}

	var result authResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *apiClient) login(ctx context.Context, email, password string, rememberMe bool) (*authResult, error) {
	req := loginRequest{Email: email, Password: password, RememberMe: rememberMe}

	var result authResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *apiClient) socialLogin(ctx context.Context, providerName, idToken string, rememberMe bool) (*authResult, error) {
	req := socialLoginRequest{Provider: providerName, IDToken: idToken, RememberMe: rememberMe}

	var result authResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/social", "", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *apiClient) logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", accessToken, nil, nil)
}

func (c *apiClient) getProfile(ctx context.Context, accessToken, uid string) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, "/api/users/"+uid, accessToken, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *apiClient) updateProfile(ctx context.Context, accessToken, uid string, req updateProfileRequest) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodPut, "/api/users/"+uid, accessToken, req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *apiClient) updateAvatar(ctx context.Context, accessToken, uid string, avatarURL *string) (*Profile, error) {
	// The avatar endpoint requires the key to be present, null or not.
	req := map[string]*string{"avatar_url": avatarURL}

	var profile Profile
	if err := c.do(ctx, http.MethodPut, "/api/users/"+uid+"/avatar", accessToken, req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *apiClient) linkProvider(ctx context.Context, accessToken, uid, providerName, providerUserID string) (*Profile, error) {
	req := linkProviderRequest{ProviderName: providerName, ProviderUserID: providerUserID}

	var profile Profile
	if err := c.do(ctx, http.MethodPost, "/api/users/"+uid+"/link-provider", accessToken, req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *apiClient) linkWallet(ctx context.Context, accessToken, uid, address, chainID string) (*Profile, error) {
	req := linkWalletRequest{Address: address, ChainID: chainID}

	var profile Profile
	if err := c.do(ctx, http.MethodPost, "/api/users/"+uid+"/link-wallet", accessToken, req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *apiClient) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
