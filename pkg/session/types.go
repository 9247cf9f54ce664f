package session

import (
	"encoding/json"
	"time"
)

// Profile is the full aggregate the API returns from every profile read and
// every successful mutation. It always reflects the latest committed
// relational state; the store caches it for display only.
type Profile struct {
	UserID          string          `json:"uid"`
	Email           string          `json:"email"`
	Name            string          `json:"name"`
	Bio             string          `json:"bio"`
	AvatarURL       *string         `json:"avatar_url"`
	DashboardLayout json.RawMessage `json:"dashboard_layout_preferences,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	AuthProvidersLinked []LinkedProvider `json:"auth_providers_linked"`
	Web3Wallets         []LinkedWallet   `json:"web3_wallets"`
}

// PrimaryWallet returns the wallet marked primary, or nil when none is.
func (p *Profile) PrimaryWallet() *LinkedWallet {
	for i := range p.Web3Wallets {
		if p.Web3Wallets[i].IsPrimary {
			return &p.Web3Wallets[i]
		}
	}
	return nil
}

// LinkedProvider is an external login method tied to the user.
type LinkedProvider struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Provider       string    `json:"provider_name"`
	ProviderUserID string    `json:"provider_user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// LinkedWallet is a web3 wallet tied to the user. At most one wallet per
// user is primary.
type LinkedWallet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Address   string    `json:"address"`
	ChainID   string    `json:"chain_id"`
	IsPrimary bool      `json:"is_primary"`
	LinkedAt  time.Time `json:"linked_at"`
}

// ActivityEvent is one entry of the user's recent activity feed.
type ActivityEvent struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Tokens is the access/refresh pair issued by the auth endpoints.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// authResult is the body of every successful auth endpoint response.
type authResult struct {
	Tokens  Tokens   `json:"tokens"`
	Profile *Profile `json:"profile"`
}
