package model

import (
	"encoding/json"
	"time"
)

// User is the relational profile row. The ID is the uid issued by the
// authentication provider at signup; it is supplied by the caller on create
// and never changes.
type User struct {
	ID              string          `json:"uid"`
	Email           string          `json:"email"`
	Name            string          `json:"name"`
	Bio             string          `json:"bio"`
	AvatarURL       *string         `json:"avatar_url"`
	DashboardLayout json.RawMessage `json:"dashboard_layout_preferences,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LinkedProvider maps a user to an external login method. Rows are
// insert-if-absent: a (user, provider) pair is unique and never updated.
type LinkedProvider struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Provider       string    `json:"provider_name"`
	ProviderUserID string    `json:"provider_user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// LinkedWallet is a web3 wallet tied to a user. At most one wallet per user
// may have IsPrimary set.
type LinkedWallet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Address   string    `json:"address"`
	ChainID   string    `json:"chain_id"`
	IsPrimary bool      `json:"is_primary"`
	LinkedAt  time.Time `json:"linked_at"`
}

// Profile is the full aggregate returned by every profile read and by every
// successful mutation. It always reflects the latest committed relational
// state; clients cache it for display only.
type Profile struct {
	User
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
