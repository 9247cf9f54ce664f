package payload

import "encoding/json"

type CreateUserRequest struct {
	UID                 string              `json:"uid"        validate:"required"`
	Email               string              `json:"email"      validate:"required,email"`
	Name                string              `json:"name"       validate:"max=100"`
	AvatarURL           *string             `json:"avatar_url"`
	AuthProvidersLinked []ProviderLinkEntry `json:"auth_providers_linked" validate:"dive"`
}

type ProviderLinkEntry struct {
	ProviderName   string `json:"provider_name"    validate:"required"`
	ProviderUserID string `json:"provider_user_id" validate:"required"`
}

// UpdateUserRequest is a partial update: nil fields stay unchanged. An
// entirely empty payload is rejected.
type UpdateUserRequest struct {
	Name            *string          `json:"name"`
	Bio             *string          `json:"bio"`
	DashboardLayout *json.RawMessage `json:"dashboard_layout_preferences"`
}

// UpdateAvatarRequest distinguishes a null avatar (clear it) from an absent
// field (reject): Set is flipped by a custom UnmarshalJSON when the key is
// present at all.
type UpdateAvatarRequest struct {
	AvatarURL *string
	Set       bool
}

func (r *UpdateAvatarRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	value, ok := raw["avatar_url"]
	if !ok {
		return nil
	}

	r.Set = true
	return json.Unmarshal(value, &r.AvatarURL)
}

type LinkProviderRequest struct {
	ProviderName   string `json:"provider_name"    validate:"required"`
	ProviderUserID string `json:"provider_user_id" validate:"required"`
}

type LinkWalletRequest struct {
	Address   string `json:"address"    validate:"required"`
	ChainID   string `json:"chain_id"   validate:"required"`
	IsPrimary *bool  `json:"is_primary"`
}
