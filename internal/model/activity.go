package model

import "time"

// Activity event types appended by the profile and auth flows.
const (
	ActivitySignup         = "signup"
	ActivityLogin          = "login"
	ActivityProfileUpdated = "profile_updated"
	ActivityAvatarUpdated  = "avatar_updated"
	ActivityProviderLinked = "provider_linked"
	ActivityWalletLinked   = "wallet_linked"
)

// ActivityEvent is a log document in the logs database. IDs are xid strings,
// which sort by creation time.
type ActivityEvent struct {
	ID        string         `bson:"_id"        json:"id"`
	UserID    string         `bson:"user_id"    json:"user_id"`
	Type      string         `bson:"type"       json:"type"`
	Detail    map[string]any `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}
