package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Account is the credential document backing email/password sign-in. It lives
// in the auth database, separate from the relational profile row, and is keyed
// by the same uid.
type Account struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	UserID       string        `bson:"user_id"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`
	LastLoginAt  time.Time     `bson:"last_login_at"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}
