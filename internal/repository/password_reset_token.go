package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/creatorhub/creator-hub-api/internal/model"
)

// PasswordResetTokenRepository defines the interface for reset token
// documents.
type PasswordResetTokenRepository interface {
	CreateToken(ctx context.Context, token *model.PasswordResetToken) (*model.PasswordResetToken, error)
	GetTokenByJTI(ctx context.Context, jti string) (*model.PasswordResetToken, error)
	MarkTokenAsUsed(ctx context.Context, jti string) error
	InvalidateUserTokens(ctx context.Context, userID string) error
}

const passwordResetTokenCollection = "password_reset_tokens"

type passwordResetTokenMongoRepository struct {
	db *mongo.Database
}

// NewPasswordResetTokenMongoRepository creates a Mongo-backed
// PasswordResetTokenRepository.
func NewPasswordResetTokenMongoRepository(db *mongo.Database) PasswordResetTokenRepository {
	return &passwordResetTokenMongoRepository{db: db}
}

func (r *passwordResetTokenMongoRepository) CreateToken(
	ctx context.Context,
	token *model.PasswordResetToken,
) (*model.PasswordResetToken, error) {
	now := time.Now()
	token.CreatedAt = now
	token.UpdatedAt = now

	result, err := r.db.Collection(passwordResetTokenCollection).InsertOne(ctx, token)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		token.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return token, nil
}

func (r *passwordResetTokenMongoRepository) GetTokenByJTI(
	ctx context.Context,
	jti string,
) (*model.PasswordResetToken, error) {
	result := r.db.Collection(passwordResetTokenCollection).FindOne(ctx, bson.M{"jti": jti})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var token model.PasswordResetToken
	if err := result.Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

func (r *passwordResetTokenMongoRepository) MarkTokenAsUsed(ctx context.Context, jti string) error {
	_, err := r.db.Collection(passwordResetTokenCollection).UpdateOne(
		ctx,
		bson.M{"jti": jti},
		bson.M{"$set": bson.M{"used": true, "updated_at": time.Now()}},
	)
	return err
}

func (r *passwordResetTokenMongoRepository) InvalidateUserTokens(ctx context.Context, userID string) error {
	_, err := r.db.Collection(passwordResetTokenCollection).UpdateMany(
		ctx,
		bson.M{"user_id": userID, "used": false},
		bson.M{"$set": bson.M{"used": true, "updated_at": time.Now()}},
	)
	return err
}
