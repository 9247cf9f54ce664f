package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/creatorhub/creator-hub-api/internal/auth"
	"github.com/creatorhub/creator-hub-api/internal/config"
	"github.com/creatorhub/creator-hub-api/internal/model"
	"github.com/creatorhub/creator-hub-api/internal/repository"
	"github.com/creatorhub/creator-hub-api/internal/security"
)

// PasswordResetUsecase defines the business logic for password reset token
// operations.
type PasswordResetUsecase interface {
	// RequestPasswordReset initiates the password reset process for a given email.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword resets the account's password using the provided jti and new password.
	ResetPassword(ctx context.Context, jti, newPassword string) error
}

var (
	ErrTokenNotFound    = errors.New("password reset token not found")
	ErrTokenAlreadyUsed = errors.New("password reset token has already been used")
	ErrTokenExpired     = errors.New("password reset token has expired")
	ErrInvalidToken     = errors.New("invalid password reset token")
)

// MailSender sends transactional email; satisfied by *mailer.Mailer.
type MailSender interface {
	SendHTML(to []string, subject, htmlBody string) error
}

type passwordResetUsecase struct {
	accountRepo repository.AccountRepository
	tokenRepo   repository.PasswordResetTokenRepository
	jwtAuth     auth.JWTAuthenticator
	mail        MailSender
	cfg         *config.Config
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	accountRepo repository.AccountRepository,
	tokenRepo repository.PasswordResetTokenRepository,
	jwtAuth auth.JWTAuthenticator,
	mail MailSender,
	cfg *config.Config,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		accountRepo: accountRepo,
		tokenRepo:   tokenRepo,
		jwtAuth:     jwtAuth,
		mail:        mail,
		cfg:         cfg,
	}
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := u.accountRepo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// To prevent email enumeration, do not reveal that the email does not exist.
			return nil
		}
		return err
	}

	// Invalidate any existing unused tokens for this account.
	if err := u.tokenRepo.InvalidateUserTokens(ctx, account.UserID); err != nil {
		return err
	}

	tokenStr, jti, err := u.generatePasswordResetToken(account.UserID, account.Email)
	if err != nil {
		return err
	}

	resetToken := &model.PasswordResetToken{
		JTI:       jti,
		UserID:    account.UserID,
		Email:     account.Email,
		Used:      false,
		ExpiresAt: time.Now().Add(u.cfg.Token.PasswordResetTokenExpiresIn),
	}

	if _, err := u.tokenRepo.CreateToken(ctx, resetToken); err != nil {
		return err
	}

	resetLink := fmt.Sprintf("%s?token=%s", u.cfg.App.PasswordResetURL, tokenStr)
	htmlBody := fmt.Sprintf(`
		<p>Hi,</p>
		<p>We received a request to reset the password for your Creator Hub account.</p>
		<p>If you made this request, please click the link below to create a new password:</p>

		<p><a href="%s">%s</a></p>

		<p>This link will expire in %s.</p>
		<p>If you did not request a password reset, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>The Creator Hub Team</p>
	`, resetLink, resetLink, u.cfg.Token.PasswordResetTokenExpiresIn)

	return u.mail.SendHTML([]string{account.Email}, "Password Reset Request", htmlBody)
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, jti, newPassword string) error {
	resetToken, err := u.tokenRepo.GetTokenByJTI(ctx, jti)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTokenNotFound
		}
		return err
	}

	if resetToken.Used {
		return ErrTokenAlreadyUsed
	}

	if time.Now().After(resetToken.ExpiresAt) {
		return ErrTokenExpired
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := u.accountRepo.UpdatePasswordHash(ctx, resetToken.UserID, passwordHash); err != nil {
		return err
	}

	return u.tokenRepo.MarkTokenAsUsed(ctx, jti)
}

// generatePasswordResetToken creates a password reset JWT with a unique JTI.
func (u *passwordResetUsecase) generatePasswordResetToken(userID, email string) (string, string, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", "", err
	}

	now := time.Now()
	claims := auth.PasswordResetClaims{
		UserID: userID,
		Email:  email,
		JTI:    jti,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    u.cfg.Token.Issuer,
			Audience:  jwt.ClaimStrings{u.cfg.Token.Issuer},
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(u.cfg.Token.PasswordResetTokenExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	tokenStr, err := u.jwtAuth.GenerateToken(claims, u.cfg.Token.PasswordResetTokenSecret)
	if err != nil {
		return "", "", err
	}

	return tokenStr, jti, nil
}

func generateJTI() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
