// Package payload defines the request and response bodies of the REST API.
package payload

type SignupRequest struct {
	Name       string `json:"name"        validate:"required,max=100"`
	Email      string `json:"email"       validate:"required,email"`
	Password   string `json:"password"    validate:"required,min=8"`
	RememberMe bool   `json:"remember_me"`
}

type LoginRequest struct {
	Email      string `json:"email"       validate:"required,email"`
	Password   string `json:"password"    validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type SocialLoginRequest struct {
	Provider   string `json:"provider"    validate:"required,oneof=google"`
	IDToken    string `json:"id_token"    validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type RequestPasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}
