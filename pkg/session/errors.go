package session

import "errors"

var (
	// ErrInvalidCredentials is returned by Login when the email/password
	// pair is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailAlreadyInUse is returned by Signup when an account already
	// exists for the email.
	ErrEmailAlreadyInUse = errors.New("email already in use")

	// ErrNotAuthenticated is returned by operations that require an active
	// identity.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrWalletProviderUnavailable is returned by ConnectWallet when no
	// wallet provider has been injected.
	ErrWalletProviderUnavailable = errors.New("wallet provider unavailable")

	// ErrNoAccountsAvailable is returned by ConnectWallet when the wallet
	// provider reports zero accounts.
	ErrNoAccountsAvailable = errors.New("no wallet accounts available")

	// ErrProviderLinkConflict is returned by LinkProvider when the external
	// account is already tied to a different identity.
	ErrProviderLinkConflict = errors.New("provider is linked to another identity")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("session store closed")
)
