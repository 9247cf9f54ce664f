package session

import "context"

// WalletProvider abstracts the external wallet extension. It is injected
// into the store so wallet flows can run against a fake in tests instead of
// depending on a global bridge object being present.
type WalletProvider interface {
	// Accounts returns the addresses the wallet currently exposes, in
	// preference order. An empty slice means the wallet is installed but
	// holds no accounts.
	Accounts(ctx context.Context) ([]string, error)

	// ChainID returns the chain the wallet is connected to, as a decimal
	// string.
	ChainID(ctx context.Context) (string, error)

	// OnAccountsChanged registers a callback invoked whenever the exposed
	// account set changes. The returned function unregisters it.
	OnAccountsChanged(cb func(accounts []string)) (unsubscribe func())
}
