// Package identity wraps the Firebase Auth admin client behind a small
// provider interface so the enrollment finalizer can be tested against a
// fake and the account-exists case stays distinguishable from outages.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/auth"
)

var (
	// ErrAccountExists means an account with the given email is already
	// registered. The finalizer treats this as a success-path continuation,
	// never a user-facing error.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidCredential means the email or credential secret fails the
	// provider's validation rules.
	ErrInvalidCredential = errors.New("invalid email or credential secret")
	// ErrProviderUnavailable covers any other provider failure.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	// ErrAccountNotFound is returned by LookupByEmail when no account matches.
	ErrAccountNotFound = errors.New("account not found")
)

// Provider is the identity-provider boundary.
type Provider interface {
	// CreateAccount registers a new account and returns its ID.
	CreateAccount(ctx context.Context, email, secret, displayName string) (string, error)
	// LookupByEmail resolves an existing account ID, used when CreateAccount
	// reports ErrAccountExists on a repeated finalize call.
	LookupByEmail(ctx context.Context, email string) (string, error)
}

// minSecretLength matches the Firebase Auth password policy minimum.
const minSecretLength = 6

type firebaseProvider struct {
	authClient *auth.Client
}

// NewFirebaseProvider creates a Provider backed by Firebase Auth.
func NewFirebaseProvider(authClient *auth.Client) Provider {
	if authClient == nil {
		panic("identity: Firebase Auth client is nil")
	}
	return &firebaseProvider{authClient: authClient}
}

func (p *firebaseProvider) CreateAccount(ctx context.Context, email, secret, displayName string) (string, error) {
	// Validate locally before the network call so credential problems are
	// reported as ErrInvalidCredential rather than an opaque provider error.
	if !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: malformed email", ErrInvalidCredential)
	}
	if len(secret) < minSecretLength {
		return "", fmt.Errorf("%w: secret shorter than %d characters", ErrInvalidCredential, minSecretLength)
	}

	params := (&auth.UserToCreate{}).
		Email(email).
		Password(secret).
		DisplayName(displayName)

	user, err := p.authClient.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", fmt.Errorf("%w: %s", ErrAccountExists, email)
		}
		return "", fmt.Errorf("%w: create user: %v", ErrProviderUnavailable, err)
	}
	return user.UID, nil
}

func (p *firebaseProvider) LookupByEmail(ctx context.Context, email string) (string, error) {
	user, err := p.authClient.GetUserByEmail(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrAccountNotFound, email)
		}
		return "", fmt.Errorf("%w: lookup user: %v", ErrProviderUnavailable, err)
	}
	return user.UID, nil
}
