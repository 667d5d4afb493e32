package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only and exists so headless deployments can supply a token
// without touching a keychain or config file.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	sessionToken := os.Getenv("IGRESOLVER_SESSION_TOKEN")
	if sessionToken == "" {
		return nil, ErrCredentialsNotFound
	}

	// The environment carries no username of its own
	if username == "" {
		username = os.Getenv("IGRESOLVER_USERNAME")
	}
	if username == "" {
		username = "default"
	}

	return &Account{
		Username:     username,
		SessionToken: sessionToken,
		UserAgent:    os.Getenv("IGRESOLVER_USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment credentials are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	return os.Getenv("IGRESOLVER_SESSION_TOKEN") != ""
}
