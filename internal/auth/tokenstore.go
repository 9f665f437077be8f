package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roktofy/client/internal/model"
	"github.com/roktofy/client/internal/storage"
)

// CredentialsKey is the storage key holding the credential pair
const CredentialsKey = "authTokens"

// ErrNoCredentials is returned when an operation needs a stored credential pair
var ErrNoCredentials = errors.New("not logged in")

// TokenStore persists the credential pair. It is the only writer of
// CredentialsKey.
type TokenStore struct {
	storage storage.Storage
	logger  *zap.Logger
}

// NewTokenStore creates a token store over the given storage
func NewTokenStore(s storage.Storage, logger *zap.Logger) *TokenStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenStore{storage: s, logger: logger}
}

// Load returns the stored pair, or nil when absent. A malformed value is
// treated as absent.
func (t *TokenStore) Load(ctx context.Context) (*model.Credentials, error) {
	raw, ok, err := t.storage.Get(ctx, CredentialsKey)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var creds model.Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		t.logger.Debug("ignoring malformed stored credentials", zap.Error(err))
		return nil, nil
	}
	if creds.Access == "" {
		t.logger.Debug("ignoring stored credentials without access token")
		return nil, nil
	}
	return &creds, nil
}

// Save writes the pair, overwriting any previous value
func (t *TokenStore) Save(ctx context.Context, creds model.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := t.storage.Set(ctx, CredentialsKey, string(data)); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Clear removes the pair
func (t *TokenStore) Clear(ctx context.Context) error {
	if err := t.storage.Remove(ctx, CredentialsKey); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
