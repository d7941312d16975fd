package store

import (
	"context"

	"github.com/sectionsmith/sectionsmith-server/internal/errors"
)

const keyAPICredential = "credentials:llm_api_key"

// Credentials exposes the stored LLM API key. It satisfies the conversion
// layer's key source so key changes take effect immediately.
type Credentials struct {
	store *Store
}

// Credentials returns the credential accessor backed by this store.
func (s *Store) Credentials() *Credentials {
	return &Credentials{store: s}
}

// APIKey returns the stored key, or the empty string when none is set.
func (c *Credentials) APIKey(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var key string
	err := c.store.get([]byte(keyAPICredential), &key)
	if isNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "load api key")
	}
	return key, nil
}

// SetAPIKey stores the key. An empty key is rejected; use DeleteAPIKey to
// clear the credential.
func (c *Credentials) SetAPIKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return errors.InvalidArgument("api key must not be empty")
	}
	if err := c.store.set([]byte(keyAPICredential), key); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "store api key")
	}
	c.store.logger.Info("api key updated")
	return nil
}

// DeleteAPIKey removes the stored key. Idempotent.
func (c *Credentials) DeleteAPIKey(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.store.delete([]byte(keyAPICredential)); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "delete api key")
	}
	c.store.logger.Info("api key removed")
	return nil
}
