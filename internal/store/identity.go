package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/sectionsmith/sectionsmith-server/internal/errors"
)

const keyServerID = "meta:server_id"

// ServerID returns this installation's stable identifier, generating and
// persisting one on first call. Extensions use it to tell backends apart
// when several are reachable.
func (s *Store) ServerID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var id string
	err := s.get([]byte(keyServerID), &id)
	if err == nil {
		return id, nil
	}
	if !isNotFound(err) {
		return "", errors.Wrap(err, errors.CodeInternal, "load server id")
	}

	id = uuid.NewString()
	if err := s.set([]byte(keyServerID), id); err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "store server id")
	}
	s.logger.Info("generated server id", "server_id", id)
	return id, nil
}
