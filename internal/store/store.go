package store

import (
	"context"
	"errors"

	"github.com/KigaliAI/youtufy-app/internal/model"
)

// ErrNotFound means no credential exists for the user identity. Callers must
// treat it as "re-authorization required", never as a storage failure.
var ErrNotFound = errors.New("store: credential not found")

// ErrStorage marks persistence-layer failures (I/O, connection, serialization).
// It is distinct from ErrNotFound: a failing backend is never reported as
// "absent". Wrap with fmt.Errorf("...: %w", ErrStorage).
var ErrStorage = errors.New("store: storage failure")

// CredentialStore persists one OAuth credential record per user identity.
// Keyed strictly by user ID; implementations must not leak records across
// users.
type CredentialStore interface {
	Get(ctx context.Context, userID string) (*model.Credential, error)
	Put(ctx context.Context, userID string, cred *model.Credential) error
	Delete(ctx context.Context, userID string) error
}

// FavoriteStore persists a per-user set of favorite channel IDs.
type FavoriteStore interface {
	Add(ctx context.Context, userID, channelID string) error
	Remove(ctx context.Context, userID, channelID string) error
	List(ctx context.Context, userID string) ([]string, error)
}
