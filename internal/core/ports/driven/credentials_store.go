package driven

import (
	"context"

	"github.com/gwenonit/outlook-cli/internal/core/domain"
)

// CredentialsStore persists CredentialRecords keyed by account identifier.
// Implementations own the at-rest representation exclusively; callers hold
// at most a transient in-memory copy while serving one operation.
type CredentialsStore interface {
	// Load reads the full persisted record set. A store that does not exist
	// yet yields an empty map, not an error. Returns
	// domain.ErrCorruptStore if the data cannot be parsed and
	// domain.ErrStoreUnavailable if the storage location is unreadable.
	Load(ctx context.Context) (map[string]domain.CredentialRecord, error)

	// Save atomically replaces the persisted record set. On failure the
	// prior persisted state remains intact. The persisted artifact is
	// readable and writable by the owner only.
	Save(ctx context.Context, records map[string]domain.CredentialRecord) error

	// Delete removes one record. Deleting an absent account is a no-op.
	Delete(ctx context.Context, account string) error
}
