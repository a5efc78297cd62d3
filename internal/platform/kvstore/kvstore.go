// Package kvstore is the persistence boundary for the prescription manager.
// Every entity type is persisted as one serialized blob under a stable key,
// and every write fully replaces the previous blob. The package defines the
// Store interface plus file, in-memory, and Postgres backends.
package kvstore

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no blob exists under the key.
var ErrKeyNotFound = errors.New("kvstore: key not found")

// Well-known blob keys. Keys are arbitrary but must stay stable per entity
// type for the life of a data directory / database.
const (
	KeyPrescriptions   = "prescriptions"
	KeyPrescriptionSeq = "prescriptions:id-seq"
	KeyDoctors         = "doctors"
	KeyDoctorSeq       = "doctors:id-seq"
	KeyCurrentDoctor   = "doctors:current-id"
	KeyPatientRegistry = "patients:registry"
	KeyNextPUID        = "patients:next-puid"
	KeyDraft           = "draft:prescription"
)

// Store is a key -> blob store. Implementations must make Put a full
// overwrite that is atomic with respect to concurrent readers in the same
// process. There is no cross-process locking: the application assumes a
// single writer per data directory.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
