// Package draft persists the single in-progress prescription form draft.
// The draft shares the blob persistence boundary with the stores but is
// opaque to the server: it is saved and returned as raw JSON, overwritten on
// every save and cleared on successful submit or explicit reset.
package draft

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/chamberdesk/chamberdesk/internal/platform/kvstore"
)

// ErrNoDraft is returned by Load when no draft is saved.
var ErrNoDraft = errors.New("draft: none saved")

type Store struct {
	kv  kvstore.Store
	log zerolog.Logger
}

func NewStore(kv kvstore.Store, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log}
}

// Load returns the saved draft blob, or ErrNoDraft. A storage failure reads
// as no draft.
func (s *Store) Load(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.kv.Get(ctx, kvstore.KeyDraft)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			s.log.Warn().Err(err).Msg("draft unreadable")
		}
		return nil, ErrNoDraft
	}
	if !json.Valid(raw) {
		s.log.Warn().Msg("draft malformed, discarding")
		return nil, ErrNoDraft
	}
	return raw, nil
}

// Save overwrites the draft.
func (s *Store) Save(ctx context.Context, body json.RawMessage) {
	if err := s.kv.Put(ctx, kvstore.KeyDraft, body); err != nil {
		s.log.Warn().Err(err).Msg("draft not persisted")
	}
}

// Clear removes the draft; no-op if absent.
func (s *Store) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, kvstore.KeyDraft); err != nil {
		s.log.Warn().Err(err).Msg("draft not cleared")
	}
}
