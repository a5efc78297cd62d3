// Package sequence issues the monotonically increasing integer IDs used for
// prescription and doctor records. Counters are persisted independently of
// the records they number and self-heal from the records when lost.
package sequence

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/chamberdesk/chamberdesk/internal/platform/kvstore"
)

// MaxExistingFunc reports the highest record id currently persisted for the
// allocator's kind, or 0 when there are none. It is consulted only when the
// counter blob is missing or non-positive.
type MaxExistingFunc func(ctx context.Context) int

// Allocator issues ids for one record kind. It never returns an error: when
// the backing store cannot be read it falls back to the sentinel id 1, which
// is acceptable only because there is a single writer per data directory.
type Allocator struct {
	kv          kvstore.Store
	key         string
	maxExisting MaxExistingFunc
	log         zerolog.Logger
}

// New creates an allocator persisting its counter under key.
func New(kv kvstore.Store, key string, maxExisting MaxExistingFunc, log zerolog.Logger) *Allocator {
	return &Allocator{kv: kv, key: key, maxExisting: maxExisting, log: log}
}

// NextID returns the next id in the sequence. A missing or non-positive
// counter is reseeded from the maximum existing record id before
// incrementing, so losing the counter blob never reissues a live id.
func (a *Allocator) NextID(ctx context.Context) int {
	current := 0

	raw, err := a.kv.Get(ctx, a.key)
	switch {
	case err == nil:
		n, perr := strconv.Atoi(string(raw))
		if perr == nil && n > 0 {
			current = n
		}
	case errors.Is(err, kvstore.ErrKeyNotFound):
		// First use: seed below.
	default:
		a.log.Warn().Err(err).Str("key", a.key).Msg("sequence counter unreadable")
		return 1
	}

	if current == 0 && a.maxExisting != nil {
		current = a.maxExisting(ctx)
	}

	next := current + 1
	if err := a.kv.Put(ctx, a.key, []byte(strconv.Itoa(next))); err != nil {
		a.log.Warn().Err(err).Str("key", a.key).Msg("sequence counter not persisted")
	}
	return next
}

// Reset deletes the persisted counter. The next NextID call reseeds from
// whatever records still exist.
func (a *Allocator) Reset(ctx context.Context) {
	if err := a.kv.Delete(ctx, a.key); err != nil {
		a.log.Warn().Err(err).Str("key", a.key).Msg("sequence counter not reset")
	}
}
