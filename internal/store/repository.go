package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "forex-journal/internal/errors"
	"forex-journal/internal/models"
)

// maxWriteAttempts bounds how often a mutation is re-applied after another
// process changed the stored list underneath it.
const maxWriteAttempts = 5

// Repository owns the in-memory trade list and mirrors every mutation to a
// BlobStore. The full list is written after each change, conditional on the
// version it was read at; when another writer got there first the list is
// reloaded and the change applied again. A failed write leaves the
// in-memory list as it was last read from the store.
type Repository struct {
	mu      sync.RWMutex
	trades  []models.TradeRecord
	version time.Time
	blobs   BlobStore
	key     string
	logger  zerolog.Logger
}

// NewRepository loads the trade list stored under key. A missing key yields
// an empty journal.
func NewRepository(ctx context.Context, blobs BlobStore, key string, logger zerolog.Logger) (*Repository, error) {
	if key == "" {
		key = DefaultTradesKey
	}
	r := &Repository{
		blobs:  blobs,
		key:    key,
		logger: logger.With().Str("component", "repository").Str("key", key).Logger(),
	}

	trades, version, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	r.trades, r.version = trades, version
	r.logger.Debug().Int("count", len(trades)).Msg("Trades loaded")
	return r, nil
}

// load reads the stored list and the version it was written at. The
// version is read first: if a write lands in between, the list is newer
// than its version and the next Put conflicts instead of losing it.
func (r *Repository) load(ctx context.Context) ([]models.TradeRecord, time.Time, error) {
	version, err := r.blobs.UpdatedAt(ctx, r.key)
	switch {
	case apperrors.Is(err, apperrors.ErrBlobNotFound):
		version = time.Time{}
	case err != nil:
		return nil, time.Time{}, apperrors.NewDataError(r.key, "loading trades", err)
	}

	data, err := r.blobs.Get(ctx, r.key)
	switch {
	case apperrors.Is(err, apperrors.ErrBlobNotFound):
		return []models.TradeRecord{}, version, nil
	case err != nil:
		return nil, time.Time{}, apperrors.NewDataError(r.key, "loading trades", err)
	}

	trades, err := DecodeTrades(data)
	if err != nil {
		return nil, time.Time{}, apperrors.NewDataError(r.key, "decoding trades", err)
	}
	if id, dup := duplicateID(trades); dup {
		return nil, time.Time{}, apperrors.NewDataError(r.key, "stored trades contain duplicate id "+id, apperrors.ErrDuplicateTrade)
	}
	if trades == nil {
		trades = []models.TradeRecord{}
	}
	return trades, version, nil
}

// Key returns the blob key the list is stored under.
func (r *Repository) Key() string {
	return r.key
}

// List returns a copy of the trades in insertion order.
func (r *Repository) List() []models.TradeRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneTrades(r.trades)
}

// Len returns the number of stored trades.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trades)
}

// Get returns the trade with the given id.
func (r *Repository) Get(id string) (models.TradeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.trades {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return models.TradeRecord{}, apperrors.Wrapf(apperrors.ErrTradeNotFound, "trade %s", id)
}

// Sync reloads the list if the store holds a newer version than the one in
// memory, and reports whether it did.
func (r *Repository) Sync(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sync(ctx)
}

func (r *Repository) sync(ctx context.Context) (bool, error) {
	version, err := r.blobs.UpdatedAt(ctx, r.key)
	switch {
	case apperrors.Is(err, apperrors.ErrBlobNotFound):
		version = time.Time{}
	case err != nil:
		return false, apperrors.NewDataError(r.key, "checking trades version", err)
	}
	if version.Equal(r.version) {
		return false, nil
	}

	trades, version, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	r.trades, r.version = trades, version
	r.logger.Debug().Int("count", len(trades)).Msg("Trades reloaded after external write")
	return true, nil
}

// Update applies change to the current list and persists the result. The
// change may run more than once: it is re-applied to the freshly loaded
// list whenever another writer updated the store first, so it must derive
// its result from the list it is given. An error from change aborts the
// update.
func (r *Repository) Update(ctx context.Context, change func(current []models.TradeRecord) ([]models.TradeRecord, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.sync(ctx); err != nil {
		return err
	}

	for attempt := 1; ; attempt++ {
		next, err := change(cloneTrades(r.trades))
		if err != nil {
			return err
		}
		if id, dup := duplicateID(next); dup {
			return apperrors.Wrapf(apperrors.ErrDuplicateTrade, "trade %s", id)
		}
		if next == nil {
			next = []models.TradeRecord{}
		}

		data, err := EncodeTrades(next)
		if err != nil {
			return apperrors.NewDataError(r.key, "encoding trades", err)
		}
		version, err := r.blobs.Put(ctx, r.key, data, r.version)
		if err == nil {
			r.trades, r.version = next, version
			return nil
		}
		if !apperrors.Is(err, apperrors.ErrBlobConflict) || attempt == maxWriteAttempts {
			r.logger.Error().Err(err).Int("attempt", attempt).Msg("Failed to persist trades")
			return apperrors.NewDataError(r.key, "persisting trades", err)
		}

		r.logger.Info().Int("attempt", attempt).Msg("Trades changed by another writer, reloading")
		trades, version, err := r.load(ctx)
		if err != nil {
			return err
		}
		r.trades, r.version = trades, version
	}
}

// Append adds a trade to the end of the list and persists the result.
func (r *Repository) Append(ctx context.Context, trade models.TradeRecord) error {
	err := r.Update(ctx, func(current []models.TradeRecord) ([]models.TradeRecord, error) {
		for _, t := range current {
			if t.ID == trade.ID {
				return nil, apperrors.Wrapf(apperrors.ErrDuplicateTrade, "trade %s", trade.ID)
			}
		}
		return append(current, trade.Clone()), nil
	})
	if err != nil {
		return err
	}
	r.logger.Debug().Str("trade_id", trade.ID).Msg("Trade appended")
	return nil
}

// Remove deletes the trade with the given id, keeping the order of the
// others, and persists the result.
func (r *Repository) Remove(ctx context.Context, id string) (models.TradeRecord, error) {
	var removed models.TradeRecord
	err := r.Update(ctx, func(current []models.TradeRecord) ([]models.TradeRecord, error) {
		for i, t := range current {
			if t.ID == id {
				removed = t
				return append(current[:i], current[i+1:]...), nil
			}
		}
		return nil, apperrors.Wrapf(apperrors.ErrTradeNotFound, "trade %s", id)
	})
	if err != nil {
		return models.TradeRecord{}, err
	}
	r.logger.Debug().Str("trade_id", id).Msg("Trade removed")
	return removed, nil
}

func cloneTrades(trades []models.TradeRecord) []models.TradeRecord {
	out := make([]models.TradeRecord, len(trades))
	for i, t := range trades {
		out[i] = t.Clone()
	}
	return out
}

func duplicateID(trades []models.TradeRecord) (string, bool) {
	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if _, dup := seen[t.ID]; dup {
			return t.ID, true
		}
		seen[t.ID] = struct{}{}
	}
	return "", false
}
