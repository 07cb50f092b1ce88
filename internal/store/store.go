// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"

	apperrors "forex-journal/internal/errors"
	"forex-journal/internal/models"
)

// DefaultTradesKey is the blob key the trade list is stored under.
const DefaultTradesKey = "forexTrades"

// BlobStore is a key-value store of opaque blobs. Values are always written
// and read whole. Every write stamps the key with a new version (its write
// time), and writes are conditional on that version so two processes
// sharing one store cannot overwrite each other's changes unseen.
type BlobStore interface {
	// Get returns the blob stored under key, or ErrBlobNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key only if the key's current version equals
	// expected; a zero expected means the key must not exist yet. It
	// returns the new version, or ErrBlobConflict when the key has moved.
	Put(ctx context.Context, key string, value []byte, expected time.Time) (time.Time, error)
	// UpdatedAt returns the key's current version, or ErrBlobNotFound.
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
	// Close releases the underlying resources.
	Close() error
}

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// nextVersion returns a write stamp strictly after expected, so a write
// landing within the clock's resolution still changes the version.
func nextVersion(expected time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(expected) {
		now = expected.Add(time.Microsecond)
	}
	return now
}

// EncodeTrades serializes the trade list as a single JSON array.
func EncodeTrades(trades []models.TradeRecord) ([]byte, error) {
	if trades == nil {
		trades = []models.TradeRecord{}
	}
	data, err := codec.Marshal(trades)
	if err != nil {
		return nil, apperrors.Wrap(err, "encoding trades")
	}
	return data, nil
}

// DecodeTrades parses a JSON array of trades. Unknown enumeration values are
// rejected.
func DecodeTrades(data []byte) ([]models.TradeRecord, error) {
	var trades []models.TradeRecord
	if len(data) == 0 {
		return trades, nil
	}
	if err := codec.Unmarshal(data, &trades); err != nil {
		return nil, apperrors.Wrap(err, "decoding trades")
	}
	return trades, nil
}
