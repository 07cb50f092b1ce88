package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "result", Message: "is required"},
		{Field: "date", Message: "is required"},
	}}

	wrapped := fmt.Errorf("creating trade: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInputValidation))
	assert.False(t, errors.Is(wrapped, ErrTradeNotFound))
	assert.Equal(t, []string{"date", "result"}, err.FieldNames())
	assert.Contains(t, err.Error(), "result: is required")

	var ve *ValidationError
	assert.True(t, As(wrapped, &ve))
	assert.Len(t, ve.Fields, 2)
}

func TestDataErrorUnwrap(t *testing.T) {
	err := NewDataError("forexTrades", "decoding trades", ErrDatabaseError)
	assert.True(t, Is(err, ErrDatabaseError))
	assert.Equal(t, "data error [forexTrades]: decoding trades: database error", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.EqualError(t, Wrapf(ErrTradeNotFound, "deleting %s", "42"), "deleting 42: trade not found")
}
