package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputError_Unwrap(t *testing.T) {
	err := NewInputError("expected 2-5 fund ids, got %d", 1)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrFundNotFound))
	assert.True(t, IsInputError(err))
	assert.Equal(t, "expected 2-5 fund ids, got 1", err.Error())
}

func TestNotFoundError_NamesIDs(t *testing.T) {
	err := NewNotFoundError([]string{"VAS.AU", "IOZ.AU"})
	assert.True(t, errors.Is(err, ErrFundNotFound))
	assert.True(t, IsInputError(err))
	assert.Contains(t, err.Error(), "VAS.AU")
	assert.Contains(t, err.Error(), "IOZ.AU")

	var ie *InputError
	assert.True(t, errors.As(fmt.Errorf("compare: %w", err), &ie))
	assert.Equal(t, []string{"VAS.AU", "IOZ.AU"}, ie.MissingIDs)
}

func TestDataUnavailable_WrapsBoth(t *testing.T) {
	cause := errors.New("connection refused")
	err := DataUnavailable("fetch funds", cause)

	assert.True(t, errors.Is(err, ErrDataUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, IsInputError(err))
}
