package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePersona(t *testing.T) {
	p, err := ParsePersona(" Travel ")
	require.NoError(t, err)
	assert.Equal(t, PersonaTravel, p)
	assert.Equal(t, "Travel", p.Title())

	_, err = ParsePersona("pirate")
	require.ErrorIs(t, err, ErrValidation)
	var coded *Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, CodeValidation, coded.Code)
}

func TestParseShape(t *testing.T) {
	assert.Equal(t, ShapeHotels, ParseShape("hotels", ShapeGeneral))
	assert.Equal(t, ShapeGeneral, ParseShape("", ShapeGeneral))
	assert.Equal(t, ShapeProducts, ParseShape("spaceships", ShapeProducts))
	assert.Equal(t, "hotel", ShapeHotels.ResultType())
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{Validation("bad", "bad input"), false},
		{fmt.Errorf("wrapped: %w", ErrNotFound), false},
		{ErrOutOfStock, false},
		{NewError(CodeProviderUnavailable, "no_key", ErrProviderUnavailable), false},
		{NewError(CodeProviderError, "timeout", ErrProviderError), true},
		{errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTransient(tt.err), "err=%v", tt.err)
	}
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "NOT_FOUND (missing)", NewError(CodeNotFound, "missing", nil).Error())
	assert.Equal(t, "validation error: title is required", Validation("empty_title", "title is required").Error())
}
