package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewServer(cause)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, TypeServer, gerr.Type())
	assert.Equal(t, CodeInternal, gerr.Code())
	assert.Equal(t, "Internal server error", gerr.Msg())
	assert.Equal(t, http.StatusInternalServerError, gerr.StatusCode())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection reset", err.Error())
}

func TestNewBusinessCause(t *testing.T) {
	sentinel := errors.New("limit exceeded")
	err := NewBusinessCause(sentinel, "Too many requests", CodeTooManyRequest)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, TypeBusiness, gerr.Type())
	assert.Equal(t, "Too many requests", gerr.Msg())
	assert.Equal(t, http.StatusTooManyRequests, gerr.StatusCode())
}

func TestNewInvalidInput(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		err := NewInvalidInput(errors.New("address is required"))

		var gerr *Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, CodeInvalidInput, gerr.Code())
		assert.Equal(t, http.StatusUnprocessableEntity, gerr.StatusCode())
	})

	t.Run("with fields", func(t *testing.T) {
		err := NewInvalidInput(nil, "pass", "pass is required")

		var gerr *Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, map[string]string{"pass": "pass is required"}, gerr.Fields())
	})

	t.Run("odd fields", func(t *testing.T) {
		err := NewInvalidInput(nil, "pass")

		var gerr *Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, CodeInvalidFormat, gerr.Code())
	})
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidFormat, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeConflict, http.StatusConflict},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			var gerr *Error
			require.ErrorAs(t, NewBusiness("x", tt.code), &gerr)
			assert.Equal(t, tt.want, gerr.StatusCode())
		})
	}
}
