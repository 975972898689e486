package code

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestLoading(t *testing.T) {
	assert.NoError(t, Loading())
}

func TestTaxonomyStatus(t *testing.T) {
	assert.Equal(t, http.StatusConflict, ErrIncorrectState.StatusCode())
	assert.Equal(t, http.StatusBadRequest, ErrActiveOrderExists.StatusCode())
	assert.Equal(t, http.StatusBadRequest, ErrValidation.StatusCode())

	wrapped := errors.WithStack(ErrIncorrectState.WithResult("resource is CREATING"))
	assert.True(t, errors.Is(wrapped, ErrIncorrectState))
	assert.False(t, errors.Is(wrapped, ErrValidation))
}
