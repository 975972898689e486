package idx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextID(t *testing.T) {
	first, err := NextID()
	require.NoError(t, err)
	second, err := NextID()
	require.NoError(t, err)
	assert.Greater(t, second, first)
}
