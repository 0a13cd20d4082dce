package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID_Generate(t *testing.T) {
	id := NewUUID().Generate()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestSnowflake_Generate(t *testing.T) {
	_, err := NewSnowflake(5000)
	require.Error(t, err)

	gen, err := NewSnowflake(1)
	require.NoError(t, err)

	seen := make(map[int64]struct{})
	prev := int64(0)
	for range 1000 {
		id := gen.Generate()
		assert.Greater(t, id, prev)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
		prev = id
	}
}
