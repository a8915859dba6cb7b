package account

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeGenerator_Generate(t *testing.T) {
	gen := NewCodeGenerator(15 * time.Minute)

	for i := 0; i < 200; i++ {
		code, expiry, err := gen.Generate()
		require.NoError(t, err)

		assert.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)

		assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiry, time.Minute)
	}
}

func TestCodeGenerator_DefaultTTL(t *testing.T) {
	gen := NewCodeGenerator(0)
	assert.Equal(t, 15*time.Minute, gen.TTL())
}
