package param

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvFetcher(t *testing.T) {
	t.Run("returns the variable's value", func(t *testing.T) {
		t.Setenv("BRIEFSPARK_TEST_CRED", "sekret")

		value, err := EnvFetcher{}.Fetch(context.Background(), "BRIEFSPARK_TEST_CRED")
		require.NoError(t, err)
		assert.Equal(t, "sekret", value)
	})

	t.Run("errors when unset", func(t *testing.T) {
		_, err := EnvFetcher{}.Fetch(context.Background(), "BRIEFSPARK_TEST_MISSING")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BRIEFSPARK_TEST_MISSING")
	})
}
