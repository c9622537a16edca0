package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaderOverrides(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		got, err := parseHeaderOverrides("")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("single header", func(t *testing.T) {
		got, err := parseHeaderOverrides("X-Atlassian-Token=no-check")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"X-Atlassian-Token": "no-check"}, got)
	})

	t.Run("multiple headers with spacing", func(t *testing.T) {
		got, err := parseHeaderOverrides("Authorization=Bearer abc; X-Foo=1 ;")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"Authorization": "Bearer abc",
			"X-Foo":         "1",
		}, got)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := parseHeaderOverrides("not-a-pair")
		require.Error(t, err)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := parseHeaderOverrides("=value")
		require.Error(t, err)
	})
}
