package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRefreshTestModePicksUpEnvChange(t *testing.T) {
	t.Setenv("TESSERA_TEST_MODE", "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv("TESSERA_TEST_MODE", "0")
	RefreshTestMode()
	require.False(t, InTestMode())

	t.Setenv("TESSERA_TEST_MODE", "1")
	RefreshTestMode()
	require.True(t, InTestMode())
}
