package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardIsAdmin(t *testing.T) {
	t.Parallel()

	g := NewGuard("admin")
	assert.True(t, g.IsAdmin("admin"))
	assert.False(t, g.IsAdmin("alice"))
	assert.False(t, g.IsAdmin(""))
	assert.Equal(t, "admin", g.Admin())
}

func TestGuardTransfer(t *testing.T) {
	t.Parallel()

	g := NewGuard("admin")

	require.ErrorIs(t, g.Transfer("alice", "bob"), ErrUnauthorized)
	require.ErrorIs(t, g.Transfer("admin", ""), ErrEmptyIdentity)
	assert.Equal(t, "admin", g.Admin())

	require.NoError(t, g.Transfer("admin", "bob"))
	assert.True(t, g.IsAdmin("bob"))
	assert.False(t, g.IsAdmin("admin"))

	// The old holder lost the capability entirely.
	require.ErrorIs(t, g.Transfer("admin", "carol"), ErrUnauthorized)
}
