package guard_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/al-neptune/protocol/internal/guard"
)

func TestGuardRejectsReentry(t *testing.T) {
	g := guard.New("vault")

	release, err := g.Enter("allocate")
	require.NoError(t, err)
	require.True(t, g.Held())

	_, err = g.Enter("recall")
	require.ErrorIs(t, err, guard.ErrReentrantCall)
	require.Contains(t, err.Error(), "vault.recall")

	release()
	require.False(t, g.Held())

	release, err = g.Enter("recall")
	require.NoError(t, err)
	release()
}

func TestGuardReleasedOnErrorPath(t *testing.T) {
	g := guard.New("claims")

	failing := func() (err error) {
		release, err := g.Enter("claim")
		if err != nil {
			return err
		}
		defer release()
		return guard.ErrReentrantCall
	}

	require.Error(t, failing())
	require.False(t, g.Held())
}
