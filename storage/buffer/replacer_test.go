package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLRUReplacer(t *testing.T) {
	r := NewLRUReplacer(7)

	// Scenario: unpin six elements, i.e. add them to the replacer. Unpin
	// of an already-tracked frame (1, the second time) is a no-op and
	// does not move it to the front.
	r.Unpin(1)
	r.Unpin(2)
	r.Unpin(3)
	r.Unpin(4)
	r.Unpin(5)
	r.Unpin(6)
	r.Unpin(1)
	require.EqualValues(t, 6, r.Size())

	// Scenario: get three victims. Least-recently-unpinned comes first.
	value, ok := r.Victim()
	require.True(t, ok)
	require.Equal(t, FrameID(1), value)
	value, ok = r.Victim()
	require.True(t, ok)
	require.Equal(t, FrameID(2), value)
	value, ok = r.Victim()
	require.True(t, ok)
	require.Equal(t, FrameID(3), value)

	// Scenario: pin elements. 3 has already been victimized, so pinning
	// it has no effect.
	r.Pin(3)
	r.Pin(4)
	require.EqualValues(t, 2, r.Size())

	// Scenario: unpin 4 again, making it eligible once more. It was most
	// recently unpinned so should be victimized last.
	r.Unpin(4)

	value, ok = r.Victim()
	require.True(t, ok)
	require.Equal(t, FrameID(5), value)
	value, ok = r.Victim()
	require.True(t, ok)
	require.Equal(t, FrameID(6), value)
	value, ok = r.Victim()
	require.True(t, ok)
	require.Equal(t, FrameID(4), value)

	_, ok = r.Victim()
	require.False(t, ok)
}
