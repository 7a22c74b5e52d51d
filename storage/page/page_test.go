package page

import (
	"testing"

	"github.com/ArdxWe/crabtree/types"
	"github.com/stretchr/testify/require"
)

func TestNewPage(t *testing.T) {
	p := New(types.PageID(0), false, &[PageSize]byte{})

	require.Equal(t, types.PageID(0), p.ID())
	require.EqualValues(t, 1, p.PinCount())
	p.IncPinCount()
	require.EqualValues(t, 2, p.PinCount())
	p.DecPinCount()
	p.DecPinCount()
	require.EqualValues(t, 0, p.PinCount())
	require.False(t, p.IsDirty())
	p.SetIsDirty(true)
	require.True(t, p.IsDirty())
	p.Copy(0, []byte{'H', 'E', 'L', 'L', 'O'})
	want := [PageSize]byte{'H', 'E', 'L', 'L', 'O'}
	require.Equal(t, want, *p.Data())
}

func TestEmptyPage(t *testing.T) {
	p := NewEmpty(types.PageID(0))

	require.Equal(t, types.PageID(0), p.ID())
	require.EqualValues(t, 1, p.PinCount())
	require.False(t, p.IsDirty())
	require.Equal(t, [PageSize]byte{}, *p.Data())
}

func TestPageLatch(t *testing.T) {
	p := NewEmpty(types.PageID(0))
	p.RLock()
	p.RUnlock()
	p.WLock()
	p.WUnlock()
}
