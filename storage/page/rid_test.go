package page

import (
	"testing"

	"github.com/ArdxWe/crabtree/types"
	"github.com/stretchr/testify/require"
)

func TestRID(t *testing.T) {
	rid := RID{}
	rid.Set(types.PageID(0), uint32(0))
	require.Equal(t, types.PageID(0), rid.GetPageId())
	require.Equal(t, uint32(0), rid.GetSlot())

	rid2 := NewRID(types.PageID(3), 7)
	require.Equal(t, types.PageID(3), rid2.GetPageId())
	require.Equal(t, uint32(7), rid2.GetSlot())
}
