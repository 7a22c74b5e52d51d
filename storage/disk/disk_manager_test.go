package disk

import (
	"testing"

	"github.com/ArdxWe/crabtree/common"
	"github.com/stretchr/testify/require"
)

func TestReadWritePage(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	data := make([]byte, common.PageSize)
	buffer := make([]byte, common.PageSize)

	copy(data, "A test string.")

	require.NoError(t, dm.ReadPage(0, buffer)) // tolerate empty read
	require.NoError(t, dm.WritePage(0, data))
	require.NoError(t, dm.ReadPage(0, buffer))
	require.Equal(t, data, buffer)

	for i := range buffer {
		buffer[i] = 0
	}
	copy(data, "Another test string.")

	require.NoError(t, dm.WritePage(5, data))
	require.NoError(t, dm.ReadPage(5, buffer))
	require.Equal(t, data, buffer)
}

func TestAllocatePageIsMonotonic(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	first := dm.AllocatePage()
	second := dm.AllocatePage()
	require.Less(t, int32(first), int32(second))
}
