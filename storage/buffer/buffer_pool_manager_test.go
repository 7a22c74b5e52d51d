package buffer

import (
	"crypto/rand"
	"testing"

	"github.com/ArdxWe/crabtree/storage/disk"
	"github.com/ArdxWe/crabtree/storage/page"
	"github.com/ArdxWe/crabtree/storageerr"
	"github.com/ArdxWe/crabtree/types"
	"github.com/stretchr/testify/require"
)

func TestBufferPoolManagerBinaryData(t *testing.T) {
	poolSize := uint32(10)

	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	page0, err := bpm.NewPage()
	require.NoError(t, err)

	// Scenario: The buffer pool is empty. We should be able to create a new page.
	require.Equal(t, types.PageID(0), page0.ID())

	randomBinaryData := make([]byte, page.PageSize)
	rand.Read(randomBinaryData)
	randomBinaryData[page.PageSize/2] = '0'
	randomBinaryData[page.PageSize-1] = '0'

	var fixedRandomBinaryData [page.PageSize]byte
	copy(fixedRandomBinaryData[:], randomBinaryData[:page.PageSize])

	page0.Copy(0, randomBinaryData)
	require.Equal(t, fixedRandomBinaryData, *page0.Data())

	// Scenario: We should be able to create new pages until we fill up the buffer pool.
	for i := uint32(1); i < poolSize; i++ {
		p, err := bpm.NewPage()
		require.NoError(t, err)
		require.Equal(t, types.PageID(i), p.ID())
	}

	// Scenario: Once the buffer pool is full, we should not be able to create any new pages.
	for i := poolSize; i < poolSize*2; i++ {
		_, err := bpm.NewPage()
		require.ErrorIs(t, err, storageerr.ErrOutOfMemory)
	}

	// Scenario: After unpinning pages {0, 1, 2, 3, 4} and pinning another 4 new
	// pages, there would still be one cache frame left for reading page 0.
	for i := 0; i < 5; i++ {
		require.NoError(t, bpm.UnpinPage(types.PageID(i), true))
		bpm.FlushPage(types.PageID(i))
	}
	for i := 0; i < 4; i++ {
		_, err := bpm.NewPage()
		require.NoError(t, err)
	}

	// Scenario: We should be able to fetch the data we wrote a while ago.
	page0, err = bpm.FetchPage(types.PageID(0))
	require.NoError(t, err)
	require.Equal(t, fixedRandomBinaryData, *page0.Data())
	require.NoError(t, bpm.UnpinPage(types.PageID(0), true))
}

func TestBufferPoolManagerSample(t *testing.T) {
	poolSize := uint32(10)

	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	page0, err := bpm.NewPage()
	require.NoError(t, err)
	require.Equal(t, types.PageID(0), page0.ID())

	page0.Copy(0, []byte("Hello"))
	want := [page.PageSize]byte{'H', 'e', 'l', 'l', 'o'}
	require.Equal(t, want, *page0.Data())

	for i := uint32(1); i < poolSize; i++ {
		p, err := bpm.NewPage()
		require.NoError(t, err)
		require.Equal(t, types.PageID(i), p.ID())
	}

	for i := poolSize; i < poolSize*2; i++ {
		_, err := bpm.NewPage()
		require.ErrorIs(t, err, storageerr.ErrOutOfMemory)
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, bpm.UnpinPage(types.PageID(i), true))
		bpm.FlushPage(types.PageID(i))
	}
	for i := 0; i < 4; i++ {
		_, err := bpm.NewPage()
		require.NoError(t, err)
	}

	page0, err = bpm.FetchPage(types.PageID(0))
	require.NoError(t, err)
	require.Equal(t, want, *page0.Data())

	// Scenario: If we unpin page 0 and then make a new page, all the buffer
	// pages should now be pinned. Fetching page 0 should fail.
	require.NoError(t, bpm.UnpinPage(types.PageID(0), true))

	newPage, err := bpm.NewPage()
	require.NoError(t, err)
	require.Equal(t, types.PageID(14), newPage.ID())

	_, err = bpm.NewPage()
	require.ErrorIs(t, err, storageerr.ErrOutOfMemory)

	_, err = bpm.FetchPage(types.PageID(0))
	require.ErrorIs(t, err, storageerr.ErrOutOfMemory)
}

func TestBufferPoolManagerDeletePage(t *testing.T) {
	poolSize := uint32(4)
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	p, err := bpm.NewPage()
	require.NoError(t, err)
	id := p.ID()

	require.ErrorIs(t, bpm.DeletePage(id), storageerr.ErrPagePinned)

	require.NoError(t, bpm.UnpinPage(id, false))
	require.NoError(t, bpm.DeletePage(id))

	_, err = bpm.FetchPage(id)
	require.NoError(t, err) // re-reads a zeroed page, since the disk manager zero-fills unwritten pages
}
