package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFile(t *testing.T) *LocalFile {
	t.Helper()
	f, err := OpenLocalFile(t.TempDir(), "heap")
	require.NoError(t, err)
	return f
}

func TestLocalFile_AllocateReadWrite(t *testing.T) {
	f := newTestFile(t)
	defer f.Close()

	p, err := f.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, uint32(0), p.Number)
	require.Len(t, p.Data, PageSize)

	p.Data[0] = 7
	require.NoError(t, f.WritePage(p))

	reread, err := f.ReadPage(0)
	require.NoError(t, err)
	require.Equal(t, byte(7), reread.Data[0])
}

func TestLocalFile_ReadPage_NeverAllocated(t *testing.T) {
	f := newTestFile(t)
	defer f.Close()

	_, err := f.ReadPage(42)
	require.ErrorIs(t, err, ErrInvalidPage)
}

func TestLocalFile_AllocatePage_MonotonicNumbers(t *testing.T) {
	f := newTestFile(t)
	defer f.Close()

	p0, err := f.AllocatePage()
	require.NoError(t, err)
	p1, err := f.AllocatePage()
	require.NoError(t, err)

	require.Equal(t, uint32(0), p0.Number)
	require.Equal(t, uint32(1), p1.Number)
}

func TestLocalFile_DeletePage_FreesForReuse(t *testing.T) {
	f := newTestFile(t)
	defer f.Close()

	p0, err := f.AllocatePage()
	require.NoError(t, err)
	_, err = f.AllocatePage()
	require.NoError(t, err)

	require.NoError(t, f.DeletePage(p0.Number))

	reused, err := f.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, p0.Number, reused.Number)
}

func TestLocalFile_DeletePage_NeverAllocated_IsNoop(t *testing.T) {
	f := newTestFile(t)
	defer f.Close()

	require.NoError(t, f.DeletePage(99))
}

func TestLocalFile_MetadataSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	f, err := OpenLocalFile(dir, "heap")
	require.NoError(t, err)

	p, err := f.AllocatePage()
	require.NoError(t, err)
	p.Data[5] = 9
	require.NoError(t, f.WritePage(p))
	require.NoError(t, f.DeletePage(p.Number))
	require.NoError(t, f.Close())

	reopened, err := OpenLocalFile(dir, "heap")
	require.NoError(t, err)
	defer reopened.Close()

	reused, err := reopened.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, p.Number, reused.Number)
}

func TestLocalFile_SegmentRollover(t *testing.T) {
	f := newTestFile(t)
	defer f.Close()

	pagesPerSegment := f.pagesPerSegment()

	// Jump to the last page of the first segment by forcing nextPage, so
	// the next two allocations straddle the segment boundary.
	f.nextPage = pagesPerSegment - 1

	p0, err := f.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, pagesPerSegment-1, p0.Number)

	p1, err := f.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, pagesPerSegment, p1.Number)

	segNo0, _ := f.locate(p0.Number)
	segNo1, _ := f.locate(p1.Number)
	require.Equal(t, int32(0), segNo0)
	require.Equal(t, int32(1), segNo1)

	p1.Data[0] = 1
	require.NoError(t, f.WritePage(p1))
	reread, err := f.ReadPage(p1.Number)
	require.NoError(t, err)
	require.Equal(t, byte(1), reread.Data[0])
}
