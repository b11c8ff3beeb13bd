package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/haledev/pagepool/pkg/util"
)

var _ FileHandle = (*LocalFile)(nil)

// LocalFile is a disk-backed FileHandle. Pages are located by
// (segment number, offset within segment); segments roll over at
// SegmentSize, named Base, Base.1, Base.2, ... A small metadata file
// tracks the high-water page number and the free list of disposed
// pages available for reuse.
type LocalFile struct {
	dir  string
	base string

	segments map[int32]*os.File
	freeList []uint32
	nextPage uint32

	metaPath string
}

// OpenLocalFile opens (creating if necessary) a local page file rooted
// at dir/base, restoring its allocation metadata if present.
func OpenLocalFile(dir, base string) (*LocalFile, error) {
	if err := os.MkdirAll(dir, FileMode0755); err != nil {
		return nil, fmt.Errorf("storage: create directory %s: %w", dir, err)
	}

	f := &LocalFile{
		dir:      dir,
		base:     base,
		segments: make(map[int32]*os.File),
		metaPath: filepath.Join(dir, base+".meta"),
	}

	if err := f.loadMetadata(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("storage: load metadata for %s: %w", base, err)
	}
	return f, nil
}

// Filename reports the directory-joined base name, for error reporting.
func (f *LocalFile) Filename() string {
	return filepath.Join(f.dir, f.base)
}

func (f *LocalFile) pagesPerSegment() uint32 {
	return SegmentSize / PageSize
}

func (f *LocalFile) segmentPath(segNo int32) string {
	if segNo == 0 {
		return filepath.Join(f.dir, f.base)
	}
	return filepath.Join(f.dir, fmt.Sprintf("%s.%d", f.base, segNo))
}

func (f *LocalFile) openSegment(segNo int32) (*os.File, error) {
	if fh, ok := f.segments[segNo]; ok {
		return fh, nil
	}
	fh, err := os.OpenFile(f.segmentPath(segNo), os.O_RDWR|os.O_CREATE, FileMode0644)
	if err != nil {
		return nil, err
	}
	f.segments[segNo] = fh
	return fh, nil
}

func (f *LocalFile) locate(pageNumber uint32) (segNo int32, offset int64) {
	pps := f.pagesPerSegment()
	segNo = int32(pageNumber / pps)
	offset = int64(pageNumber%pps) * PageSize
	return segNo, offset
}

// AllocatePage hands out a fresh page number, preferring reuse of a
// disposed page over growing the file, and zero-initializes it on disk.
func (f *LocalFile) AllocatePage() (Page, error) {
	var number uint32
	if n := len(f.freeList); n > 0 {
		number = f.freeList[n-1]
		f.freeList = f.freeList[:n-1]
	} else {
		number = f.nextPage
		f.nextPage++
	}

	p := newPage(number)
	if err := f.writePageAt(number, p.Data); err != nil {
		return Page{}, fmt.Errorf("storage: allocate page %d: %w", number, err)
	}
	if err := f.saveMetadata(); err != nil {
		return Page{}, err
	}
	return p, nil
}

// ReadPage returns ErrInvalidPage for any page number that has never
// been allocated; otherwise it reads the page's bytes from disk.
func (f *LocalFile) ReadPage(pageNumber uint32) (Page, error) {
	if pageNumber >= f.nextPage {
		return Page{}, ErrInvalidPage
	}

	p := newPage(pageNumber)
	segNo, offset := f.locate(pageNumber)
	fh, err := f.openSegment(segNo)
	if err != nil {
		return Page{}, fmt.Errorf("storage: read page %d: %w", pageNumber, err)
	}
	if _, err := fh.ReadAt(p.Data, offset); err != nil && err != io.EOF {
		return Page{}, fmt.Errorf("storage: read page %d: %w", pageNumber, err)
	}
	return p, nil
}

// WritePage persists the page's bytes at its own page number.
func (f *LocalFile) WritePage(p Page) error {
	if len(p.Data) != PageSize {
		return fmt.Errorf("storage: page %d has wrong size %d", p.Number, len(p.Data))
	}
	return f.writePageAt(p.Number, p.Data)
}

func (f *LocalFile) writePageAt(pageNumber uint32, data []byte) error {
	segNo, offset := f.locate(pageNumber)
	fh, err := f.openSegment(segNo)
	if err != nil {
		return err
	}
	if _, err := fh.WriteAt(data, offset); err != nil {
		return fmt.Errorf("storage: write page %d: %w", pageNumber, err)
	}
	return nil
}

// DeletePage adds pageNumber to the free list for future reuse. Deleting
// a page number that was never allocated is a silent no-op.
func (f *LocalFile) DeletePage(pageNumber uint32) error {
	if pageNumber >= f.nextPage {
		return nil
	}
	f.freeList = append(f.freeList, pageNumber)
	return f.saveMetadata()
}

// Close releases all open segment file handles.
func (f *LocalFile) Close() error {
	var firstErr error
	for segNo, fh := range f.segments {
		if err := fh.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(f.segments, segNo)
	}
	return firstErr
}

func (f *LocalFile) loadMetadata() error {
	fh, err := os.Open(f.metaPath)
	if err != nil {
		return err
	}
	defer util.CloseFileFunc(fh)

	if err := binary.Read(fh, binary.LittleEndian, &f.nextPage); err != nil {
		return fmt.Errorf("read nextPage: %w", err)
	}

	var count uint32
	if err := binary.Read(fh, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("read free list count: %w", err)
	}

	f.freeList = make([]uint32, count)
	for i := range f.freeList {
		if err := binary.Read(fh, binary.LittleEndian, &f.freeList[i]); err != nil {
			return fmt.Errorf("read free page %d: %w", i, err)
		}
	}
	return nil
}

func (f *LocalFile) saveMetadata() error {
	fh, err := os.OpenFile(f.metaPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, FileMode0644)
	if err != nil {
		return fmt.Errorf("storage: save metadata: %w", err)
	}
	defer util.CloseFileFunc(fh)

	if err := binary.Write(fh, binary.LittleEndian, f.nextPage); err != nil {
		return err
	}
	if err := binary.Write(fh, binary.LittleEndian, uint32(len(f.freeList))); err != nil {
		return err
	}
	for _, n := range f.freeList {
		if err := binary.Write(fh, binary.LittleEndian, n); err != nil {
			return err
		}
	}
	return nil
}
