// Package bufferpool implements a fixed-size page buffer pool with a
// clock (second-chance) replacement policy: a bounded set of in-memory
// frames shared by callers that pin pages by (file, page number),
// mutate them in place, and unpin them when done.
package bufferpool

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/haledev/pagepool/internal/storage"
)

// DefaultCapacity is used when a non-positive frame count is given to
// NewManager.
const DefaultCapacity = 128

const logPrefix = "bufferpool: "

// Manager is the buffer pool manager: it owns the frame array, the
// descriptor table and the identity index, and runs the clock
// replacement algorithm internally. It is single-threaded and
// non-reentrant by design and holds no lock; callers
// that need concurrent access must add their own mutual exclusion
// around a Manager.
type Manager struct {
	frames      [][]byte
	descriptors []frameDescriptor
	index       *identityIndex
	hand        *clockHand
	capacity    int
}

// NewManager constructs a pool of capacity frames. If capacity <= 0,
// DefaultCapacity is used. All descriptors start invalid and the
// clock hand starts at capacity-1 so its first advance lands on frame 0.
func NewManager(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	descriptors := make([]frameDescriptor, capacity)
	frames := make([][]byte, capacity)
	for i := range descriptors {
		descriptors[i].frameIndex = i
		frames[i] = make([]byte, storage.PageSize)
	}

	return &Manager{
		frames:      frames,
		descriptors: descriptors,
		index:       newIdentityIndex(capacity),
		hand:        newClockHand(capacity),
		capacity:    capacity,
	}
}

// ReadPage returns a stable reference to the in-pool copy of
// (file, pageNumber), with the caller recorded as an additional
// pinner. On a hit it sets the frame's reference bit and increments
// its pin count. On a miss it reads the page from file first (so a
// failing read never perturbs pool state), then runs the clock
// allocator and installs the page.
func (m *Manager) ReadPage(file storage.FileHandle, pageNumber uint32) (*storage.Page, error) {
	if idx, err := m.index.lookup(file, pageNumber); err == nil {
		d := &m.descriptors[idx]
		d.refBit = true
		d.pinCount++
		slog.Debug(logPrefix+"read hit", "file", file.Filename(), "page", pageNumber, "frame", idx, "pin", d.pinCount)
		return &storage.Page{Number: pageNumber, Data: m.frames[idx]}, nil
	}

	slog.Debug(logPrefix+"read miss", "file", file.Filename(), "page", pageNumber)
	p, err := file.ReadPage(pageNumber)
	if err != nil {
		return nil, err
	}

	frameIdx, err := m.allocateFrame()
	if err != nil {
		return nil, err
	}

	copy(m.frames[frameIdx], p.Data)
	if err := m.index.insert(file, pageNumber, frameIdx); err != nil {
		return nil, fmt.Errorf("bufferpool: internal: %w", err)
	}
	m.descriptors[frameIdx].set(file, pageNumber)

	slog.Debug(logPrefix+"installed page", "file", file.Filename(), "page", pageNumber, "frame", frameIdx)
	return &storage.Page{Number: pageNumber, Data: m.frames[frameIdx]}, nil
}

// UnpinPage decrements the pin count for (file, pageNumber) and, if
// dirty is true, ORs it into the descriptor's dirty bit (dirty is
// never cleared here). The reference bit is untouched; only the clock
// sweep clears it.
func (m *Manager) UnpinPage(file storage.FileHandle, pageNumber uint32, dirty bool) error {
	idx, err := m.index.lookup(file, pageNumber)
	if err != nil {
		return err
	}

	d := &m.descriptors[idx]
	if d.pinCount == 0 {
		return ErrPageNotPinned
	}
	d.pinCount--
	if dirty {
		d.dirty = true
	}

	slog.Debug(logPrefix+"unpin", "file", file.Filename(), "page", pageNumber, "frame", idx, "pin", d.pinCount, "dirty", d.dirty)
	return nil
}

// AllocatePage asks file for a fresh page, installs it into a frame
// with pin count one, and returns both the new page number and the
// in-pool buffer.
func (m *Manager) AllocatePage(file storage.FileHandle) (uint32, *storage.Page, error) {
	p, err := file.AllocatePage()
	if err != nil {
		return 0, nil, err
	}

	frameIdx, err := m.allocateFrame()
	if err != nil {
		return 0, nil, err
	}

	copy(m.frames[frameIdx], p.Data)
	if err := m.index.insert(file, p.Number, frameIdx); err != nil {
		return 0, nil, fmt.Errorf("bufferpool: internal: %w", err)
	}
	m.descriptors[frameIdx].set(file, p.Number)

	slog.Debug(logPrefix+"allocated page", "file", file.Filename(), "page", p.Number, "frame", frameIdx)
	return p.Number, &storage.Page{Number: p.Number, Data: m.frames[frameIdx]}, nil
}

// FlushFile ensures every resident page of file is written to disk if
// dirty, removed from the index, and invalidated. It is not
// transactional: a failure partway through leaves already-processed
// frames processed.
func (m *Manager) FlushFile(file storage.FileHandle) error {
	for i := range m.descriptors {
		d := &m.descriptors[i]
		if d.file != file {
			continue
		}

		if !d.valid {
			slog.Error(logPrefix+"descriptor tagged with file but invalid", "frame", i, "file", file.Filename())
			return ErrBadBuffer
		}
		if d.pinCount > 0 {
			return ErrPagePinned
		}

		if d.dirty {
			if err := file.WritePage(storage.Page{Number: d.pageNumber, Data: m.frames[i]}); err != nil {
				return err
			}
			d.dirty = false
		}

		if err := m.index.remove(file, d.pageNumber); err != nil {
			return fmt.Errorf("bufferpool: internal: %w", err)
		}
		d.clear()
	}

	slog.Debug(logPrefix+"flushed file", "file", file.Filename())
	return nil
}

// DisposePage frees a page's frame if it is resident (silently doing
// nothing if it was never cached), then deletes the page in the file.
func (m *Manager) DisposePage(file storage.FileHandle, pageNumber uint32) error {
	if idx, err := m.index.lookup(file, pageNumber); err == nil {
		m.descriptors[idx].clear()
		if err := m.index.remove(file, pageNumber); err != nil {
			return fmt.Errorf("bufferpool: internal: %w", err)
		}
	}
	return file.DeletePage(pageNumber)
}

// PrintSelf writes a human-readable per-frame listing to w, followed
// by the total number of valid frames.
func (m *Manager) PrintSelf(w io.Writer) {
	valid := 0
	for i, d := range m.descriptors {
		if d.valid {
			fmt.Fprintf(w, "FrameNo:%d file:%s page:%d pinCount:%d dirty:%t refbit:%t\n",
				i, d.file.Filename(), d.pageNumber, d.pinCount, d.dirty, d.refBit)
			valid++
		} else {
			fmt.Fprintf(w, "FrameNo:%d empty\n", i)
		}
	}
	fmt.Fprintf(w, "Total Number of Valid Frames:%d\n", valid)
}

// allocateFrame selects a frame for a new page via the clock
// algorithm, evicting and writing back a dirty victim if necessary.
// It fails with ErrBufferExceeded if every frame is pinned, or if no
// victim is found within two full sweeps of the clock hand.
func (m *Manager) allocateFrame() (int, error) {
	pinned := 0
	for i := range m.descriptors {
		if m.descriptors[i].pinCount > 0 {
			pinned++
		}
	}
	if pinned == m.capacity {
		return -1, ErrBufferExceeded
	}

	for scanned := 0; scanned < 2*m.capacity; scanned++ {
		idx := m.hand.advance()
		d := &m.descriptors[idx]

		if !d.valid {
			return idx, nil
		}
		if d.refBit {
			d.refBit = false
			continue
		}
		if d.pinCount == 0 {
			if d.dirty {
				if err := d.file.WritePage(storage.Page{Number: d.pageNumber, Data: m.frames[idx]}); err != nil {
					return -1, err
				}
				d.dirty = false
				slog.Debug(logPrefix+"wrote back dirty victim", "file", d.file.Filename(), "page", d.pageNumber, "frame", idx)
			}
			if err := m.index.remove(d.file, d.pageNumber); err != nil {
				return -1, fmt.Errorf("bufferpool: internal: %w", err)
			}
			return idx, nil
		}
		// Pinned with a clear reference bit: leave it alone, keep sweeping.
	}

	return -1, ErrBufferExceeded
}
