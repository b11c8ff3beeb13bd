package bufferpool

import "github.com/haledev/pagepool/internal/storage"

// frameDescriptor is the passive metadata record for one frame slot.
// It makes no policy decisions; the manager owns all of those.
type frameDescriptor struct {
	frameIndex int // stable identity, equal to its position in the table
	file       storage.FileHandle
	pageNumber uint32
	pinCount   int
	dirty      bool
	refBit     bool
	valid      bool
}

// set marks the descriptor valid with the given identity: pinCount
// starts at one (the caller that triggered residency), dirty is clear,
// and refbit is set as if just accessed.
func (d *frameDescriptor) set(file storage.FileHandle, pageNumber uint32) {
	d.file = file
	d.pageNumber = pageNumber
	d.pinCount = 1
	d.dirty = false
	d.refBit = true
	d.valid = true
}

// clear marks the descriptor invalid and zeros every metadata field.
func (d *frameDescriptor) clear() {
	d.file = nil
	d.pageNumber = 0
	d.pinCount = 0
	d.dirty = false
	d.refBit = false
	d.valid = false
}
