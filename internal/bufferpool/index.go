package bufferpool

import (
	"fmt"

	"github.com/haledev/pagepool/internal/storage"
)

// frameKey identifies a resident page by the (file, page number) pair
// the spec uses as the pool's associative key.
type frameKey struct {
	file storage.FileHandle
	page uint32
}

// identityIndex maps (file, page number) to a frame index in
// expected-O(1) time via a plain Go map. Hash collisions are whatever
// the runtime's map implementation does internally; externally this
// type is purely associative.
type identityIndex struct {
	m map[frameKey]int
}

// newIdentityIndex sizes the backing map proportionally to the frame
// count, matching the reference source's bucket-count hint
// (((frameCount*1.2)*2)/2 + 1) even though Go's map only takes the
// hint as an allocation-size suggestion.
func newIdentityIndex(frameCount int) *identityIndex {
	hint := (frameCount*12/10)*2/2 + 1
	return &identityIndex{m: make(map[frameKey]int, hint)}
}

// insert adds a key -> frame index entry. It fails if the key already
// exists; callers must remove() an old entry before inserting its
// replacement, since a collision here signals an internal bug.
func (ix *identityIndex) insert(file storage.FileHandle, page uint32, frameIdx int) error {
	key := frameKey{file, page}
	if _, exists := ix.m[key]; exists {
		return fmt.Errorf("bufferpool: index already has an entry for (%s, %d)", file.Filename(), page)
	}
	ix.m[key] = frameIdx
	return nil
}

// lookup returns the frame index for (file, page), or ErrHashNotFound
// if no entry exists.
func (ix *identityIndex) lookup(file storage.FileHandle, page uint32) (int, error) {
	idx, ok := ix.m[frameKey{file, page}]
	if !ok {
		return 0, ErrHashNotFound
	}
	return idx, nil
}

// remove deletes the entry for (file, page), failing with
// ErrHashNotFound if it was already absent.
func (ix *identityIndex) remove(file storage.FileHandle, page uint32) error {
	key := frameKey{file, page}
	if _, ok := ix.m[key]; !ok {
		return ErrHashNotFound
	}
	delete(ix.m, key)
	return nil
}
