package bufferpool

import "errors"

var (
	// ErrBufferExceeded is returned when every frame is pinned (or
	// every frame's reference bit kept winning its second chance), so
	// no victim could be selected for replacement.
	ErrBufferExceeded = errors.New("bufferpool: buffer exceeded")

	// ErrPageNotPinned is returned by UnpinPage for a resident page
	// whose pin count is already zero.
	ErrPageNotPinned = errors.New("bufferpool: page not pinned")

	// ErrPagePinned is returned by FlushFile when a resident page of
	// the file is still pinned.
	ErrPagePinned = errors.New("bufferpool: page pinned")

	// ErrBadBuffer signals a descriptor invariant violation: an
	// invalid descriptor was found still tagged with a file during
	// FlushFile.
	ErrBadBuffer = errors.New("bufferpool: bad buffer")

	// ErrHashNotFound is the identity index's miss signal. Inside
	// ReadPage it is caught and handled as a cache miss; from
	// UnpinPage it surfaces to the caller unchanged.
	ErrHashNotFound = errors.New("bufferpool: not found")
)
