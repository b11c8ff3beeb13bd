package storage

const (
	OneKB = 1024
	OneMB = OneKB * 1024
	OneGB = OneMB * 1024

	// PageSize is the fixed size of every page and every frame buffer.
	PageSize = OneKB * 8

	// SegmentSize bounds how many pages live in one on-disk segment
	// before a new one is opened.
	SegmentSize = OneGB

	FileMode0644 = 0o644
	FileMode0755 = 0o755
)
