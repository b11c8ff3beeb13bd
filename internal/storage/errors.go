package storage

import "errors"

// ErrInvalidPage is returned by ReadPage when the requested page number
// was never allocated in this file. The buffer pool manager propagates
// it to its caller unchanged.
var ErrInvalidPage = errors.New("storage: invalid page")
