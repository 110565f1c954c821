package store

import "errors"

// ErrNotFound marks a key with no stored value. Callers treat it as "use the
// default", never as a failure.
var ErrNotFound = errors.New("store: key not found")
