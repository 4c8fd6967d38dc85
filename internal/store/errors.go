package store

import "errors"

// ErrCorrupt is wrapped into the error returned when a metadata or
// directory file exists but fails to deserialise. This is distinct from
// "not found" and is treated as fatal by the caller (internal/server
// aborts the process rather than surfacing it to the kernel as an
// ordinary errno).
var ErrCorrupt = errors.New("store: corrupt on-disk record")
