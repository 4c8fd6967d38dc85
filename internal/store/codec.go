package store

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// encodeAttributes/decodeAttributes and encodeDirectory/decodeDirectory
// are the self-delimiting byte-blob framing for the metadata and
// directory files. msgpack (github.com/vmihailenco/msgpack/v5) round-trips
// Go structs via ordinary struct tags without registering concrete types,
// and is a real, actively used member of the Go serialisation ecosystem
// rather than a Go-process-pair-only format; see DESIGN.md for the
// justification over encoding/gob.

func encodeAttributes(a *Attributes) ([]byte, error) {
	b, err := msgpack.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("store: encoding attributes: %w", err)
	}
	return b, nil
}

func decodeAttributes(b []byte) (*Attributes, error) {
	var a Attributes
	if err := msgpack.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("%w: attributes: %v", ErrCorrupt, err)
	}
	return &a, nil
}

func encodeDirectory(d *Directory) ([]byte, error) {
	b, err := msgpack.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("store: encoding directory: %w", err)
	}
	return b, nil
}

func decodeDirectory(b []byte) (*Directory, error) {
	var d Directory
	if err := msgpack.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("%w: directory: %v", ErrCorrupt, err)
	}
	if d.Entries == nil {
		d.Entries = make(map[string]DirEntry)
	}
	return &d, nil
}
