// Package shard reads and writes shard files: single-file archives of content
// records addressed by the 8-byte hash of their identifier.
//
// Layout (little endian):
//
//	magic "EKNS" | uint32 version | uint32 record count
//	per record: [8]byte hash | uint32 blob count
//	  per blob: uint8 kind | uint8 flags | uint16 len + content type |
//	            uint64 offset | uint64 stored size | uint64 raw size
//	blob payloads
//
// Records are sorted by hash. Offsets are absolute.
package shard

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Magic opens every shard file.
const Magic = "EKNS"

// Version is the layout version this package reads and writes.
const Version uint32 = 1

// Kind tells what a blob holds.
type Kind uint8

// Blob kinds.
const (
	KindMetadata Kind = 1
	KindData     Kind = 2
)

const flagZlib uint8 = 1 << 0

const (
	hashSize       = 8
	headerSize     = 4 + 4 + 4
	recordHeadSize = hashSize + 4
	blobFixedSize  = 1 + 1 + 2 + 8 + 8 + 8
)

var (
	// ErrCorrupt signals a malformed shard file.
	ErrCorrupt = errors.New("shard: corrupt file")
	// ErrDuplicate signals a second record with the same hash.
	ErrDuplicate = errors.New("shard: duplicate record")
)

type hash [hashSize]byte

func parseHash(s string) (hash, error) {
	var h hash
	if len(s) != 2*hashSize {
		return h, fmt.Errorf("hash %q: want %d hex digits", s, 2*hashSize)
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, fmt.Errorf("hash %q: %w", s, err)
	}
	return h, nil
}
