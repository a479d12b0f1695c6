package shard

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/klauspost/compress/zlib"

	"github.com/kailas-cloud/ekn/internal/db"
)

// File is an open shard. It is safe for concurrent reads.
type File struct {
	f       *os.File
	records []Record
}

// Record is one content object in a shard.
type Record struct {
	hash  hash
	blobs []Blob
}

// Blob is a lazily read payload of a record.
type Blob struct {
	file        *File
	kind        Kind
	flags       uint8
	contentType string
	offset      int64
	stored      int64
	raw         int64
}

// Open reads the record table of the shard at path. Payloads stay on disk.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &db.Error{Op: db.OpShardOpen, Err: err}
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &db.Error{Op: db.OpShardOpen, Err: err}
	}
	sf := &File{f: f}
	if err := sf.readTable(bufio.NewReader(f), fi.Size()); err != nil {
		_ = f.Close()
		return nil, &db.Error{Op: db.OpShardOpen, Err: fmt.Errorf("%s: %w", path, err)}
	}
	return sf, nil
}

func (sf *File) readTable(r io.Reader, size int64) error {
	var head [headerSize]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return fmt.Errorf("%w: short header", ErrCorrupt)
	}
	if string(head[:4]) != Magic {
		return fmt.Errorf("%w: bad magic %q", ErrCorrupt, head[:4])
	}
	if v := binary.LittleEndian.Uint32(head[4:8]); v != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	count := binary.LittleEndian.Uint32(head[8:12])
	if int64(count)*recordHeadSize > size {
		return fmt.Errorf("%w: record count %d exceeds file size", ErrCorrupt, count)
	}

	sf.records = make([]Record, count)
	for i := range sf.records {
		rec := &sf.records[i]
		var rh [recordHeadSize]byte
		if _, err := io.ReadFull(r, rh[:]); err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrCorrupt, i, err)
		}
		copy(rec.hash[:], rh[:hashSize])
		if i > 0 && bytes.Compare(sf.records[i-1].hash[:], rec.hash[:]) >= 0 {
			return fmt.Errorf("%w: records not sorted at %d", ErrCorrupt, i)
		}
		n := binary.LittleEndian.Uint32(rh[hashSize:])
		if int64(n)*blobFixedSize > size {
			return fmt.Errorf("%w: record %d: blob count %d", ErrCorrupt, i, n)
		}
		rec.blobs = make([]Blob, n)
		for j := range rec.blobs {
			b, err := sf.readBlob(r, size)
			if err != nil {
				return fmt.Errorf("record %d blob %d: %w", i, j, err)
			}
			rec.blobs[j] = b
		}
	}
	return nil
}

func (sf *File) readBlob(r io.Reader, size int64) (Blob, error) {
	var fixed [4]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return Blob{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	ct := make([]byte, binary.LittleEndian.Uint16(fixed[2:4]))
	if _, err := io.ReadFull(r, ct); err != nil {
		return Blob{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	var pos [24]byte
	if _, err := io.ReadFull(r, pos[:]); err != nil {
		return Blob{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	b := Blob{
		file:        sf,
		kind:        Kind(fixed[0]),
		flags:       fixed[1],
		contentType: string(ct),
		offset:      int64(binary.LittleEndian.Uint64(pos[0:8])),
		stored:      int64(binary.LittleEndian.Uint64(pos[8:16])),
		raw:         int64(binary.LittleEndian.Uint64(pos[16:24])),
	}
	if b.offset < 0 || b.stored < 0 || b.offset > size || b.stored > size-b.offset {
		return Blob{}, fmt.Errorf("%w: payload out of bounds", ErrCorrupt)
	}
	return b, nil
}

// Len returns the number of records.
func (sf *File) Len() int { return len(sf.records) }

// Find looks up the record for a 16 hex digit hash.
func (sf *File) Find(hexHash string) (*Record, bool) {
	h, err := parseHash(hexHash)
	if err != nil {
		return nil, false
	}
	i := sort.Search(len(sf.records), func(i int) bool {
		return bytes.Compare(sf.records[i].hash[:], h[:]) >= 0
	})
	if i == len(sf.records) || sf.records[i].hash != h {
		return nil, false
	}
	return &sf.records[i], true
}

// Close releases the file handle.
func (sf *File) Close() error {
	return sf.f.Close()
}

// Hash returns the record hash as lowercase hex.
func (r *Record) Hash() string { return fmt.Sprintf("%x", r.hash[:]) }

func (r *Record) blob(k Kind) (*Blob, bool) {
	for i := range r.blobs {
		if r.blobs[i].kind == k {
			return &r.blobs[i], true
		}
	}
	return nil, false
}

// Metadata reads the record's JSON metadata.
func (r *Record) Metadata() ([]byte, error) {
	b, ok := r.blob(KindMetadata)
	if !ok {
		return nil, fmt.Errorf("%w: record %s has no metadata", ErrCorrupt, r.Hash())
	}
	rc, err := b.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &db.Error{Op: db.OpShardRead, Err: err}
	}
	return data, nil
}

// Data returns the record's content payload, if any.
func (r *Record) Data() (*Blob, bool) {
	return r.blob(KindData)
}

// Kind returns what the blob holds.
func (b *Blob) Kind() Kind { return b.kind }

// ContentType returns the MIME type of the payload.
func (b *Blob) ContentType() string { return b.contentType }

// Size returns the uncompressed payload size.
func (b *Blob) Size() int64 { return b.raw }

// Open returns a reader over the payload, decompressing when needed.
// Each call returns an independent reader.
func (b *Blob) Open() (io.ReadCloser, error) {
	sr := io.NewSectionReader(b.file.f, b.offset, b.stored)
	if b.flags&flagZlib == 0 {
		return io.NopCloser(sr), nil
	}
	zr, err := zlib.NewReader(sr)
	if err != nil {
		return nil, &db.Error{Op: db.OpShardRead, Err: err}
	}
	return zr, nil
}
