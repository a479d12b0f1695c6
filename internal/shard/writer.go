package shard

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/klauspost/compress/zlib"
)

type pendingBlob struct {
	kind        Kind
	flags       uint8
	contentType string
	payload     []byte
	raw         int64
}

type pendingRecord struct {
	hash  hash
	blobs []pendingBlob
}

// Writer builds a shard in memory.
type Writer struct {
	records map[hash]*pendingRecord
}

// NewWriter creates an empty shard writer.
func NewWriter() *Writer {
	return &Writer{records: make(map[hash]*pendingRecord)}
}

// Add stages a record. data may be nil for records without content.
func (w *Writer) Add(hexHash string, metadata, data []byte, contentType string, compress bool) error {
	h, err := parseHash(hexHash)
	if err != nil {
		return err
	}
	if _, ok := w.records[h]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, hexHash)
	}
	meta, err := newPendingBlob(KindMetadata, "application/json", metadata, compress)
	if err != nil {
		return err
	}
	rec := &pendingRecord{hash: h, blobs: []pendingBlob{meta}}
	if data != nil {
		d, err := newPendingBlob(KindData, contentType, data, compress)
		if err != nil {
			return err
		}
		rec.blobs = append(rec.blobs, d)
	}
	w.records[h] = rec
	return nil
}

func newPendingBlob(kind Kind, contentType string, data []byte, compress bool) (pendingBlob, error) {
	if len(contentType) > math.MaxUint16 {
		return pendingBlob{}, fmt.Errorf("content type too long: %d bytes", len(contentType))
	}
	b := pendingBlob{kind: kind, contentType: contentType, payload: data, raw: int64(len(data))}
	if !compress {
		return b, nil
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return pendingBlob{}, fmt.Errorf("compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return pendingBlob{}, fmt.Errorf("compress: %w", err)
	}
	b.payload = buf.Bytes()
	b.flags |= flagZlib
	return b, nil
}

// Len returns the number of staged records.
func (w *Writer) Len() int { return len(w.records) }

// WriteTo writes the shard to out.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	recs := make([]*pendingRecord, 0, len(w.records))
	for _, r := range w.records {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool {
		return bytes.Compare(recs[i].hash[:], recs[j].hash[:]) < 0
	})

	offset := int64(headerSize)
	for _, r := range recs {
		offset += recordHeadSize
		for _, b := range r.blobs {
			offset += blobFixedSize + int64(len(b.contentType))
		}
	}

	cw := &countingWriter{w: bufio.NewWriter(out)}
	le := binary.LittleEndian
	var scratch [8]byte

	cw.write([]byte(Magic))
	le.PutUint32(scratch[:4], Version)
	cw.write(scratch[:4])
	le.PutUint32(scratch[:4], uint32(len(recs)))
	cw.write(scratch[:4])

	for _, r := range recs {
		cw.write(r.hash[:])
		le.PutUint32(scratch[:4], uint32(len(r.blobs)))
		cw.write(scratch[:4])
		for _, b := range r.blobs {
			cw.write([]byte{byte(b.kind), b.flags})
			le.PutUint16(scratch[:2], uint16(len(b.contentType)))
			cw.write(scratch[:2])
			cw.write([]byte(b.contentType))
			le.PutUint64(scratch[:], uint64(offset))
			cw.write(scratch[:])
			le.PutUint64(scratch[:], uint64(len(b.payload)))
			cw.write(scratch[:])
			le.PutUint64(scratch[:], uint64(b.raw))
			cw.write(scratch[:])
			offset += int64(len(b.payload))
		}
	}
	for _, r := range recs {
		for _, b := range r.blobs {
			cw.write(b.payload)
		}
	}
	if cw.err == nil {
		cw.err = cw.w.Flush()
	}
	return cw.n, cw.err
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) write(p []byte) {
	if c.err != nil {
		return
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
}
