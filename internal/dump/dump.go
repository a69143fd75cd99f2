// Package dump reads and writes key export streams: a zstd compressed stream starting with a magic, followed
// by every key as a uvarint length and the key bytes, in handle order.
package dump

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/storeerr"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// maxKeyBytes - Upper bound on a key length read from a stream
const maxKeyBytes uint64 = 1 << 31

// Writer - Writes keys to an export stream
type Writer struct {
	enc   *zstd.Encoder
	buf   [binary.MaxVarintLen64]byte
	count int64
}

// NewWriter - Returns a pointer to a new Writer compressing to w. The magic is written immediately.
func NewWriter(w io.Writer) (wr *Writer, err error) {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		err = errors.Wrap(err, "create zstd encoder")
		return
	}

	if _, err = enc.Write([]byte(conf.DumpMagic)); err != nil {
		_ = enc.Close()
		err = errors.Wrap(err, "write export magic")
		return
	}

	wr = &Writer{enc: enc}

	return
}

// Write - Appends a key to the stream
func (W *Writer) Write(key []byte) (err error) {
	n := binary.PutUvarint(W.buf[:], uint64(len(key)))
	if _, err = W.enc.Write(W.buf[:n]); err != nil {
		err = errors.Wrapf(err, "write length of key %d", W.count)
		return
	}
	if _, err = W.enc.Write(key); err != nil {
		err = errors.Wrapf(err, "write key %d", W.count)
		return
	}
	W.count++

	return
}

// Count - Returns the number of keys written
func (W *Writer) Count() int64 {
	return W.count
}

// Close - Flushes the compressed stream, the underlying writer is left open
func (W *Writer) Close() (err error) {
	if err = W.enc.Close(); err != nil {
		err = errors.Wrap(err, "flush export stream")
	}

	return
}

// Reader - Reads keys from an export stream
type Reader struct {
	dec   *zstd.Decoder
	r     *bufio.Reader
	count int64
}

// NewReader - Returns a pointer to a new Reader decompressing from r. The magic is verified immediately.
func NewReader(r io.Reader) (rd *Reader, err error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		err = errors.Wrap(err, "create zstd decoder")
		return
	}

	br := bufio.NewReader(dec)
	magic := make([]byte, len(conf.DumpMagic))
	if _, err = io.ReadFull(br, magic); err != nil || string(magic) != conf.DumpMagic {
		dec.Close()
		err = storeerr.Corrupt("export stream does not start with %q", conf.DumpMagic)
		return
	}

	rd = &Reader{dec: dec, r: br}

	return
}

// Next - Returns the next key, io.EOF when the stream ends cleanly
func (R *Reader) Next() (key []byte, err error) {
	n, err := binary.ReadUvarint(R.r)
	if err == io.EOF {
		return
	}
	if err != nil {
		err = storeerr.Corrupt("export stream: length of key %d: %v", R.count, err)
		return
	}
	if n > maxKeyBytes {
		err = storeerr.Corrupt("export stream: key %d claims %d bytes", R.count, n)
		return
	}

	key = make([]byte, n)
	if _, err = io.ReadFull(R.r, key); err != nil {
		key = nil
		err = storeerr.Corrupt("export stream: key %d truncated: %v", R.count, err)
		return
	}
	R.count++

	return
}

// Count - Returns the number of keys read
func (R *Reader) Count() int64 {
	return R.count
}

// Close - Releases the decoder, the underlying reader is left open
func (R *Reader) Close() {
	R.dec.Close()
}
