package storage

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/model"
	"github.com/gostonefire/internstore/internal/packed"
	"github.com/gostonefire/internstore/storeerr"
)

// KeysFileName - Return the key store file name given the index base name
func KeysFileName(base string) string {
	return base
}

// EndsFileName - Return the record end offset file name given the index base name
func EndsFileName(base string) string {
	return base + conf.EndsSuffix
}

// HashFileName - Return the hash cache file name given the index base name
func HashFileName(base string) string {
	return base + conf.HashSuffix
}

// SlotsFileName - Return the slot table file name given the index base name
func SlotsFileName(base string) string {
	return base + conf.SlotsSuffix
}

// ChainFileName - Return the chain table file name given the index base name
func ChainFileName(base string) string {
	return base + conf.ChainSuffix
}

// FileNames - Returns the names of all files making up an index of the given key shape. Unknown shapes get
// the full set.
func FileNames(base string, shape int64) (names []string) {
	names = append(names, KeysFileName(base))
	if shape != conf.ShapeScalars {
		names = append(names, EndsFileName(base), HashFileName(base))
	}
	names = append(names, SlotsFileName(base), ChainFileName(base))

	return
}

// HeaderToBytes - Converts a Header struct to a slice of bytes including the checksum
func HeaderToBytes(header model.Header) (buf []byte) {
	buf = make([]byte, conf.HeaderLength)

	copy(buf, conf.HeaderMagic)
	buf[conf.VersionOffset] = conf.FormatVersion
	buf[conf.WidthOffset] = uint8(header.Width)
	buf[conf.ParamCountOffset] = uint8(header.ParamCount)
	binary.BigEndian.PutUint64(buf[conf.SizeOffset:], uint64(header.Size))
	for i, p := range header.Params {
		binary.BigEndian.PutUint64(buf[conf.ParamsOffset+int64(i)*8:], uint64(p))
	}
	binary.BigEndian.PutUint64(buf[conf.ChecksumOffset:], headerChecksum(buf))

	return
}

// BytesToHeader - Converts a slice of bytes to a Header struct, validating magic, version, width,
// param count and checksum
func BytesToHeader(buf []byte) (header model.Header, err error) {
	if int64(len(buf)) < conf.HeaderLength {
		err = storeerr.Corrupt("header is %d bytes, expected %d", len(buf), conf.HeaderLength)
		return
	}
	if string(buf[:len(conf.HeaderMagic)]) != conf.HeaderMagic {
		err = storeerr.Corrupt("bad magic %q", buf[:len(conf.HeaderMagic)])
		return
	}
	if buf[conf.VersionOffset] != conf.FormatVersion {
		err = storeerr.Corrupt("unknown format version %d", buf[conf.VersionOffset])
		return
	}
	width := int(buf[conf.WidthOffset])
	if !packed.ValidWidth(width) {
		err = storeerr.Corrupt("invalid cell width %d", width)
		return
	}
	paramCount := int(buf[conf.ParamCountOffset])
	if paramCount > conf.MaxParams {
		err = storeerr.Corrupt("param count %d exceeds %d", paramCount, conf.MaxParams)
		return
	}
	if sum := binary.BigEndian.Uint64(buf[conf.ChecksumOffset:]); sum != headerChecksum(buf) {
		err = storeerr.Corrupt("header checksum mismatch")
		return
	}
	size := int64(binary.BigEndian.Uint64(buf[conf.SizeOffset:]))
	if size < 0 {
		err = storeerr.Corrupt("negative size %d", size)
		return
	}

	header = model.Header{
		Version:    buf[conf.VersionOffset],
		Width:      width,
		ParamCount: paramCount,
		Size:       size,
	}
	for i := range header.Params {
		header.Params[i] = int64(binary.BigEndian.Uint64(buf[conf.ParamsOffset+int64(i)*8:]))
	}

	return
}

// CapacityFromFileSize - Returns the capacity in cells of a store file of the given length, validating that
// it holds a whole number of cells and at least the header's size
func CapacityFromFileSize(header model.Header, fileSize int64) (capacity int64, err error) {
	body := fileSize - conf.HeaderLength
	if body < 0 {
		err = storeerr.Corrupt("file of %d bytes is shorter than its header", fileSize)
		return
	}
	if body%int64(header.Width) != 0 {
		err = storeerr.Corrupt("file body of %d bytes is not a whole number of %d byte cells", body, header.Width)
		return
	}

	capacity = body / int64(header.Width)
	if header.Size > capacity {
		err = storeerr.Corrupt("size %d exceeds capacity %d", header.Size, capacity)
		return
	}

	return
}

// headerChecksum - Returns the xxhash64 of the header excluding the checksum field itself
func headerChecksum(buf []byte) uint64 {
	d := xxhash.New()
	_, _ = d.Write(buf[:conf.ChecksumOffset])
	_, _ = d.Write(buf[conf.ParamsOffset:conf.HeaderLength])

	return d.Sum64()
}
