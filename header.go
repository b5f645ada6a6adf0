// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package bootinfo

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/go-restruct/restruct"
)

// headerMagic is the literal 8-byte magic every valid header sector starts
// with.
var headerMagic = [8]byte{'B', 'O', 'O', 'T', 'I', 'N', 'F', 'O'}

// currentVersion is the on-disk format version this package writes and the
// minimum version it accepts on load.
const currentVersion = 4

// flagBootInProgress is bit 0 of the header's flags byte.
const flagBootInProgress = 1 << 0

// headerSize is the packed, no-padding size in bytes of the header struct:
// 8 (magic) + 2 (version) + 1 (flags) + 1 (failed_boots) + 4 (header_crc)
// + 1 (sernum) + 1 (reserved) + 2 (ext_sectors) = 20.
const headerSize = 20

// wireEncoding is the byte order bootinfo headers are serialized with. The
// on-disk format is not portable across endianness (spec section 6), so
// this is fixed rather than host-dependent.
var wireEncoding = binary.LittleEndian

// header mirrors the on-disk header sector fields in order, packed with no
// padding via go-restruct rather than hand-rolled binary.Read/Write calls
// (the same approach dsoprea/go-exfat takes for its exFAT boot sector
// header in structures.go).
type header struct {
	Magic       [8]byte
	Version     uint16
	Flags       uint8
	FailedBoots uint8
	HeaderCRC   uint32
	Sernum      uint8
	Reserved    uint8
	ExtSectors  uint16
}

// packHeader serializes h to its exact 20-byte wire form.
func packHeader(h header) ([]byte, error) {
	buf, err := restruct.Pack(wireEncoding, &h)
	if err != nil {
		return nil, fmt.Errorf("%w: pack header: %v", ErrInternal, err)
	}
	if len(buf) != headerSize {
		return nil, fmt.Errorf("%w: packed header is %d bytes, want %d", ErrInternal, len(buf), headerSize)
	}
	return buf, nil
}

// unpackHeader parses a sector-sized buffer's leading headerSize bytes into
// a header.
func unpackHeader(sector []byte) (header, error) {
	if len(sector) < headerSize {
		return header{}, fmt.Errorf("%w: header sector too short: %d bytes", ErrIO, len(sector))
	}
	var h header
	if err := restruct.Unpack(sector[:headerSize], wireEncoding, &h); err != nil {
		return header{}, fmt.Errorf("%w: unpack header: %v", ErrInternal, err)
	}
	return h, nil
}

// headerCRC computes the CRC-32 (zlib/IEEE polynomial) of the packed
// 20-byte header fields, with the header_crc field itself taken to be
// storedCRC while computing. It covers only those fields: the variable-area
// bytes that share the header sector are not part of this CRC (nor of the
// extension CRC). buildSlotImage stores headerCRC(hdr, 0), so loadSlot
// verifies by recomputing with storedCRC 0 as well.
func headerCRC(h header, storedCRC uint32) (uint32, error) {
	h.HeaderCRC = storedCRC
	buf, err := packHeader(h)
	if err != nil {
		return 0, err
	}
	return crc32.ChecksumIEEE(buf), nil
}

// extensionCRC computes the CRC-32 of an extension area, excluding its
// trailing 4-byte CRC field.
func extensionCRC(extensionArea []byte) uint32 {
	payload := extensionArea[:len(extensionArea)-4]
	return crc32.ChecksumIEEE(payload)
}

func (h header) inProgress() bool {
	return h.Flags&flagBootInProgress != 0
}

func (h *header) setInProgress(v bool) {
	if v {
		h.Flags |= flagBootInProgress
	} else {
		h.Flags &^= flagBootInProgress
	}
}
