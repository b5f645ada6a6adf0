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
	"fmt"

	"github.com/madisongh/go-bootinfo/internal/blockio"
)

// slotNone signals that neither slot is valid.
const slotNone = -1

// loadedSlot is the result of reading and validating one slot.
type loadedSlot struct {
	valid  bool
	hdr    header
	area   []byte // extension area, including its trailing 4-byte CRC
	parsed []variable
}

// loadSlot reads the header sector and extension area at offset from dev
// and validates them per spec section 4.4's "Load" algorithm: bad magic,
// version, or ext_sectors marks the slot invalid outright; otherwise the
// extension CRC (and, if cfg.VerifyHeaderCRC, the header CRC) must match.
func loadSlot(dev blockio.Device, offset uint64, cfg Config) (loadedSlot, error) {
	sector := make([]byte, SectorSize)
	if err := blockio.ReadFull(dev, sector, int64(offset)); err != nil {
		return loadedSlot{}, fmt.Errorf("%w: read header sector: %v", ErrIO, err)
	}

	hdr, err := unpackHeader(sector)
	if err != nil {
		return loadedSlot{}, err
	}

	if hdr.Magic != headerMagic || hdr.Version < currentVersion || hdr.ExtSectors != cfg.ExtensionSectors {
		return loadedSlot{valid: false}, nil
	}

	extLen := int(cfg.ExtensionSectors) * SectorSize
	area := make([]byte, extLen)
	extOffset := int64(offset) + SectorSize
	if err := blockio.ReadFull(dev, area, extOffset); err != nil {
		return loadedSlot{}, fmt.Errorf("%w: read extension area: %v", ErrIO, err)
	}

	wantExtCRC := wireEncoding.Uint32(area[extLen-4:])
	if extensionCRC(area) != wantExtCRC {
		return loadedSlot{valid: false}, nil
	}

	if cfg.VerifyHeaderCRC {
		gotHeaderCRC, err := headerCRC(hdr, 0)
		if err != nil {
			return loadedSlot{}, err
		}
		if gotHeaderCRC != hdr.HeaderCRC {
			return loadedSlot{valid: false}, nil
		}
	}

	variableArea := variableAreaOf(sector, area)
	vars := parseVariables(variableArea)

	return loadedSlot{valid: true, hdr: hdr, area: area, parsed: vars}, nil
}

// variableAreaOf concatenates the variable-area bytes of the header
// sector (everything after the fixed header fields) with the extension
// area (everything except its trailing 4-byte CRC), reproducing the
// contiguous variable area spec section 3 describes.
func variableAreaOf(headerSector, extArea []byte) []byte {
	out := make([]byte, 0, (SectorSize-headerSize)+len(extArea)-4)
	out = append(out, headerSector[headerSize:]...)
	out = append(out, extArea[:len(extArea)-4]...)
	return out
}

// variableAreaCapacity returns the usable length, in bytes, of the
// variable area for the given extension-sector count.
func variableAreaCapacity(extSectors uint16) int {
	return (SectorSize - headerSize) + int(extSectors)*SectorSize - 4
}

// selectSlot implements spec section 4.4's "Select" algorithm: if only one
// slot is valid it wins outright; if both are valid the numerically
// greater serial wins under wraparound rules (255 vs 0 selects 0, i.e. the
// wrapped successor); ties pick slot 0 deterministically (spec section 9's
// Open Question on equal serials, resolved here and recorded in
// DESIGN.md). Neither valid returns slotNone.
func selectSlot(v0, v1 bool, s0, s1 uint8) int {
	switch {
	case v0 && !v1:
		return 0
	case v1 && !v0:
		return 1
	case !v0 && !v1:
		return slotNone
	}

	if s0 == s1 {
		return 0
	}

	// Wraparound: the slot whose serial is the wrapped successor of the
	// other's wins, e.g. s0=255, s1=0 -> slot 1 (0 is 255's successor).
	if uint8(s0+1) == s1 {
		return 1
	}
	if uint8(s1+1) == s0 {
		return 0
	}

	if s0 > s1 {
		return 0
	}
	return 1
}

// buildSlotImage assembles the destination slot's on-disk bytes: a fresh
// header sector (magic/version/ext_sectors/flags/failed_boots/sernum, with
// a freshly computed header CRC) and an extension area whose tail holds
// the CRC-32 of everything preceding it. Returns the header sector and
// extension area separately so persist can write them in the order spec
// section 4.4 requires (header first, then extension), plus the finalized
// header (magic/version/ext_sectors/header_crc filled in) so the caller can
// adopt it as the new in-memory state instead of re-deriving it.
func buildSlotImage(hdr header, vars []variable, cfg Config) (finalHdr header, headerSector, extArea []byte, err error) {
	hdr.Magic = headerMagic
	hdr.Version = currentVersion
	hdr.ExtSectors = cfg.ExtensionSectors
	hdr.Reserved = 0

	capacity := variableAreaCapacity(cfg.ExtensionSectors)
	varBytes, err := serializeVariables(vars, capacity)
	if err != nil {
		return header{}, nil, nil, err
	}

	headerSector = make([]byte, SectorSize)
	headerVarBytes := SectorSize - headerSize
	copy(headerSector[headerSize:], varBytes[:headerVarBytes])

	extLen := int(cfg.ExtensionSectors) * SectorSize
	extArea = make([]byte, extLen)
	copy(extArea, varBytes[headerVarBytes:])

	crc, err := headerCRC(hdr, 0)
	if err != nil {
		return header{}, nil, nil, err
	}
	hdr.HeaderCRC = crc

	packed, err := packHeader(hdr)
	if err != nil {
		return header{}, nil, nil, err
	}
	copy(headerSector[:headerSize], packed)

	extCRC := extensionCRC(extArea)
	wireEncoding.PutUint32(extArea[extLen-4:], extCRC)

	return hdr, headerSector, extArea, nil
}

// slotOffset returns the header-sector byte offset of slot i (0 or 1).
func slotOffset(cfg Config, i int) uint64 {
	if i == 0 {
		return cfg.OffsetA
	}
	return cfg.OffsetB
}

// writeSlot writes headerSector then extArea to slot i's offsets and
// flushes, per spec section 4.4's ordering guarantee.
func writeSlot(dev blockio.Device, cfg Config, i int, headerSector, extArea []byte) error {
	offset := slotOffset(cfg, i)
	if err := blockio.WriteFull(dev, headerSector, int64(offset)); err != nil {
		return fmt.Errorf("%w: write slot %d header: %v", ErrIO, i, err)
	}
	if err := blockio.WriteFull(dev, extArea, int64(offset)+SectorSize); err != nil {
		return fmt.Errorf("%w: write slot %d extension: %v", ErrIO, i, err)
	}
	if err := dev.Sync(); err != nil {
		return fmt.Errorf("%w: flush slot %d: %v", ErrIO, i, err)
	}
	return nil
}
