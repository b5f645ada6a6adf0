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

// DefaultExtensionSectors is the compile-time extension-sector count E used
// when a Config does not override it. Valid range is 1-1023.
const DefaultExtensionSectors = 1023

// SectorSize is the fixed size, in bytes, of every sector in a slot.
const SectorSize = 512

// DefaultCandidates is the static list of storage device paths tried, in
// order, by Open. The first entry models the platform's eMMC boot-1
// partition, per spec section 6.
var DefaultCandidates = []string{
	"/dev/mmcblk0boot1",
	"/dev/bootdevice/by-name/misc",
}

// DefaultLockDir is the well-known runtime directory the session lockfile
// lives under.
const DefaultLockDir = "/run/bootinfo"

// DefaultLockName is the lockfile's name within Config.LockDir.
const DefaultLockName = "lockfile"

// Config bundles the process-wide configuration that would otherwise be
// hidden package globals: storage device candidates, slot offsets, the
// extension-sector count, and the lockfile directory. Passed explicitly
// into Open so callers (and tests) never depend on ambient state.
type Config struct {
	// Candidates lists storage device paths tried, in order; the first
	// one that exists is opened. Defaults to DefaultCandidates.
	Candidates []string

	// OffsetA and OffsetB are the byte offsets of slot 0 and slot 1 on
	// the storage device. Both must be 512-byte aligned. OffsetB
	// defaults to OffsetA + 512*(1+ExtensionSectors) so that slot B
	// cannot share an erase block with slot A.
	OffsetA uint64
	OffsetB uint64

	// ExtensionSectors is the compile-time extension-sector count E.
	// Defaults to DefaultExtensionSectors. Every valid header must carry
	// this exact value.
	ExtensionSectors uint16

	// LockDir is the well-known runtime directory the lockfile is
	// created under (mode 02770). Defaults to DefaultLockDir.
	LockDir string

	// LockGroup, if non-empty, names the group that should own LockDir
	// when this library creates it.
	LockGroup string

	// VerifyHeaderCRC opts into treating the header CRC as authoritative
	// on load, in addition to the always-checked extension CRC. See
	// loadSlot and headerCRC for what the check covers.
	VerifyHeaderCRC bool
}

// slotSize returns the total byte size of a single slot: one header sector
// plus E extension sectors plus the trailing 4-byte CRC... the trailing
// CRC lives inside the last extension sector's tail, not appended after it,
// so the slot occupies exactly 1+E sectors.
func (c Config) slotSize() int64 {
	return int64(SectorSize) * int64(1+c.ExtensionSectors)
}

// withDefaults returns a copy of c with zero-valued fields replaced by the
// package defaults.
func (c Config) withDefaults() Config {
	if len(c.Candidates) == 0 {
		c.Candidates = DefaultCandidates
	}
	if c.ExtensionSectors == 0 {
		c.ExtensionSectors = DefaultExtensionSectors
	}
	if c.OffsetB == 0 {
		c.OffsetB = c.OffsetA + uint64(c.slotSize())
	}
	if c.LockDir == "" {
		c.LockDir = DefaultLockDir
	}
	return c
}

// OpenFlags controls how Open establishes a session.
type OpenFlags uint8

const (
	// OpenReadOnly opens the store for reading only; the session takes a
	// shared lock and never writes to the device.
	OpenReadOnly OpenFlags = 1 << iota
	// OpenForceInit forces re-initialization even if a valid slot is
	// found. Invalid combined with OpenReadOnly.
	OpenForceInit
)
