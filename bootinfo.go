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

// Package bootinfo implements the boot variable store: a small persistent,
// filesystem-independent key/value store that lives at fixed byte offsets
// on a raw block device. It survives a power loss at any point by always
// writing the slot that is not currently selected and promoting it by
// serial-number comparison on the next open, and it tracks a
// boot-in-progress flag plus a saturating failed-boot counter for a
// watchdog/rollback policy.
package bootinfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/madisongh/go-bootinfo/internal/blockio"
	"github.com/madisongh/go-bootinfo/internal/runlock"
	"github.com/madisongh/go-bootinfo/internal/writegate"
)

// Context is a stateful session handle: created by Open, mutated by the
// setter and mark methods, persisted by Update, destroyed by Close. The
// zero value is not usable; obtain one via Open.
type Context struct {
	cfg      Config
	devPath  string
	dev      blockio.Device
	gate     writegate.Gate
	lock     *runlock.Lock
	readOnly bool

	current int // slotNone if neither slot was valid at open time
	hdr     header
	vars    []variable

	closed bool
}

// Open discovers the storage device from cfg.Candidates (trying each in
// order, taking the first that exists), acquires the session lockfile
// (shared for a read-only session, exclusive otherwise), enables the write
// gate for write sessions, loads and selects the two slots, and parses
// variables from the selected slot.
//
// For a read-only session, Open returns a non-nil Context even when
// neither slot is valid, together with ErrNoValidStore, so callers that
// only want to probe the store can still inspect and Close it. For a write
// session, no valid slot (or flags containing OpenForceInit) triggers
// re-initialization before Open returns.
//
// OpenReadOnly combined with OpenForceInit is rejected with
// ErrInvalidArgument before the device is touched.
func Open(cfg Config, flags OpenFlags) (*Context, error) {
	readOnly := flags&OpenReadOnly != 0
	forceInit := flags&OpenForceInit != 0

	if readOnly && forceInit {
		return nil, fmt.Errorf("%w: OpenReadOnly and OpenForceInit are mutually exclusive", ErrInvalidArgument)
	}

	cfg = cfg.withDefaults()

	devPath, err := findDevice(cfg.Candidates)
	if err != nil {
		return nil, err
	}

	lock, err := runlock.Acquire(cfg.LockDir, DefaultLockName, !readOnly, cfg.LockGroup)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLock, err)
	}

	ctx, err := openLocked(cfg, devPath, readOnly, forceInit, lock)
	if err != nil {
		if ctx != nil {
			// Read-only session with no valid slot: the context keeps the
			// lock and device until the caller closes it.
			return ctx, err
		}
		lock.Release()
		return nil, err
	}
	return ctx, nil
}

// openLocked performs the device-open, load, select, and (if needed)
// re-initialization steps while already holding lock. Re-initialization
// resets the same context in place, so the lock is held without a gap from
// the load of the old slots through the first persist of the fresh store.
func openLocked(cfg Config, devPath string, readOnly, forceInit bool, lock *runlock.Lock) (*Context, error) {
	var gate writegate.Gate = writegate.NoopGate{}
	if !readOnly {
		g := writegate.New(sysfsDirFor(devPath))
		if _, err := g.Enable(); err != nil {
			return nil, fmt.Errorf("%w: enable write gate: %v", ErrIO, err)
		}
		gate = g
	}

	dev, err := openDevice(devPath, readOnly)
	if err != nil {
		gate.Restore()
		return nil, err
	}

	ctx := &Context{
		cfg:      cfg,
		devPath:  devPath,
		dev:      dev,
		gate:     gate,
		lock:     lock,
		readOnly: readOnly,
	}

	s0, err := loadSlot(dev, cfg.OffsetA, cfg)
	if err != nil {
		ctx.teardown()
		return nil, err
	}
	s1, err := loadSlot(dev, cfg.OffsetB, cfg)
	if err != nil {
		ctx.teardown()
		return nil, err
	}

	current := selectSlot(s0.valid, s1.valid, s0.hdr.Sernum, s1.hdr.Sernum)
	ctx.current = current

	switch current {
	case 0:
		ctx.hdr, ctx.vars = s0.hdr, s0.parsed
	case 1:
		ctx.hdr, ctx.vars = s1.hdr, s1.parsed
	default:
		ctx.hdr, ctx.vars = header{}, nil
	}

	if current == slotNone {
		if readOnly {
			return ctx, ErrNoValidStore
		}

		preserved := preserveUnderscored(ctx.vars)
		if err := ctx.reinitialize(preserved); err != nil {
			ctx.teardown()
			return nil, err
		}
		return ctx, nil
	}

	if !readOnly && forceInit {
		preserved := preserveUnderscored(ctx.vars)
		if err := ctx.reinitialize(preserved); err != nil {
			ctx.teardown()
			return nil, err
		}
	}

	return ctx, nil
}

// preserveUnderscored snapshots every underscore-prefixed variable out of
// vars (by value, so the copies outlive the buffer they were parsed from),
// matching spec section 4.4's re-initialization step 1: "snapshot the
// (possibly partially-valid) in-memory list" — the context's own current
// list, not anything read from the non-current slot.
func preserveUnderscored(vars []variable) []variable {
	var out []variable
	for _, v := range vars {
		if len(v.name) > 0 && v.name[0] == '_' {
			out = append(out, variable{name: v.name, value: v.value})
		}
	}
	return out
}

// reinitialize performs spec section 4.4's re-initialization: zero-fill
// both slots in the sequenced order (slot 0 header, slot 0 extension, slot
// 1 header, slot 1 extension), reset the in-memory context to a fresh
// state carrying only preserved, and persist it. A failure at any point
// leaves both slots zeroed or partially zeroed, which still fails magic on
// the next load and so can be cleanly re-initialized again.
func (c *Context) reinitialize(preserved []variable) error {
	zeroHeader := make([]byte, SectorSize)
	zeroExt := make([]byte, int(c.cfg.ExtensionSectors)*SectorSize)

	if err := blockio.WriteFull(c.dev, zeroHeader, int64(c.cfg.OffsetA)); err != nil {
		return fmt.Errorf("%w: zero slot 0 header: %v", ErrIO, err)
	}
	if err := blockio.WriteFull(c.dev, zeroExt, int64(c.cfg.OffsetA)+SectorSize); err != nil {
		return fmt.Errorf("%w: zero slot 0 extension: %v", ErrIO, err)
	}
	if err := blockio.WriteFull(c.dev, zeroHeader, int64(c.cfg.OffsetB)); err != nil {
		return fmt.Errorf("%w: zero slot 1 header: %v", ErrIO, err)
	}
	if err := blockio.WriteFull(c.dev, zeroExt, int64(c.cfg.OffsetB)+SectorSize); err != nil {
		return fmt.Errorf("%w: zero slot 1 extension: %v", ErrIO, err)
	}
	if err := c.dev.Sync(); err != nil {
		return fmt.Errorf("%w: flush zeroed slots: %v", ErrIO, err)
	}

	c.current = slotNone
	c.hdr = header{Sernum: 0}
	c.vars = preserved

	return c.Update()
}

// Update persists the context: the destination slot is always the one
// that is not currently selected (or slot 0 if neither is), so the
// previously current slot is never touched. The destination's serial is
// set to (current serial + 1) mod 256, variables are serialized into its
// variable area, both CRCs are computed, and the header sector is written
// before the extension area, both flushed before Update returns. A failed
// Update leaves both the current slot and in-memory state intact.
func (c *Context) Update() error {
	if c.readOnly {
		return ErrReadOnly
	}

	dest := 0
	if c.current == 0 {
		dest = 1
	}

	next := c.hdr
	next.Sernum = c.hdr.Sernum + 1

	finalHdr, headerSector, extArea, err := buildSlotImage(next, c.vars, c.cfg)
	if err != nil {
		return err
	}

	if err := writeSlot(c.dev, c.cfg, dest, headerSector, extArea); err != nil {
		return err
	}

	c.hdr = finalHdr
	c.current = dest
	return nil
}

// GetVariable returns the current value of name, or ErrNotFound if it is
// not set.
func (c *Context) GetVariable(name string) (string, error) {
	if c.current == slotNone {
		return "", ErrNoValidStore
	}
	idx := findVariable(c.vars, name)
	if idx < 0 {
		return "", fmt.Errorf("%w: variable %q", ErrNotFound, name)
	}
	return c.vars[idx].value, nil
}

// SetVariable sets name to value in the in-memory variable list; the
// change is not written to the device until Update is called. An empty
// value deletes the variable (ErrNotFound if it does not exist).
func (c *Context) SetVariable(name, value string) error {
	if c.readOnly {
		return ErrReadOnly
	}

	capacity := variableAreaCapacity(c.cfg.ExtensionSectors)
	vars, _, err := setOrDelete(c.vars, name, value, capacity)
	if err != nil {
		return err
	}
	c.vars = vars
	return nil
}

// DeleteVariable removes name from the in-memory variable list;
// ErrNotFound if it does not exist. The change is not written to the
// device until Update is called.
func (c *Context) DeleteVariable(name string) error {
	return c.SetVariable(name, "")
}

// Variables returns a copy of every (name, value) pair currently held in
// memory, as a map; it carries no ordering of the entries.
func (c *Context) Variables() map[string]string {
	out := make(map[string]string, len(c.vars))
	for _, v := range c.vars {
		out[v.name] = v.value
	}
	return out
}

// Close closes the device, reverts the write gate (write sessions only),
// and releases the lock, in reverse acquisition order, freeing the
// context's in-memory state. Close is safe to call once; subsequent calls
// are no-ops.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.teardown()
}

// teardown releases resources in reverse acquisition order: device, gate,
// lock. Used both by Close and by Open's failure paths.
func (c *Context) teardown() error {
	var errs []error

	if c.dev != nil {
		if err := c.dev.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close device: %w", err))
		}
	}
	if err := c.gate.Restore(); err != nil {
		errs = append(errs, fmt.Errorf("restore write gate: %w", err))
	}
	if err := c.lock.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release lock: %w", err))
	}

	return errors.Join(errs...)
}

// findDevice returns the first candidate path that exists, or
// ErrNoDevice.
func findDevice(candidates []string) (string, error) {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %v", ErrNoDevice, candidates)
}

// openDevice opens path as a blockio.Device, synchronously for write
// sessions so every write carries the durability barrier spec section 4.1
// requires.
func openDevice(path string, readOnly bool) (blockio.Device, error) {
	if readOnly {
		return blockio.OpenRead(path)
	}
	return blockio.OpenWrite(path)
}

// sysfsDirFor maps a block device path to its sysfs directory, e.g.
// /dev/mmcblk0boot1 -> /sys/class/block/mmcblk0boot1.
func sysfsDirFor(devPath string) string {
	return "/sys/class/block/" + filepath.Base(devPath)
}
