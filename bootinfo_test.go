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
package bootinfo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/madisongh/go-bootinfo"
	"github.com/stretchr/testify/require"
)

// newTestConfig creates a zero-filled backing file large enough for both
// slots and returns a Config pointed at it, with the lockfile directory
// under the same temp dir.
func newTestConfig(t *testing.T) bootinfo.Config {
	t.Helper()

	dir := t.TempDir()
	devPath := filepath.Join(dir, "device")

	cfg := bootinfo.Config{ExtensionSectors: 4}
	size := int64(bootinfo.SectorSize) * int64(1+cfg.ExtensionSectors) * 2

	require.NoError(t, os.WriteFile(devPath, make([]byte, size), 0600))

	cfg.Candidates = []string{devPath}
	cfg.LockDir = filepath.Join(dir, "lock")
	return cfg
}

func TestOpenInitializesFreshDevice(t *testing.T) {
	cfg := newTestConfig(t)

	ctx, err := bootinfo.Open(cfg, 0)
	require.NoError(t, err)
	defer ctx.Close()

	require.False(t, ctx.IsInProgress())
	require.Equal(t, uint8(0), ctx.FailedBootCount())
	require.Empty(t, ctx.Variables())

	// A freshly re-initialized store must report the format version it
	// was just written with, without requiring a close/reopen round trip.
	require.Equal(t, uint16(4), ctx.DevinfoVersion())
	require.Equal(t, cfg.ExtensionSectors, ctx.ExtensionSectors())
}

func TestSetGetUpdatePersists(t *testing.T) {
	cfg := newTestConfig(t)

	ctx, err := bootinfo.Open(cfg, 0)
	require.NoError(t, err)

	require.NoError(t, ctx.SetVariable("boot_target", "mmcblk0p2"))
	require.NoError(t, ctx.Update())
	require.NoError(t, ctx.Close())

	ctx2, err := bootinfo.Open(cfg, bootinfo.OpenReadOnly)
	require.NoError(t, err)
	defer ctx2.Close()

	value, err := ctx2.GetVariable("boot_target")
	require.NoError(t, err)
	require.Equal(t, "mmcblk0p2", value)
}

func TestUpdateAlternatesSlots(t *testing.T) {
	cfg := newTestConfig(t)

	ctx, err := bootinfo.Open(cfg, 0)
	require.NoError(t, err)
	defer func() { require.NoError(t, ctx.Close()) }()

	for i := 0; i < 5; i++ {
		require.NoError(t, ctx.SetVariable("counter", string(rune('0'+i))))
		require.NoError(t, ctx.Update())
	}

	value, err := ctx.GetVariable("counter")
	require.NoError(t, err)
	require.Equal(t, "4", value)
}

func TestMarkInProgressAndSuccessful(t *testing.T) {
	cfg := newTestConfig(t)

	ctx, err := bootinfo.Open(cfg, 0)
	require.NoError(t, err)
	defer ctx.Close()

	failed, err := ctx.MarkInProgress()
	require.NoError(t, err)
	require.Equal(t, uint8(0), failed)
	require.True(t, ctx.IsInProgress())

	failed, err = ctx.MarkInProgress()
	require.NoError(t, err)
	require.Equal(t, uint8(1), failed)

	prior, err := ctx.MarkSuccessful()
	require.NoError(t, err)
	require.Equal(t, uint8(1), prior)
	require.False(t, ctx.IsInProgress())
	require.Equal(t, uint8(0), ctx.FailedBootCount())
}

func TestGetVariableNotFound(t *testing.T) {
	cfg := newTestConfig(t)

	ctx, err := bootinfo.Open(cfg, 0)
	require.NoError(t, err)
	defer ctx.Close()

	_, err = ctx.GetVariable("nope")
	require.ErrorIs(t, err, bootinfo.ErrNotFound)
}

func TestDeleteVariable(t *testing.T) {
	cfg := newTestConfig(t)

	ctx, err := bootinfo.Open(cfg, 0)
	require.NoError(t, err)
	defer ctx.Close()

	require.NoError(t, ctx.SetVariable("k", "v"))
	require.NoError(t, ctx.DeleteVariable("k"))
	require.NoError(t, ctx.Update())

	_, err = ctx.GetVariable("k")
	require.ErrorIs(t, err, bootinfo.ErrNotFound)
}

func TestReadOnlySessionRejectsMutation(t *testing.T) {
	cfg := newTestConfig(t)

	ctx, err := bootinfo.Open(cfg, 0)
	require.NoError(t, err)
	require.NoError(t, ctx.Close())

	roCtx, err := bootinfo.Open(cfg, bootinfo.OpenReadOnly)
	require.NoError(t, err)
	defer roCtx.Close()

	require.ErrorIs(t, roCtx.SetVariable("x", "y"), bootinfo.ErrReadOnly)
	require.ErrorIs(t, roCtx.Update(), bootinfo.ErrReadOnly)
	_, err = roCtx.MarkInProgress()
	require.ErrorIs(t, err, bootinfo.ErrReadOnly)
}

func TestOpenReadOnlyNoValidStoreStillReturnsContext(t *testing.T) {
	cfg := newTestConfig(t)

	ctx, err := bootinfo.Open(cfg, bootinfo.OpenReadOnly)
	require.ErrorIs(t, err, bootinfo.ErrNoValidStore)
	require.NotNil(t, ctx)
	require.NoError(t, ctx.Close())
}

func TestOpenReadOnlyAndForceInitRejected(t *testing.T) {
	cfg := newTestConfig(t)

	ctx, err := bootinfo.Open(cfg, bootinfo.OpenReadOnly|bootinfo.OpenForceInit)
	require.ErrorIs(t, err, bootinfo.ErrInvalidArgument)
	require.Nil(t, ctx)
}

func TestForceInitPreservesUnderscoredVariables(t *testing.T) {
	cfg := newTestConfig(t)

	ctx, err := bootinfo.Open(cfg, 0)
	require.NoError(t, err)
	require.NoError(t, ctx.SetVariable("_factory_serial", "ABC123"))
	require.NoError(t, ctx.SetVariable("boot_target", "mmcblk0p2"))
	require.NoError(t, ctx.Update())
	require.NoError(t, ctx.Close())

	ctx2, err := bootinfo.Open(cfg, bootinfo.OpenForceInit)
	require.NoError(t, err)
	defer ctx2.Close()

	value, err := ctx2.GetVariable("_factory_serial")
	require.NoError(t, err)
	require.Equal(t, "ABC123", value)

	_, err = ctx2.GetVariable("boot_target")
	require.ErrorIs(t, err, bootinfo.ErrNotFound)
}

func TestForceInitDoesNotResurrectDeletedUnderscoredVariable(t *testing.T) {
	cfg := newTestConfig(t)

	ctx, err := bootinfo.Open(cfg, 0)
	require.NoError(t, err)
	require.NoError(t, ctx.SetVariable("_factory_serial", "ABC123"))
	require.NoError(t, ctx.Update()) // lands on the non-current slot

	require.NoError(t, ctx.DeleteVariable("_factory_serial"))
	require.NoError(t, ctx.Update()) // writes the other slot; the first
	// still carries a CRC-valid, stale copy of _factory_serial
	require.NoError(t, ctx.Close())

	ctx2, err := bootinfo.Open(cfg, bootinfo.OpenForceInit)
	require.NoError(t, err)
	defer ctx2.Close()

	_, err = ctx2.GetVariable("_factory_serial")
	require.ErrorIs(t, err, bootinfo.ErrNotFound)
}
