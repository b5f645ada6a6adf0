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
	"testing"

	"github.com/madisongh/go-bootinfo/internal/blockio"
	"github.com/stretchr/testify/require"
)

func TestSelectSlotOnlyOneValid(t *testing.T) {
	require.Equal(t, 0, selectSlot(true, false, 0, 0))
	require.Equal(t, 1, selectSlot(false, true, 0, 0))
	require.Equal(t, slotNone, selectSlot(false, false, 0, 0))
}

func TestSelectSlotSerialComparison(t *testing.T) {
	require.Equal(t, 1, selectSlot(true, true, 3, 4))
	require.Equal(t, 0, selectSlot(true, true, 4, 3))
	require.Equal(t, 0, selectSlot(true, true, 7, 7))
}

func TestSelectSlotWraparound(t *testing.T) {
	// slot 0 at 255, slot 1 at 0: 0 is 255's wrapped successor, so slot 1
	// wins even though its raw serial value is numerically smaller.
	require.Equal(t, 1, selectSlot(true, true, 255, 0))
	require.Equal(t, 0, selectSlot(true, true, 0, 255))
}

func testConfig() Config {
	cfg := Config{ExtensionSectors: 4}
	cfg = cfg.withDefaults()
	cfg.OffsetA = 0
	cfg.OffsetB = uint64(cfg.slotSize())
	return cfg
}

func TestBuildSlotImageLoadSlotRoundTrip(t *testing.T) {
	cfg := testConfig()
	dev := blockio.NewMemDevice(cfg.slotSize() * 2)

	hdr := header{Sernum: 5, FailedBoots: 2}
	hdr.setInProgress(true)
	vars := []variable{{name: "boot_target", value: "mmcblk0p2"}}

	_, headerSector, extArea, err := buildSlotImage(hdr, vars, cfg)
	require.NoError(t, err)
	require.NoError(t, writeSlot(dev, cfg, 0, headerSector, extArea))

	loaded, err := loadSlot(dev, cfg.OffsetA, cfg)
	require.NoError(t, err)
	require.True(t, loaded.valid)
	require.Equal(t, uint8(5), loaded.hdr.Sernum)
	require.Equal(t, uint8(2), loaded.hdr.FailedBoots)
	require.True(t, loaded.hdr.inProgress())
	require.Equal(t, vars, loaded.parsed)
}

func TestLoadSlotAcceptsValidHeaderCRC(t *testing.T) {
	cfg := testConfig()
	cfg.VerifyHeaderCRC = true
	dev := blockio.NewMemDevice(cfg.slotSize())

	hdr := header{Sernum: 9, FailedBoots: 1}
	_, headerSector, extArea, err := buildSlotImage(hdr, nil, cfg)
	require.NoError(t, err)
	require.NoError(t, writeSlot(dev, cfg, 0, headerSector, extArea))

	loaded, err := loadSlot(dev, cfg.OffsetA, cfg)
	require.NoError(t, err)
	require.True(t, loaded.valid)
	require.Equal(t, uint8(9), loaded.hdr.Sernum)
}

func TestLoadSlotDetectsHeaderCRCMutation(t *testing.T) {
	cfg := testConfig()
	cfg.VerifyHeaderCRC = true
	dev := blockio.NewMemDevice(cfg.slotSize())

	_, headerSector, extArea, err := buildSlotImage(header{Sernum: 1}, nil, cfg)
	require.NoError(t, err)
	require.NoError(t, writeSlot(dev, cfg, 0, headerSector, extArea))

	// Flip the failed_boots byte (offset 11, outside the stored CRC
	// field) so the extension CRC, which doesn't cover the header,
	// stays intact and only the header CRC check can catch this.
	dev.CorruptByte(11)

	loaded, err := loadSlot(dev, cfg.OffsetA, cfg)
	require.NoError(t, err)
	require.False(t, loaded.valid)
}

func TestLoadSlotRejectsBadMagic(t *testing.T) {
	cfg := testConfig()
	dev := blockio.NewMemDevice(cfg.slotSize())

	_, headerSector, extArea, err := buildSlotImage(header{}, nil, cfg)
	require.NoError(t, err)
	headerSector[0] = 'X'
	require.NoError(t, writeSlot(dev, cfg, 0, headerSector, extArea))

	loaded, err := loadSlot(dev, cfg.OffsetA, cfg)
	require.NoError(t, err)
	require.False(t, loaded.valid)
}

func TestLoadSlotDetectsExtensionCorruption(t *testing.T) {
	cfg := testConfig()
	dev := blockio.NewMemDevice(cfg.slotSize())

	_, headerSector, extArea, err := buildSlotImage(header{Sernum: 1}, []variable{{name: "a", value: "b"}}, cfg)
	require.NoError(t, err)
	require.NoError(t, writeSlot(dev, cfg, 0, headerSector, extArea))

	dev.CorruptByte(int64(SectorSize) + 2)

	loaded, err := loadSlot(dev, cfg.OffsetA, cfg)
	require.NoError(t, err)
	require.False(t, loaded.valid)
}

func TestLoadSlotRejectsMismatchedExtensionSectors(t *testing.T) {
	cfg := testConfig()
	dev := blockio.NewMemDevice(cfg.slotSize())

	_, headerSector, extArea, err := buildSlotImage(header{}, nil, cfg)
	require.NoError(t, err)
	require.NoError(t, writeSlot(dev, cfg, 0, headerSector, extArea))

	wrongCfg := cfg
	wrongCfg.ExtensionSectors = cfg.ExtensionSectors + 1

	loaded, err := loadSlot(dev, cfg.OffsetA, wrongCfg)
	require.NoError(t, err)
	require.False(t, loaded.valid)
}
