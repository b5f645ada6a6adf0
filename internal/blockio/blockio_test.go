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
package blockio_test

import (
	"testing"

	"github.com/madisongh/go-bootinfo/internal/blockio"
	"github.com/stretchr/testify/require"
)

func TestMemDeviceReadWriteFull(t *testing.T) {
	dev := blockio.NewMemDevice(64)

	payload := []byte("hello, boot variable store")
	require.NoError(t, blockio.WriteFull(dev, payload, 8))

	got := make([]byte, len(payload))
	require.NoError(t, blockio.ReadFull(dev, got, 8))
	require.Equal(t, payload, got)
}

func TestWriteFullRejectsOutOfBounds(t *testing.T) {
	dev := blockio.NewMemDevice(16)
	err := blockio.WriteFull(dev, make([]byte, 32), 0)
	require.ErrorIs(t, err, blockio.ErrIO)
}

func TestReadFullRejectsPastEnd(t *testing.T) {
	dev := blockio.NewMemDevice(16)
	err := blockio.ReadFull(dev, make([]byte, 4), 16)
	require.ErrorIs(t, err, blockio.ErrIO)
}

func TestCorruptByteFlipsBit(t *testing.T) {
	dev := blockio.NewMemDevice(4)
	require.NoError(t, blockio.WriteFull(dev, []byte{0x0f, 0x0f, 0x0f, 0x0f}, 0))

	dev.CorruptByte(1)

	got := make([]byte, 4)
	require.NoError(t, blockio.ReadFull(dev, got, 0))
	require.Equal(t, []byte{0x0f, 0xf0, 0x0f, 0x0f}, got)
}
