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

// MarkInProgress applies the mark_in_progress transition of spec section
// 4.5: if BOOT_IN_PROGRESS is already set, this is a retry without an
// intervening success, so failed_boots is incremented with saturation at
// 255; otherwise BOOT_IN_PROGRESS is set and failed_boots is left
// unchanged. The post-update failed_boots is returned and the change is
// persisted before MarkInProgress returns.
func (c *Context) MarkInProgress() (uint8, error) {
	if c.readOnly {
		return 0, ErrReadOnly
	}

	if c.hdr.inProgress() {
		if c.hdr.FailedBoots < 255 {
			c.hdr.FailedBoots++
		}
	} else {
		c.hdr.setInProgress(true)
	}

	if err := c.Update(); err != nil {
		return 0, err
	}
	return c.hdr.FailedBoots, nil
}

// MarkSuccessful applies the mark_successful transition: clears
// BOOT_IN_PROGRESS and zeroes failed_boots, returning the pre-zero
// failed_boots count. The change is persisted before MarkSuccessful
// returns.
func (c *Context) MarkSuccessful() (uint8, error) {
	if c.readOnly {
		return 0, ErrReadOnly
	}

	prior := c.hdr.FailedBoots
	c.hdr.setInProgress(false)
	c.hdr.FailedBoots = 0

	if err := c.Update(); err != nil {
		return 0, err
	}
	return prior, nil
}

// IsInProgress reports the in-memory BOOT_IN_PROGRESS bit without I/O.
func (c *Context) IsInProgress() bool {
	return c.hdr.inProgress()
}

// FailedBootCount reports the in-memory failed_boots counter without I/O.
func (c *Context) FailedBootCount() uint8 {
	return c.hdr.FailedBoots
}

// DevinfoVersion reports the in-memory header's on-disk format version.
func (c *Context) DevinfoVersion() uint16 {
	return c.hdr.Version
}

// ExtensionSectors reports the build-time extension-sector count E this
// context was opened with.
func (c *Context) ExtensionSectors() uint16 {
	return c.cfg.ExtensionSectors
}
