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

// Package writegate toggles the per-device soft read-only switch
// (force_ro/ro sysfs-style files) that must read "0" before a write session
// can open its block device for writing, and restores the prior value on
// close.
package writegate

import (
	"os"
	"strings"
)

// candidateFiles are tried, in order, under the device's sysfs directory.
// Whichever exists first is used; if neither exists the gate is a no-op.
var candidateFiles = []string{"force_ro", "ro"}

// Gate is the narrow "toggle soft read-only" capability a write session
// needs. Modeled as an interface so tests can substitute an in-memory gate
// instead of touching real sysfs files.
type Gate interface {
	// Enable flips the switch to writeable if needed, returning whether
	// it actually changed anything.
	Enable() (changed bool, err error)
	// Restore reverses Enable if it reported a change.
	Restore() error
}

// SysfsGate toggles force_ro/ro under a device's sysfs directory, e.g.
// /sys/block/mmcblk0boot1/force_ro.
type SysfsGate struct {
	path    string // resolved path to the file that was found, if any
	changed bool
}

// New locates the first present candidate file under sysfsDir. Absence of
// every candidate is tolerated silently: the returned Gate becomes a no-op,
// per spec section 6.
func New(sysfsDir string) *SysfsGate {
	for _, name := range candidateFiles {
		path := sysfsDir + "/" + name
		if _, err := os.Stat(path); err == nil {
			return &SysfsGate{path: path}
		}
	}
	return &SysfsGate{}
}

func (g *SysfsGate) Enable() (bool, error) {
	if g.path == "" {
		return false, nil
	}

	cur, err := os.ReadFile(g.path)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(string(cur)) == "0" {
		return false, nil
	}

	if err := os.WriteFile(g.path, []byte("0"), 0); err != nil {
		return false, err
	}
	g.changed = true
	return true, nil
}

func (g *SysfsGate) Restore() error {
	if g.path == "" || !g.changed {
		return nil
	}
	g.changed = false
	return os.WriteFile(g.path, []byte("1"), 0)
}

// NoopGate is a Gate that never touches the filesystem; used by read
// sessions, which are never required to enable the switch.
type NoopGate struct{}

func (NoopGate) Enable() (bool, error) { return false, nil }
func (NoopGate) Restore() error        { return nil }
