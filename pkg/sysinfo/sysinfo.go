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

// Package sysinfo reports the host Linux distribution a bootinfo session is
// running under, for inclusion in diagnostic output. bootinfo only ever
// targets embedded Linux boards managing their own boot device, so unlike
// the teacher's original cross-platform sniffer this is Linux-only.
package sysinfo

import (
	"bufio"
	"os"
	"strings"
)

// HostUnknown is returned when /etc/os-release cannot be read.
var HostUnknown = HostInfo{Name: "unknown", Version: "unknown"}

// HostInfo holds the distribution name and version of the running host.
type HostInfo struct {
	Name    string
	Version string
}

// Stat reads /etc/os-release and returns the host's distribution name and
// version, or HostUnknown if the file is absent or unreadable, as may
// happen inside a minimal initramfs.
func Stat() HostInfo {
	f, err := os.Open("/etc/os-release")
	if err != nil {
		return HostUnknown
	}
	defer f.Close()

	info := HostUnknown
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "NAME="):
			info.Name = strings.Trim(line[len("NAME="):], `"`)
		case strings.HasPrefix(line, "VERSION="):
			info.Version = strings.Trim(line[len("VERSION="):], `"`)
		}
	}
	return info
}
