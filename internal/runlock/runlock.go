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

// Package runlock implements the exclusive-access lockfile that serializes
// bootinfo sessions: read sessions take a shared advisory lock, write
// sessions take an exclusive one, held for the entire session.
package runlock

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
)

// Lock holds an acquired advisory lock on a well-known lockfile.
type Lock struct {
	f *os.File
}

// Acquire creates dir (mode 02770, group-owned by groupName if non-empty)
// if it does not exist, opens/creates dir/name, and flocks it: exclusive
// when exclusive is true, shared otherwise. The lock is held until
// Release.
func Acquire(dir, name string, exclusive bool, groupName string) (*Lock, error) {
	if err := ensureDir(dir, groupName); err != nil {
		return nil, fmt.Errorf("runlock: %w", err)
	}

	path := dir + "/" + name
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0660)
	if err != nil {
		return nil, fmt.Errorf("runlock: open %q: %w", path, err)
	}

	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	if err := unix.Flock(int(f.Fd()), how); err != nil {
		f.Close()
		return nil, fmt.Errorf("runlock: flock %q: %w", path, err)
	}

	return &Lock{f: f}, nil
}

// Release drops the lock and closes the underlying file descriptor. It is
// idempotent; calling it twice is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	err := l.f.Close()
	l.f = nil
	return err
}

// ensureDir creates dir with mode 02770 if missing, optionally chown-ing
// its group to groupName.
func ensureDir(dir, groupName string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%q exists and is not a directory", dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat %q: %w", dir, err)
	}

	if err := os.MkdirAll(dir, 0770|os.ModeSetgid); err != nil {
		return fmt.Errorf("mkdir %q: %w", dir, err)
	}

	if groupName == "" {
		return nil
	}

	grp, err := user.LookupGroup(groupName)
	if err != nil {
		return fmt.Errorf("lookup group %q: %w", groupName, err)
	}
	gid, err := strconv.Atoi(grp.Gid)
	if err != nil {
		return fmt.Errorf("parse gid %q: %w", grp.Gid, err)
	}
	if err := os.Chown(dir, -1, gid); err != nil {
		return fmt.Errorf("chown %q to group %q: %w", dir, groupName, err)
	}
	return nil
}
