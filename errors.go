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

import "errors"

// Error kinds returned by the bootinfo package. Callers should use
// errors.Is against these sentinels rather than comparing strings.
var (
	ErrInvalidArgument = errors.New("bootinfo: invalid argument")
	ErrReadOnly        = errors.New("bootinfo: session is read-only")
	ErrNotFound        = errors.New("bootinfo: variable not found")
	ErrNameTooLong     = errors.New("bootinfo: variable name too long")
	ErrOversize        = errors.New("bootinfo: value exceeds variable area capacity")
	ErrNoDevice        = errors.New("bootinfo: no candidate storage device found")
	ErrIO              = errors.New("bootinfo: storage I/O failure")
	ErrLock            = errors.New("bootinfo: failed to acquire session lock")
	ErrNoValidStore    = errors.New("bootinfo: no valid slot found")
	ErrInternal        = errors.New("bootinfo: internal error")
)
