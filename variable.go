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
	"fmt"
	"regexp"
)

// maxNameLen is the exclusive upper bound on variable name length, in
// bytes. A name of exactly maxNameLen-1 bytes is accepted; maxNameLen is
// rejected.
const maxNameLen = 512

var nameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// variable is a single (name, value) pair held in a Context's in-memory
// list. Both strings are owned copies, never slices into a parse buffer, so
// the list outlives the buffer it was parsed from (spec section 9's note on
// preserved-variable lifetime).
type variable struct {
	name  string
	value string
}

// isPrintable reports whether s is free of ASCII control characters: it
// rejects bytes below 0x20 (including null) and 0x7f. Bytes 0x80 and above
// are accepted.
func isPrintable(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == 0x7f {
			return false
		}
	}
	return true
}

// parseVariables walks the variable area of a slot buffer starting right
// after the header, per spec section 4.3's "Parse" algorithm: a leading
// null is a clean end; a name or value with no terminator before the area
// ends degrades to a tolerant stop rather than an error.
func parseVariables(area []byte) []variable {
	var vars []variable

	pos := 0
	for pos < len(area) {
		if area[pos] == 0 {
			break
		}

		nameEnd := indexByte(area, pos, 0)
		if nameEnd < 0 {
			break
		}
		name := string(area[pos:nameEnd])

		valueStart := nameEnd + 1
		valueEnd := indexByte(area, valueStart, 0)
		if valueEnd < 0 {
			break
		}
		value := string(area[valueStart:valueEnd])

		vars = append(vars, variable{name: name, value: value})
		pos = valueEnd + 1
	}

	return vars
}

// indexByte returns the index of the first occurrence of b in area at or
// after start, or -1 if area ends first.
func indexByte(area []byte, start int, b byte) int {
	for i := start; i < len(area); i++ {
		if area[i] == b {
			return i
		}
	}
	return -1
}

// serializedSize returns the number of bytes serializeVariables would emit
// for vars: each entry contributes len(name)+1+len(value)+1, plus one
// trailing null.
func serializedSize(vars []variable) int {
	n := 1
	for _, v := range vars {
		n += len(v.name) + 1 + len(v.value) + 1
	}
	return n
}

// serializeVariables packs vars into the variable area wire format: for
// each entry, name, null, value, null; after the last entry, one trailing
// null. Fails with ErrOversize if the result would not fit in capacity
// bytes, before writing anything.
func serializeVariables(vars []variable, capacity int) ([]byte, error) {
	size := serializedSize(vars)
	if size > capacity {
		return nil, fmt.Errorf("%w: variable area needs %d bytes, capacity is %d", ErrOversize, size, capacity)
	}

	buf := make([]byte, 0, capacity)
	for _, v := range vars {
		buf = append(buf, v.name...)
		buf = append(buf, 0)
		buf = append(buf, v.value...)
		buf = append(buf, 0)
	}
	buf = append(buf, 0)

	if len(buf) < capacity {
		buf = append(buf, make([]byte, capacity-len(buf))...)
	}
	return buf, nil
}

// findVariable returns the index of name in vars, or -1.
func findVariable(vars []variable, name string) int {
	for i, v := range vars {
		if v.name == name {
			return i
		}
	}
	return -1
}

// validateName reports whether name is a legal variable name: matches
// [A-Za-z_][A-Za-z0-9_]* and is shorter than maxNameLen bytes.
func validateName(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("%w: empty variable name", ErrInvalidArgument)
	}
	if len(name) >= maxNameLen {
		return fmt.Errorf("%w: name %q is %d bytes, limit is %d", ErrNameTooLong, name, len(name), maxNameLen-1)
	}
	if !nameRE.MatchString(name) {
		return fmt.Errorf("%w: name %q does not match [A-Za-z_][A-Za-z0-9_]*", ErrInvalidArgument, name)
	}
	return nil
}

// validateValue reports whether value contains only printable characters
// (the empty string is always a valid value; it signals deletion to
// setOrDelete).
func validateValue(value string) error {
	if !isPrintable(value) {
		return fmt.Errorf("%w: value contains non-printable characters", ErrInvalidArgument)
	}
	return nil
}

// mutateResult distinguishes the three successful outcomes setOrDelete can
// produce (updated in place, appended, deleted), so callers can tell them
// apart without inspecting the list themselves.
type mutateResult int

const (
	mutateUpdated mutateResult = iota
	mutateAppended
	mutateDeleted
)

// setOrDelete applies spec section 4.3's "Mutate" rule to vars: an empty
// value deletes an existing entry (ErrNotFound if it doesn't exist), a
// non-empty value updates an existing entry in place or appends a new one,
// subject to the combined size still fitting in capacity.
func setOrDelete(vars []variable, name, value string, capacity int) ([]variable, mutateResult, error) {
	if err := validateName(name); err != nil {
		return vars, 0, err
	}
	if err := validateValue(value); err != nil {
		return vars, 0, err
	}

	idx := findVariable(vars, name)

	if value == "" {
		if idx < 0 {
			return vars, 0, fmt.Errorf("%w: variable %q", ErrNotFound, name)
		}
		out := make([]variable, 0, len(vars)-1)
		out = append(out, vars[:idx]...)
		out = append(out, vars[idx+1:]...)
		return out, mutateDeleted, nil
	}

	if idx >= 0 {
		projected := append([]variable{}, vars...)
		projected[idx] = variable{name: name, value: value}
		if serializedSize(projected) > capacity {
			return vars, 0, fmt.Errorf("%w: updating %q would need %d bytes, capacity is %d",
				ErrOversize, name, serializedSize(projected), capacity)
		}
		return projected, mutateUpdated, nil
	}

	projected := append(append([]variable{}, vars...), variable{name: name, value: value})
	if serializedSize(projected) > capacity {
		return vars, 0, fmt.Errorf("%w: adding %q would need %d bytes, capacity is %d",
			ErrOversize, name, serializedSize(projected), capacity)
	}
	return projected, mutateAppended, nil
}
