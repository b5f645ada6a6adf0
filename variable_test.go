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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeParseRoundTrip(t *testing.T) {
	vars := []variable{
		{name: "boot_target", value: "mmcblk0p2"},
		{name: "_factory_serial", value: "ABC123"},
		{name: "empty_looking", value: "0"},
	}

	buf, err := serializeVariables(vars, serializedSize(vars)+16)
	require.NoError(t, err)

	got := parseVariables(buf)
	require.Equal(t, vars, got)
}

func TestParseVariablesStopsAtLeadingNull(t *testing.T) {
	area := make([]byte, 32)
	require.Empty(t, parseVariables(area))
}

func TestParseVariablesTruncatedNameDegradesToleratly(t *testing.T) {
	area := []byte("dangling_name_no_terminator")
	require.Empty(t, parseVariables(area))
}

func TestParseVariablesTruncatedValueStopsBeforeIt(t *testing.T) {
	area := append([]byte("a\x00ok\x00"), []byte("b\x00dangling_value_no_terminator")...)
	got := parseVariables(area)
	require.Equal(t, []variable{{name: "a", value: "ok"}}, got)
}

func TestSerializeVariablesOversize(t *testing.T) {
	vars := []variable{{name: "k", value: strings.Repeat("x", 100)}}
	_, err := serializeVariables(vars, 10)
	require.ErrorIs(t, err, ErrOversize)
}

func TestValidateNameBoundary(t *testing.T) {
	ok := strings.Repeat("a", maxNameLen-1)
	require.NoError(t, validateName(ok))

	tooLong := strings.Repeat("a", maxNameLen)
	require.ErrorIs(t, validateName(tooLong), ErrNameTooLong)
}

func TestValidateNameRejectsBadCharacters(t *testing.T) {
	require.Error(t, validateName(""))
	require.Error(t, validateName("1leadingdigit"))
	require.Error(t, validateName("has-dash"))
	require.NoError(t, validateName("_leading_underscore_ok"))
}

func TestValidateValueRejectsNonPrintable(t *testing.T) {
	require.NoError(t, validateValue("plain text"))
	require.Error(t, validateValue("bad\x00byte"))
	require.Error(t, validateValue("bad\x7fbyte"))
}

func TestSetOrDeleteAppendUpdateDelete(t *testing.T) {
	capacity := 4096

	vars, result, err := setOrDelete(nil, "a", "1", capacity)
	require.NoError(t, err)
	require.Equal(t, mutateAppended, result)
	require.Equal(t, []variable{{name: "a", value: "1"}}, vars)

	vars, result, err = setOrDelete(vars, "a", "2", capacity)
	require.NoError(t, err)
	require.Equal(t, mutateUpdated, result)
	require.Equal(t, "2", vars[0].value)

	vars, result, err = setOrDelete(vars, "a", "", capacity)
	require.NoError(t, err)
	require.Equal(t, mutateDeleted, result)
	require.Empty(t, vars)
}

func TestSetOrDeleteMissingNameIsNotFound(t *testing.T) {
	_, _, err := setOrDelete(nil, "missing", "", 4096)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetOrDeleteRejectsOversizedUpdate(t *testing.T) {
	vars := []variable{{name: "a", value: "small"}}
	_, _, err := setOrDelete(vars, "a", strings.Repeat("x", 100), serializedSize(vars)+1)
	require.ErrorIs(t, err, ErrOversize)
}
