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
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/madisongh/go-bootinfo"
	"github.com/spf13/cobra"
)

func newGetCommand() *cobra.Command {
	var quiet bool

	c := &cobra.Command{
		Use:   "get <name>",
		Short: "print the value of a boot variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := bootinfo.Open(configFromFlags(), bootinfo.OpenReadOnly)
			if ctx != nil {
				defer ctx.Close()
			}
			if err != nil {
				return err
			}

			value, err := ctx.GetVariable(args[0])
			if err != nil {
				if quiet && errors.Is(err, bootinfo.ErrNotFound) {
					os.Exit(1)
				}
				return err
			}

			if quiet {
				fmt.Println(value)
			} else {
				fmt.Printf("%s=%s\n", args[0], value)
			}
			return nil
		},
	}

	c.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the value, exit 1 (no error) if unset")
	return c
}

func newSetCommand() *cobra.Command {
	var fromFile string

	c := &cobra.Command{
		Use:   "set <name>[=value]",
		Short: "set, or delete with an empty value, a boot variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, value, err := resolveNameValue(args[0], fromFile)
			if err != nil {
				return err
			}

			ctx, err := bootinfo.Open(configFromFlags(), bootinfo.OpenFlags(0))
			if err != nil {
				return err
			}
			defer ctx.Close()

			if err := ctx.SetVariable(name, value); err != nil {
				return err
			}
			if err := ctx.Update(); err != nil {
				return err
			}

			if value == "" {
				log.Infof("deleted %s", name)
			} else {
				log.Infof("set %s", name)
			}
			return nil
		},
	}

	c.Flags().StringVar(&fromFile, "from-file", "", "read the value from path instead of the argument (- for stdin)")
	return c
}

// resolveNameValue splits arg on the first '=' for the inline form, or,
// when fromFile is set, takes the name from arg (which must carry no '=')
// and reads the value from fromFile, "-" meaning stdin. Trailing newlines
// are trimmed the way a shell would before assigning $(cat file).
func resolveNameValue(arg, fromFile string) (name, value string, err error) {
	if fromFile == "" {
		if i := strings.IndexByte(arg, '='); i >= 0 {
			return arg[:i], arg[i+1:], nil
		}
		return arg, "", nil
	}

	if strings.Contains(arg, "=") {
		return "", "", fmt.Errorf("%w: --from-file cannot be combined with name=value", bootinfo.ErrInvalidArgument)
	}

	var raw []byte
	if fromFile == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(fromFile)
	}
	if err != nil {
		return "", "", fmt.Errorf("%w: read --from-file: %v", bootinfo.ErrInvalidArgument, err)
	}

	return arg, strings.TrimRight(string(raw), "\n"), nil
}
