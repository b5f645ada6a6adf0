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
	"fmt"
	"sort"

	"github.com/madisongh/go-bootinfo"
	"github.com/madisongh/go-bootinfo/pkg/util/format"
	"github.com/spf13/cobra"
)

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "print the header and variables of the current store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := bootinfo.Open(configFromFlags(), bootinfo.OpenReadOnly)
			if ctx != nil {
				defer ctx.Close()
			}
			if err != nil {
				return err
			}

			fmt.Printf("version:            %d\n", ctx.DevinfoVersion())
			fmt.Printf("extension sectors:  %d (%s)\n",
				ctx.ExtensionSectors(),
				format.FormatBytes(int64(ctx.ExtensionSectors())*bootinfo.SectorSize))
			fmt.Printf("boot in progress:   %v\n", ctx.IsInProgress())
			fmt.Printf("failed boots:       %d\n", ctx.FailedBootCount())

			vars := ctx.Variables()
			names := make([]string, 0, len(vars))
			for name := range vars {
				names = append(names, name)
			}
			sort.Strings(names)

			fmt.Println("variables:")
			for _, name := range names {
				fmt.Printf("  %s=%s\n", name, vars[name])
			}
			return nil
		},
	}
}
