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
	"github.com/madisongh/go-bootinfo"
	"github.com/spf13/cobra"
)

func newInitCommand() *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "init",
		Short: "initialize the boot variable store",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := bootinfo.OpenFlags(0)
			if force {
				flags |= bootinfo.OpenForceInit
			}

			ctx, err := bootinfo.Open(configFromFlags(), flags)
			if err != nil {
				return err
			}
			defer ctx.Close()

			log.Infof("store initialized, format version %d", ctx.DevinfoVersion())
			return nil
		},
	}

	c.Flags().BoolVar(&force, "force", false, "re-initialize even if a valid slot exists")
	return c
}
