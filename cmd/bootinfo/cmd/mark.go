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
	"os"

	"github.com/madisongh/go-bootinfo"
	"github.com/spf13/cobra"
)

func newMarkSuccessfulCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-successful",
		Short: "clear boot-in-progress and reset the failed-boot counter",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := bootinfo.Open(configFromFlags(), bootinfo.OpenFlags(0))
			if err != nil {
				return err
			}
			defer ctx.Close()

			prior, err := ctx.MarkSuccessful()
			if err != nil {
				return err
			}
			log.Infof("boot confirmed successful, had %d prior failed attempt(s)", prior)
			return nil
		},
	}
}

func newMarkInProgressCommand() *cobra.Command {
	var threshold uint8

	c := &cobra.Command{
		Use:   "mark-in-progress",
		Short: "record a new boot attempt, exiting non-zero at the failure threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := bootinfo.Open(configFromFlags(), bootinfo.OpenFlags(0))
			if err != nil {
				return err
			}
			defer ctx.Close()

			failed, err := ctx.MarkInProgress()
			if err != nil {
				return err
			}
			log.Infof("boot in progress, %d consecutive unconfirmed attempt(s)", failed)

			if threshold > 0 && failed >= threshold {
				log.Warnf("failed-boot count %d reached threshold %d, caller should switch boot slot", failed, threshold)
				os.Exit(1)
			}
			return nil
		},
	}

	c.Flags().Uint8Var(&threshold, "threshold", 0, "exit 1 when the failed-boot count reaches this value (0 disables)")
	return c
}
