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

	"github.com/madisongh/go-bootinfo/internal/logger"
	"github.com/spf13/cobra"
)

const AppName = "bootinfo"

// log is shared by every subcommand; the bootinfo library itself never
// logs (only this driver does), matching the teacher's split between
// silent internal packages and a logging cmd layer.
var log = logger.New(os.Stderr, logger.InfoLevel)

var (
	flagDevice     string
	flagExtSectors uint16
	flagLockDir    string
	flagLockGrp    string
	flagLogLevel   string
)

// Execute builds and runs the root cobra command.
func Execute() error {
	rootCmd := &cobra.Command{
		Use:           AppName,
		Short:         AppName + " - boot variable store driver",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetLevel(logger.ParseLevel(flagLogLevel))
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagDevice, "device", "", "storage device path (default: try the built-in candidate list)")
	rootCmd.PersistentFlags().Uint16Var(&flagExtSectors, "ext-sectors", 0, "extension-sector count (default: compiled-in default)")
	rootCmd.PersistentFlags().StringVar(&flagLockDir, "lock-dir", "", "runtime lockfile directory (default: compiled-in default)")
	rootCmd.PersistentFlags().StringVar(&flagLockGrp, "lock-group", "", "group that should own the lockfile directory")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newMarkSuccessfulCommand())
	rootCmd.AddCommand(newMarkInProgressCommand())
	rootCmd.AddCommand(newGetCommand())
	rootCmd.AddCommand(newSetCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd.Execute()
}
