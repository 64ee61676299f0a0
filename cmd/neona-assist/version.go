package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of neona-assist",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("neona-assist version %s\n", version)
		fmt.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Printf("  Go version: %s\n", runtime.Version())
	},
}
