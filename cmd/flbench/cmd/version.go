package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/flbench/build"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Version: %s\n", build.ReleaseVersion)
			fmt.Printf("Commit: %s\n", build.GitCommit)
			fmt.Printf("Build time: %s\n", build.BuildTime)
			fmt.Printf("Go version: %s\n", runtime.Version())
		},
	}
}
