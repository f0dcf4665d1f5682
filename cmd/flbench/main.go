package main

import (
	"os"

	"github.com/Huy-VNNIC/ZeroTrust-FLBench/cmd/flbench/cmd"
	"github.com/Huy-VNNIC/ZeroTrust-FLBench/internal/common"
)

func main() {
	common.ConfigureLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
