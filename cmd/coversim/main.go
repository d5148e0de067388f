package main

import (
	"os"

	"cosmossdk.io/log"

	"github.com/al-neptune/protocol/cmd/coversim/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		log.NewLogger(os.Stderr).Error("coversim failed", "err", err)
		os.Exit(1)
	}
}
