//go:build linux

// Package main is the EtherCAT master daemon. It requires Linux: the
// transport layer it wires up talks AF_PACKET raw sockets and netlink
// link state, neither of which exist on other kernels.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ecatmasterd",
	Short: "EtherCAT process-data plane master daemon",
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}
