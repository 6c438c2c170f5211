// Command registry runs the container registry server and manages its
// configuration file, following the teacher's cobra root-command layout
// (registry/root.go) with subcommands registered in init.
package main

import (
	"github.com/spf13/cobra"
)

// RootCmd is the main command for the registry binary.
var RootCmd = &cobra.Command{
	Use:   "registry",
	Short: "`registry` stores and distributes container images",
	Long:  "`registry` stores and distributes container images.",
}

func init() {
	RootCmd.AddCommand(InitConfigCmd)
	RootCmd.AddCommand(AddUserCmd)
	RootCmd.AddCommand(ServeCmd)
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		exitUsage(err.Error())
	}
}
