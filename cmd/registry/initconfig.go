package main

import (
	"fmt"
	"os"

	"github.com/containerstack/registry/configuration"
	"github.com/containerstack/registry/internal/uuid"
	"github.com/spf13/cobra"
)

// InitConfigCmd writes a fresh configuration file, refusing to overwrite an
// existing one.
var InitConfigCmd = &cobra.Command{
	Use:   "init-config <file>",
	Short: "`init-config` writes a new registry configuration file",
	Long:  "`init-config` writes a new registry configuration file.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			exitUsage("usage: registry init-config <file>")
		}
		path := args[0]

		if _, err := os.Stat(path); err == nil {
			exitConfigExists(path)
		}

		cfg := &configuration.Configuration{
			StoragePath:   "/var/lib/registry",
			ListenAddress: "0.0.0.0:5000",
			AccessURL:     "http://localhost:5000",
			AppSecret:     uuid.NewString(),
		}

		if err := cfg.Save(path); err != nil {
			exitUsage("writing %s: %v", path, err)
		}

		fmt.Printf("wrote configuration to %s\n", path)
	},
}
