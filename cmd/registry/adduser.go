package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/containerstack/registry/configuration"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// AddUserCmd prompts for a username and password and adds the bcrypt hash
// to the named configuration file (replacing the hash of an existing user
// of that name), matching the spec's `add_user`
// subcommand name exactly (underscore, not hyphen).
var AddUserCmd = &cobra.Command{
	Use:   "add_user <file>",
	Short: "`add_user` adds or updates a basic-auth credential",
	Long:  "`add_user` adds or updates a basic-auth credential in the given configuration file.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			exitUsage("usage: registry add_user <file>")
		}
		path := args[0]

		if _, err := os.Stat(path); err != nil {
			exitConfigMissing(path)
		}

		cfg, err := configuration.Load(path)
		if err != nil {
			exitMissingConfig(path, err)
		}

		username := readUsername()
		password := readPassword()

		if err := cfg.AddCredential(username, password); err != nil {
			exitUsage("hashing password: %v", err)
		}

		if err := cfg.Save(path); err != nil {
			exitUsage("writing %s: %v", path, err)
		}

		fmt.Printf("added user %q to %s\n", username, path)
	},
}

func readUsername() string {
	fmt.Print("Username: ")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	return strings.TrimSpace(scanner.Text())
}

func readPassword() string {
	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		exitUsage("reading password: %v", err)
	}
	return strings.TrimSpace(string(raw))
}
