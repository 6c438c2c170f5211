package main

import (
	"fmt"
	"os"
)

// Exit codes per the configured CLI contract: usage errors, a missing
// configuration file, a missing storage path, init-config refusing to
// clobber an existing file, and add_user refusing to create one.
const (
	exitCodeUsage          = -1
	exitCodeMissingConfig  = -2
	exitCodeMissingStorage = -3
	exitCodeConfigExists   = -4
	exitCodeConfigMissing  = -5
)

func exitUsage(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(exitCodeUsage)
}

func exitMissingConfig(path string, err error) {
	fmt.Fprintf(os.Stderr, "reading configuration %s: %v\n", path, err)
	os.Exit(exitCodeMissingConfig)
}

func exitMissingStorage(path string, err error) {
	fmt.Fprintf(os.Stderr, "storage path %s unavailable: %v\n", path, err)
	os.Exit(exitCodeMissingStorage)
}

func exitConfigExists(path string) {
	fmt.Fprintf(os.Stderr, "configuration %s already exists\n", path)
	os.Exit(exitCodeConfigExists)
}

func exitConfigMissing(path string) {
	fmt.Fprintf(os.Stderr, "configuration %s does not exist, run init-config first\n", path)
	os.Exit(exitCodeConfigMissing)
}
