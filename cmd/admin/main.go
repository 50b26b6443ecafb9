// Command admin is the operator tool for the quiz database: migrations,
// question imports, moderation and backups.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
