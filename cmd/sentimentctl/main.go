// Command sentimentctl administers the sentiment settings from the command
// line: it shows the current state, applies a settings file and runs the
// database migrations.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
