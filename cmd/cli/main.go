// Command dyntable is the command-line client for the dynamic table API.
package main

import (
	"os"

	"dyntable/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
