// Command bookwyrm is the Bookwyrm CLI entry point.
package main

import (
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
