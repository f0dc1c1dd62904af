// Command cero is a small demonstration binary wiring the task, workflow,
// and durable packages together behind a cobra CLI.
package main

import (
	"os"

	"github.com/lucianlature/cero/cmd/cero/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
