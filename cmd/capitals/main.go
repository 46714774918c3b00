// Command capitals seeds a persistence unit with linked country/capital
// pairs.
package main

import (
	"os"

	"github.com/roach88/capitals/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.NewRootCommand()))
}
