// tpsa is the command-line front end for truncated power-series algebra.
package main

import (
	"os"

	"github.com/njchilds90/gotpsa/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
