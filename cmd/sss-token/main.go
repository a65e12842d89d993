// Command sss-token manages a local stablecoin state file.
package main

import (
	"os"

	"github.com/R3E-Network/stablecoin_layer/internal/cli"
)

func main() {
	p := cli.NewPrinter()
	if err := newRootCommand(p).Execute(); err != nil {
		p.Error(err)
		os.Exit(1)
	}
}
