package main

import (
	"os"

	"github.com/majorcontext/fwdproxy/cmd/fwdproxy/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
