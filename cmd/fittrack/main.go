package main

import (
	"fmt"
	"os"

	"alcyxob/fittrack/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(cli.LoadRuntime).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
