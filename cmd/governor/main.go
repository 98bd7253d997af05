package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/harborview/governor/internal/infrastructure/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		var cliErr *cli.CLIError
		if errors.As(err, &cliErr) {
			fmt.Fprintln(os.Stderr, cliErr.Error())
			os.Exit(cliErr.ExitCode)
		}
		os.Exit(1)
	}
}
