package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/clerk-dev/clerk/cmd"
)

func main() {
	if err := cmd.ClerkCmd.Execute(); err != nil {
		var exit *cmd.ExitCodeError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, cmd.FormatError(err))
		os.Exit(1)
	}
}
