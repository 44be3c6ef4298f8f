package main

import (
	"os"

	"github.com/odralabshq/polis/cmd"
	"github.com/odralabshq/polis/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
