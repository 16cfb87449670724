package main

import (
	"fmt"
	"os"

	"github.com/mlowdi/jobsearcher/internal/pipeline"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(pipeline.ExitCode(err))
	}
}
