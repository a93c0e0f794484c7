package main

import (
	"fmt"
	"os"

	"github.com/aeden/sdq/cmd/sdq/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if ce, ok := err.(interface {
			Error() string
			ExitCode() int
		}); ok {
			if msg := ce.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(ce.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
