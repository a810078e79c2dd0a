package main

import (
	"fmt"
	"os"

	"github.com/jbarket/atom-typescript/cmd/tshost/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tshost:", err)
		os.Exit(1)
	}
}
