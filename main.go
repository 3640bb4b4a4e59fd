package main

import (
	"fmt"
	"os"

	"github.com/smazurov/bayled/cmd"
)

func main() {
	if err := cmd.CreateRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bayled:", err)
		os.Exit(1)
	}
}
