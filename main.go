package main

import (
	"os"

	"github.com/wasmedge/wasmedgeup/cmd"
)

var version = "0.1.0"

func main() {
	if err := cmd.Execute(version); err != nil {
		os.Exit(1)
	}
}
