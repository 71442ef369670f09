package main

import (
	"os"

	"repolens/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
