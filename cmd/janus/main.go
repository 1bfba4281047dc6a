package main

import (
	"os"

	"janus/internal/cliapp"
)

func main() {
	code := cliapp.Execute(os.Args[1:])
	os.Exit(code)
}
