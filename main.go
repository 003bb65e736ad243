package main

import (
	"os"

	"github.com/phnplatform/studyterm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
