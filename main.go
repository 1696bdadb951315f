package main

import (
	"os"

	"github.com/arfanana/smart-internship-engine/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
