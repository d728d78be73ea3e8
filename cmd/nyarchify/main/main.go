package main

import (
	"os"

	"github.com/nyarchlinux/nyarchify/cmd/nyarchify"
	"github.com/nyarchlinux/nyarchify/pkg/ui"
)

func main() {
	if err := nyarchify.Execute(); err != nil {
		ui.New(os.Stdin, os.Stderr).Error("%v", err)
		os.Exit(1)
	}
}
