// Package main is the entry point for snkr-price-watch.
package main

import (
	"os"

	"github.com/snkrtools/snkr-price-watch/cmd/snkr-price-watch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
