// Package main generates CLI reference documentation from the
// snkr-price-watch command tree.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/snkrtools/snkr-price-watch/cmd/snkr-price-watch/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "output directory for generated markdown")
	flag.Parse()

	if err := os.MkdirAll(*output, 0o750); err != nil {
		log.Fatalf("creating output directory: %v", err)
	}

	root := cmd.Root()
	root.DisableAutoGenTag = true

	if err := doc.GenMarkdownTree(root, *output); err != nil {
		log.Fatalf("generating docs: %v", err)
	}

	for _, sub := range root.Commands() {
		if sub.Hidden {
			continue
		}
		fmt.Printf("  %-10s %s\n", sub.Name(), sub.Short)
	}
	fmt.Printf("CLI docs for %d commands generated in %s/\n", len(root.Commands()), *output)
}
