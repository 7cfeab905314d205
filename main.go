// ABOUTME: Entry point for the blogpanel CLI
// ABOUTME: Terminal admin dashboard and scriptable client for the blog backend

package main

import (
	"fmt"
	"os"

	"github.com/markalston/blogpanel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
