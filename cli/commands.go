package cli

import (
	"fmt"
	"os"
)

var osExit = os.Exit

func Usage() {
	fmt.Printf("Usage: %s <command> [options] <args>\n\n", os.Args[0])
	fmt.Println("Commands:")
	fmt.Println("  serve     Run the HTTP editor")
	fmt.Println("  annotate  Apply an annotation script to a PDF file")
	fmt.Println("  render    Render a page to PNG")
	fmt.Println("  info      Print document information")
	fmt.Println("")
	fmt.Printf("Use '%s <command> -h' for command-specific help\n", os.Args[0])
	osExit(1)
}
