package main

import (
	"fmt"
	"os"

	"github.com/digitorus/pdfannot/cli"
)

func main() {
	if len(os.Args) < 2 {
		cli.Usage()
	}

	switch os.Args[1] {
	case "serve":
		cli.ServeCommand()
	case "annotate":
		cli.AnnotateCommand()
	case "render":
		cli.RenderCommand()
	case "info":
		cli.InfoCommand()
	case "-h", "--help", "help":
		cli.Usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		cli.Usage()
	}
}
