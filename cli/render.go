package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"

	"github.com/digitorus/pdfannot"
	"github.com/digitorus/pdfannot/canvas"
	"golang.org/x/term"
)

// RenderOptions selects what RenderPNG draws.
type RenderOptions struct {
	Page      int
	Zoom      float64
	Thumbnail bool
}

func RenderCommand() {
	renderFlags := flag.NewFlagSet("render", flag.ExitOnError)

	var configPath, scriptPath string
	var opts RenderOptions
	renderFlags.StringVar(&configPath, "config", "", "Path to the TOML config file")
	renderFlags.StringVar(&scriptPath, "script", "", "Annotation script to draw over the page")
	renderFlags.IntVar(&opts.Page, "page", 1, "Page number")
	renderFlags.Float64Var(&opts.Zoom, "zoom", 1, "Zoom factor (0.5 to 3)")
	renderFlags.BoolVar(&opts.Thumbnail, "thumbnail", false, "Render a thumbnail without annotations")

	renderFlags.Usage = func() {
		fmt.Printf("Usage: %s render [options] <input.pdf> [output.png]\n\n", os.Args[0])
		fmt.Println("Render a page to PNG, written to standard output when no output is given")
		fmt.Println("\nOptions:")
		renderFlags.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s render -page 2 -zoom 1.5 input.pdf page2.png\n", os.Args[0])
		fmt.Printf("  %s render -script review.json input.pdf > page1.png\n", os.Args[0])
	}

	if err := renderFlags.Parse(os.Args[2:]); err != nil {
		log.Printf("Failed to parse render flags: %v", err)
		osExit(1)
		return
	}

	if len(renderFlags.Args()) < 1 {
		renderFlags.Usage()
		osExit(1)
		return
	}

	settings, err := loadSettings(configPath)
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}

	var w io.Writer = os.Stdout
	if output := renderFlags.Arg(1); output != "" && output != "-" {
		f, err := os.Create(output)
		if err != nil {
			log.Println(err)
			osExit(1)
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("Warning: failed to close output file: %v", err)
			}
		}()
		w = f
	} else if term.IsTerminal(int(os.Stdout.Fd())) {
		log.Println("Refusing to write PNG data to a terminal, give an output file or redirect")
		osExit(1)
		return
	}

	ctx := context.Background()
	ed, err := openEditor(ctx, settings, renderFlags.Arg(0))
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}
	if scriptPath != "" {
		script, err := ReadScript(scriptPath)
		if err == nil {
			err = script.Apply(ed)
		}
		if err != nil {
			log.Println(err)
			osExit(1)
			return
		}
	}

	if err := RenderPNG(ctx, ed, opts, w); err != nil {
		log.Println(err)
		osExit(1)
	}
}

// RenderPNG renders a page of the loaded document as PNG to w.
func RenderPNG(ctx context.Context, ed *pdfannot.Editor, opts RenderOptions, w io.Writer) error {
	if opts.Page == 0 {
		opts.Page = 1
	}

	var img image.Image
	if opts.Thumbnail {
		var err error
		if img, err = ed.RenderThumbnail(ctx, opts.Page); err != nil {
			return err
		}
	} else {
		if !ed.GoToPage(opts.Page) {
			return fmt.Errorf("%w: %d", pdfannot.ErrPageOutOfRange, opts.Page)
		}
		if opts.Zoom != 0 {
			ed.SetZoom(opts.Zoom)
		}
		f, err := ed.RenderPage(ctx, pdfannot.MainSurface)
		if err != nil {
			return err
		}
		img = f.Image
	}
	if img == nil {
		return errors.New("nothing rendered")
	}
	return canvas.EncodePNG(w, img)
}
