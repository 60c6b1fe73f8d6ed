package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/digitorus/pdfannot"
	"github.com/digitorus/pdfannot/annotation"
	"github.com/digitorus/pdfannot/config"
	"github.com/digitorus/pdfannot/files"
	"github.com/digitorus/pdfannot/raster"
)

// ScriptEntry places one annotation on a page.
type ScriptEntry struct {
	Page int `json:"page"`
	annotation.Annotation
}

// Script is a list of annotations to apply to a document, in order.
type Script struct {
	Annotations []ScriptEntry `json:"annotations"`
}

// ReadScript decodes the JSON annotation script at path.
func ReadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("failed to read script: %w", err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("failed to decode script %s: %w", path, err)
	}
	return s, nil
}

// Apply adds every annotation of the script to ed. Entries without a page
// go to the current page.
func (s Script) Apply(ed *pdfannot.Editor) error {
	for i, e := range s.Annotations {
		page := e.Page
		if page == 0 {
			page = ed.CurrentPage()
		}
		if _, err := ed.AddAnnotation(page, e.Annotation); err != nil {
			return fmt.Errorf("annotation %d: %w", i+1, err)
		}
	}
	return nil
}

func AnnotateCommand() {
	annotateFlags := flag.NewFlagSet("annotate", flag.ExitOnError)

	var configPath string
	annotateFlags.StringVar(&configPath, "config", "", "Path to the TOML config file")

	annotateFlags.Usage = func() {
		fmt.Printf("Usage: %s annotate [options] <input.pdf> <script.json> [output.pdf]\n\n", os.Args[0])
		fmt.Println("Apply a JSON annotation script to a PDF file")
		fmt.Println("The output defaults to <input>_edited.pdf next to the input.")
		fmt.Println("\nOptions:")
		annotateFlags.PrintDefaults()
		fmt.Println("\nScript:")
		fmt.Println(`  {"annotations": [{"page": 1, "type": "rectangle", "x": 0.1, "y": 0.1, "width": 0.2, "height": 0.1, "color": "#ff0000"}]}`)
		fmt.Println("\nExamples:")
		fmt.Printf("  %s annotate input.pdf review.json\n", os.Args[0])
		fmt.Printf("  %s annotate input.pdf review.json output.pdf\n", os.Args[0])
	}

	if err := annotateFlags.Parse(os.Args[2:]); err != nil {
		log.Printf("Failed to parse annotate flags: %v", err)
		osExit(1)
		return
	}

	if len(annotateFlags.Args()) < 2 {
		annotateFlags.Usage()
		osExit(1)
		return
	}

	settings, err := loadSettings(configPath)
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}

	input, script, output := annotateFlags.Arg(0), annotateFlags.Arg(1), annotateFlags.Arg(2)
	if output == "" {
		output = filepath.Join(filepath.Dir(input), files.EditedName(filepath.Base(input)))
	}
	if err := AnnotateFile(context.Background(), settings, input, script, output); err != nil {
		log.Println(err)
		osExit(1)
		return
	}
	log.Printf("Annotated document written to %s", output)
}

// AnnotateFile applies the script at scriptPath to the document at input and
// writes the export to output.
func AnnotateFile(ctx context.Context, settings config.Config, input, scriptPath, output string) error {
	script, err := ReadScript(scriptPath)
	if err != nil {
		return err
	}
	ed, err := openEditor(ctx, settings, input)
	if err != nil {
		return err
	}
	if err := script.Apply(ed); err != nil {
		return err
	}

	out, err := ed.Export(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, out.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func openEditor(ctx context.Context, settings config.Config, input string) (*pdfannot.Editor, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	logger := newLogger(settings)
	ed := pdfannot.New(raster.DefaultLoader(logger), pdfannot.Options{
		Settings: settings,
		Logger:   logger,
	})
	err = ed.Load(ctx, pdfannot.File{
		Name: filepath.Base(input),
		Data: data,
	})
	if err != nil {
		return nil, err
	}
	return ed, nil
}
