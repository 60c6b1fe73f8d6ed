package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/digitorus/pdfannot"
	"github.com/digitorus/pdfannot/common"
	"github.com/digitorus/pdfannot/files"
)

// Info describes a document.
type Info struct {
	File      string              `json:"file"`
	Size      string              `json:"size"`
	PageCount int                 `json:"pageCount"`
	Document  common.DocumentInfo `json:"document"`
}

func InfoCommand() {
	infoFlags := flag.NewFlagSet("info", flag.ExitOnError)

	var configPath string
	infoFlags.StringVar(&configPath, "config", "", "Path to the TOML config file")

	infoFlags.Usage = func() {
		fmt.Printf("Usage: %s info [options] <input.pdf>\n\n", os.Args[0])
		fmt.Println("Print the document information dictionary and page count as JSON")
		fmt.Println("\nOptions:")
		infoFlags.PrintDefaults()
	}

	if err := infoFlags.Parse(os.Args[2:]); err != nil {
		log.Printf("Failed to parse info flags: %v", err)
		osExit(1)
		return
	}

	if len(infoFlags.Args()) < 1 {
		infoFlags.Usage()
		osExit(1)
		return
	}

	settings, err := loadSettings(configPath)
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}

	input := infoFlags.Arg(0)
	ed, err := openEditor(context.Background(), settings, input)
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}
	var size int64
	if fi, err := os.Stat(input); err == nil {
		size = fi.Size()
	}
	if err := WriteInfo(os.Stdout, ed, size); err != nil {
		log.Println(err)
		osExit(1)
	}
}

// WriteInfo prints the document information of ed as JSON. size is the file
// size in bytes.
func WriteInfo(w io.Writer, ed *pdfannot.Editor, size int64) error {
	s := ed.Snapshot()
	info := Info{
		File:      s.FileName,
		Size:      files.FormatSize(size),
		PageCount: s.PageCount,
		Document:  s.Info,
	}
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
