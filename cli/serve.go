package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/digitorus/pdfannot/config"
	"github.com/digitorus/pdfannot/raster"
	"github.com/digitorus/pdfannot/server"
)

func ServeCommand() {
	serveFlags := flag.NewFlagSet("serve", flag.ExitOnError)

	var configPath, listen string
	serveFlags.StringVar(&configPath, "config", config.DefaultLocation, "Path to the TOML config file")
	serveFlags.StringVar(&listen, "listen", "", "Listen address, overrides the config file")

	serveFlags.Usage = func() {
		fmt.Printf("Usage: %s serve [options]\n\n", os.Args[0])
		fmt.Println("Run the HTTP editor API")
		fmt.Println("\nOptions:")
		serveFlags.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s serve\n", os.Args[0])
		fmt.Printf("  %s serve -config /etc/pdfannot.conf -listen :8080\n", os.Args[0])
	}

	if err := serveFlags.Parse(os.Args[2:]); err != nil {
		log.Printf("Failed to parse serve flags: %v", err)
		osExit(1)
		return
	}

	settings, err := loadSettings(configPath)
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}
	if listen != "" {
		settings.Listen = listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Serve(ctx, settings); err != nil {
		log.Printf("Server stopped: %v", err)
		osExit(1)
	}
}

// Serve runs the HTTP editor until ctx is done.
func Serve(ctx context.Context, settings config.Config) error {
	if err := settings.ValidateFields(); err != nil {
		return fmt.Errorf("config is not valid: %w", err)
	}
	logger := newLogger(settings)
	s := server.New(server.Options{
		Settings:  settings,
		Loader:    raster.DefaultLoader(logger),
		Logger:    logger,
		AccessLog: os.Stdout,
	})
	return s.Listen(ctx)
}
