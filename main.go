package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soocke/serialscan/app"
	"github.com/soocke/serialscan/assets"
	"github.com/soocke/serialscan/config"
	"github.com/soocke/serialscan/domain/ocr/tesseract"
	"github.com/soocke/serialscan/scanner"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := flag.String("config", "serialscan.yaml", "path to the JSON or YAML config file")
	headless := flag.Bool("headless", false, "scan without a window and print the first serial")
	timeout := flag.Duration("timeout", 0, "headless: give up after this long (0 waits forever)")
	debugFlag := flag.Bool("debug", false, "enable debug logging and runtime reporters")
	initConfig := flag.Bool("init-config", false, "write the sample config to -config and exit")
	flag.Parse()

	if *initConfig {
		if _, err := os.Stat(*cfgPath); err == nil {
			fmt.Fprintf(os.Stderr, "%s already exists\n", *cfgPath)
			return 1
		}
		if err := os.WriteFile(*cfgPath, assets.SampleConfigYAML, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	cfg, err := config.Load(*cfgPath)
	if *debugFlag {
		cfg.Debug = true
	}
	logger := NewLogger(logOutput(*headless), parseLevel(cfg.LogLevel, cfg.Debug))
	if err != nil {
		logger.Warn("config load failed, using defaults", "path", *cfgPath, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := scanner.Build(ctx, cfg, logger, scanner.Options{
		Version:    version,
		OCRFactory: tesseract.New,
		Headless:   *headless,
	})
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}

	if !*headless {
		application := app.NewApp("EV Charger Scanner", 760, 820, core, *cfgPath, logger)
		application.Start()
		return 0
	}

	serial, err := core.Run(ctx, *timeout)
	closeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if cerr := core.Close(closeCtx); cerr != nil {
		logger.Warn("shutdown", "error", cerr)
	}
	if err != nil {
		if errors.Is(err, scanner.ErrTimeout) {
			logger.Warn("no serial found", "error", err)
			return 2
		}
		logger.Error("scan failed", "error", err)
		return 1
	}
	fmt.Println(serial)
	return 0
}
