package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/soocke/annotator-go/app"
	"github.com/soocke/annotator-go/config"
)

func main() {
	defPath, err := config.DefaultPath()
	if err != nil {
		defPath = "annotator.json"
	}
	cfgPath := flag.String("config", defPath, "path to the JSON config file")
	root := flag.String("dataset", "", "dataset root directory (overrides config)")
	split := flag.String("split", "", "dataset split: train, valid or test")
	mode := flag.String("mode", "", "load mode: predict or dataset")
	debugOn := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	level := slog.LevelInfo
	if *debugOn || cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level)
	if err != nil {
		logger.Warn("config load failed, using defaults", "path", *cfgPath, "error", err)
	}

	if *root != "" {
		cfg.DatasetRoot = *root
	}
	if *split != "" {
		cfg.Split = *split
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *debugOn {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	logger.Info("starting", "config", *cfgPath, "dataset", cfg.DatasetRoot, "split", cfg.Split, "mode", cfg.Mode)

	c := app.BuildContainer(cfg, *cfgPath, logger)
	application := app.NewApp("Annotator", c)
	application.Start()
}
