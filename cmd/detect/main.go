// Command detect runs object detection over a directory of numbered frame
// files and prints the results as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/framewatch-ai/go-detect/detector"
	"github.com/framewatch-ai/go-detect/models/model"
	"github.com/framewatch-ai/go-detect/util"
)

func main() {
	configPath := flag.String("config", "", "model configuration JSON file")
	framesDir := flag.String("frames", "", "directory of frame-<n>.<ext> image files")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if *configPath == "" || *framesDir == "" {
		logger.Fatal("both -config and -frames are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("loading configuration", zap.Error(err))
	}

	d, err := detector.Load(cfg, logger)
	if err != nil {
		logger.Fatal("loading model", zap.String("path", cfg.Path), zap.Error(err))
	}
	defer d.Close()

	frames, err := util.LoadDirectoryImageFiles(*framesDir)
	if err != nil {
		logger.Fatal("loading frames", zap.String("dir", *framesDir), zap.Error(err))
	}
	logger.Info("processing frames",
		zap.String("model", string(cfg.Name)),
		zap.Int("count", len(frames)))

	results, err := d.DetectFrames(ctx, frames)
	if err != nil {
		logger.Fatal("detection failed", zap.Error(err))
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		logger.Fatal("encoding results", zap.Error(err))
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
