// Command webcam runs live object detection on a capture device and draws
// the results in a preview window.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/framewatch-ai/go-detect/detector"
	"github.com/framewatch-ai/go-detect/models/model"
)

func main() {
	configPath := flag.String("config", "", "model configuration JSON file")
	deviceID := flag.Int("device", 0, "video capture device id")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		return
	}
	defer logger.Sync()

	if *configPath == "" {
		logger.Fatal("-config is required")
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("loading configuration", zap.Error(err))
	}

	d, err := detector.Load(cfg, logger)
	if err != nil {
		logger.Fatal("loading model", zap.String("path", cfg.Path), zap.Error(err))
	}
	defer d.Close()

	webcam, err := gocv.OpenVideoCapture(*deviceID)
	if err != nil {
		logger.Fatal("opening capture device", zap.Int("device", *deviceID), zap.Error(err))
	}
	defer webcam.Close()

	window := gocv.NewWindow(string(cfg.Name))
	defer window.Close()

	mat := gocv.NewMat()
	defer mat.Close()

	green := color.RGBA{G: 255, A: 255}

	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	ctx := context.Background()
	logger.Info("reading camera device", zap.Int("device", *deviceID))
	for {
		if ok := webcam.Read(&mat); !ok {
			logger.Error("cannot read device", zap.Int("device", *deviceID))
			return
		}
		if mat.Empty() {
			continue
		}

		img, err := mat.ToImage()
		if err != nil {
			// Capture glitches happen; skip the frame rather than abort.
			logger.Warn("frame conversion failed", zap.Error(err))
			continue
		}

		detections, err := d.DetectImage(ctx, img)
		if err != nil {
			// A bad frame should not end the live session; log and move on.
			logger.Warn("detection failed, skipping frame", zap.Error(err))
			continue
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
		}

		for _, det := range detections {
			rect := image.Rect(
				int(det.Box.X),
				int(det.Box.Y),
				int(det.Box.X+det.Box.Width),
				int(det.Box.Y+det.Box.Height),
			)
			gocv.Rectangle(&mat, rect, green, 2)
			label := fmt.Sprintf("%s %.2f", det.Label, det.Confidence)
			gocv.PutText(&mat, label, image.Pt(rect.Min.X, rect.Min.Y-5),
				gocv.FontHersheySimplex, 0.5, green, 1)
		}
		gocv.PutText(&mat, fmt.Sprintf("FPS: %.1f", fps), image.Pt(10, 20),
			gocv.FontHersheySimplex, 0.5, green, 1)

		window.IMShow(mat)
		window.WaitKey(1)
	}
}
