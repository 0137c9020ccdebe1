package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

type snapshotter interface {
	Snapshot(ctx context.Context) (*image.RGBA, error)
}

// capture writes count snapshots, one per interval, to dir as
// frame-00000.png and onward. A cancelled ctx ends it early without error.
func capture(ctx context.Context, s snapshotter, dir string, count int, interval time.Duration) error {
	if count <= 0 {
		return fmt.Errorf("invalid snapshot count %d", count)
	}
	if interval <= 0 {
		return fmt.Errorf("invalid snapshot interval %v", interval)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	log := logrus.WithFields(logrus.Fields{
		"function": "capture",
		"dir":      dir,
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 0; i < count; i++ {
		select {
		case <-ctx.Done():
			log.WithField("frames", i).Info("capture cancelled")
			return nil
		case <-ticker.C:
		}
		img, err := s.Snapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to take snapshot %d: %w", i, err)
		}
		name := filepath.Join(dir, fmt.Sprintf("frame-%05d.png", i))
		if err := writePNG(name, img); err != nil {
			return err
		}
		log.WithField("file", name).Debug("snapshot written")
	}
	log.WithField("frames", count).Info("capture finished")
	return nil
}

func writePNG(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return f.Close()
}
