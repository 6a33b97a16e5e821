// Package debug provides development utilities for the renderer.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// SnapshotCapture writes timestamped PNG snapshots of rendered frames.
type SnapshotCapture struct {
	outputDir string
	prefix    string
}

// NewSnapshotCapture creates a new snapshot capture handler.
func NewSnapshotCapture(outputDir, prefix string) *SnapshotCapture {
	return &SnapshotCapture{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// SetOutputDir sets the output directory for snapshots.
func (sc *SnapshotCapture) SetOutputDir(dir string) {
	sc.outputDir = dir
}

// Capture writes the image as a timestamped PNG and returns the path.
func (sc *SnapshotCapture) Capture(img image.Image) (string, error) {
	filename := sc.GenerateFilename()

	if sc.outputDir != "" {
		if err := os.MkdirAll(sc.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}

	return filename, nil
}

// CaptureTo writes the image as a PNG to an explicit path, creating parent
// directories. Used by the headless renderer for its final output.
func (sc *SnapshotCapture) CaptureTo(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// GenerateFilename generates a snapshot filename without saving.
func (sc *SnapshotCapture) GenerateFilename() string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s.png", sc.prefix, timestamp)
	if sc.outputDir != "" {
		filename = filepath.Join(sc.outputDir, filename)
	}
	return filename
}
