package recognition

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"os/exec"
	"strings"
	"time"
)

// TextRecognizer recognizes text in an image region. Implementations may
// fail for any reason; callers treat every error as "no value".
type TextRecognizer interface {
	RecognizeText(img image.Image) (string, error)
}

// TesseractRecognizer shells out to the tesseract binary with a digit
// whitelist. The region is handed over as a temporary PNG.
type TesseractRecognizer struct {
	binary  string
	timeout time.Duration
}

// NewTesseractRecognizer creates a recognizer using the given binary path.
func NewTesseractRecognizer(binary string, timeout time.Duration) *TesseractRecognizer {
	if binary == "" {
		binary = "tesseract"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TesseractRecognizer{binary: binary, timeout: timeout}
}

// RecognizeText runs OCR over the region and returns the raw output.
func (t *TesseractRecognizer) RecognizeText(img image.Image) (string, error) {
	tmp, err := os.CreateTemp("", "meter-roi-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to encode region: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to flush temp image: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.binary, tmp.Name(), "stdout",
		"--psm", "7",
		"-c", "tessedit_char_whitelist=0123456789",
	)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// crop copies a rectangle out of an image. The caller has already verified
// the rectangle lies within bounds.
func crop(img image.Image, region image.Rectangle) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(out, out.Bounds(), img, region.Min, draw.Src)
	return out
}
