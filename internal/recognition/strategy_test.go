package recognition_test

import (
	"errors"
	"image"
	"testing"

	"github.com/hidrotec/water-metering-worker/internal/recognition"
)

type stubRecognizer struct {
	text string
	err  error
}

func (s *stubRecognizer) RecognizeText(img image.Image) (string, error) {
	return s.text, s.err
}

func TestIdentifyMeter_StripsExtensionAndSpecials(t *testing.T) {
	cases := map[string]string{
		"ABC-123.png":   "ABC123",
		"abc_123.JPG":   "ABC123",
		"meter 42.tiff": "METER42",
		"XYZ9":          "XYZ9",
		"a.b.c.jpeg":    "ABC",
	}

	for input, expected := range cases {
		if got := recognition.IdentifyMeter(input); got != expected {
			t.Errorf("IdentifyMeter(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestIsImageFile(t *testing.T) {
	if !recognition.IsImageFile("photo.PNG") {
		t.Error("Expected uppercase extension to qualify")
	}
	if recognition.IsImageFile("notes.txt") {
		t.Error("Expected .txt to be rejected")
	}
	if recognition.IsImageFile("archive.png.zip") {
		t.Error("Expected only the final extension to count")
	}
}

func TestOwnerStrategy_ExtractsDigits(t *testing.T) {
	strategy := recognition.NewOwnerStrategy(&stubRecognizer{text: " 01 234\n"})
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))

	value, ok := strategy.ExtractReading(img)
	if !ok {
		t.Fatal("Expected a value to be extracted")
	}
	if value != 1234 {
		t.Errorf("Expected value 1234, got %d", value)
	}
}

func TestStrategy_AbsentOnRecognizerError(t *testing.T) {
	strategy := recognition.NewOwnerStrategy(&stubRecognizer{err: errors.New("engine crashed")})
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))

	if _, ok := strategy.ExtractReading(img); ok {
		t.Error("Expected absent value when recognition fails")
	}
}

func TestStrategy_AbsentWhenNoDigits(t *testing.T) {
	strategy := recognition.NewOwnerStrategy(&stubRecognizer{text: "no digits here"})
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))

	if _, ok := strategy.ExtractReading(img); ok {
		t.Error("Expected absent value when output has no digits")
	}
}

func TestStrategy_AbsentWhenRegionOutOfBounds(t *testing.T) {
	strategy := recognition.NewOwnerStrategy(&stubRecognizer{text: "123"})
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	if _, ok := strategy.ExtractReading(img); ok {
		t.Error("Expected absent value for an image smaller than the crop region")
	}
}
