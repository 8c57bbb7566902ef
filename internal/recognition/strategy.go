package recognition

import (
	"image"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hidrotec/water-metering-worker/internal/db"
)

// Strategy is one device-specific extraction rule. Adding support for a new
// reading device means appending another Strategy to the adapter chain.
type Strategy interface {
	// ExtractReading crops the strategy's region of interest and parses the
	// recognized digits. The second return is false when no value could be
	// extracted.
	ExtractReading(img image.Image) (int64, bool)

	// DeviceType is the tag this strategy reports for readings it produced.
	DeviceType() string
}

// imageExtensions is the closed set of accepted upload formats.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".tiff": true,
}

// IsImageFile reports whether the path carries a whitelisted image extension.
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// IdentifyMeter derives the candidate meter identifier from an upload
// filename: the image extension is stripped, every non-alphanumeric rune is
// dropped and the remainder is uppercased. Deterministic, no I/O.
func IdentifyMeter(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); imageExtensions[strings.ToLower(ext)] {
		base = strings.TrimSuffix(base, ext)
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		}
	}
	return b.String()
}

// regionStrategy reads digits out of one fixed rectangle. Both concrete
// profiles share this implementation and differ only in region and tag.
type regionStrategy struct {
	recognizer TextRecognizer
	region     image.Rectangle
	deviceType string
}

// NewOwnerStrategy builds the profile for owner-operated capture devices.
func NewOwnerStrategy(recognizer TextRecognizer) Strategy {
	return &regionStrategy{
		recognizer: recognizer,
		region:     image.Rect(340, 240, 580, 300),
		deviceType: db.DeviceOwner,
	}
}

// NewCollaboratorStrategy builds the profile for field-collaborator devices,
// whose counter sits lower and further left in the frame.
func NewCollaboratorStrategy(recognizer TextRecognizer) Strategy {
	return &regionStrategy{
		recognizer: recognizer,
		region:     image.Rect(60, 300, 300, 360),
		deviceType: db.DeviceCollaborator,
	}
}

func (s *regionStrategy) ExtractReading(img image.Image) (int64, bool) {
	region := s.region.Add(img.Bounds().Min)
	if !region.In(img.Bounds()) {
		return 0, false
	}

	text, err := s.recognizer.RecognizeText(crop(img, region))
	if err != nil {
		return 0, false
	}

	cleaned := digitsOnly(text)
	if cleaned == "" {
		return 0, false
	}

	value, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func (s *regionStrategy) DeviceType() string {
	return s.deviceType
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
