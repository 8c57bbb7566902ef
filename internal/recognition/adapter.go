package recognition

import (
	"image"

	"github.com/hidrotec/water-metering-worker/internal/db"
)

// Adapter runs the strategy chain in priority order: the first strategy to
// produce a value wins. New device profiles are added by appending a
// Strategy, never by branching on type codes.
type Adapter struct {
	strategies []Strategy
}

// NewAdapter creates an adapter over the given strategies. Order matters.
func NewAdapter(strategies ...Strategy) *Adapter {
	return &Adapter{strategies: strategies}
}

// ExtractMeterID derives the candidate meter identifier from a filename.
// Identifier derivation does not depend on the device profile.
func (a *Adapter) ExtractMeterID(filename string) string {
	return IdentifyMeter(filename)
}

// TryExtractValue returns the first value any strategy extracts, in chain
// order. The second return is false when every strategy came up empty.
func (a *Adapter) TryExtractValue(img image.Image) (int64, bool) {
	for _, s := range a.strategies {
		if value, ok := s.ExtractReading(img); ok {
			return value, true
		}
	}
	return 0, false
}

// DetermineDeviceType reruns the chain and reports which strategy produced a
// value, or UNKNOWN if none did.
func (a *Adapter) DetermineDeviceType(img image.Image) string {
	for _, s := range a.strategies {
		if _, ok := s.ExtractReading(img); ok {
			return s.DeviceType()
		}
	}
	return db.DeviceUnknown
}
