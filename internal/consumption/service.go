package consumption

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hidrotec/water-metering-worker/internal/db"
)

// ReadingSource provides time-ordered readings for a meter.
type ReadingSource interface {
	FindInRange(ctx context.Context, meterID string, start, end time.Time) ([]db.MeterReading, error)
}

// MeterSource lists the meters owned by a customer.
type MeterSource interface {
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]db.Meter, error)
}

// Result is one computed consumption figure. First/last raw readings are
// carried for traceability; both are zero for aggregates and for windows
// with no readings.
type Result struct {
	SubjectKey   string
	Period       Period
	Value        int64
	FirstReading int64
	LastReading  int64
}

// Comparison holds two period results and their signed difference
// (second minus first).
type Comparison struct {
	First      Result
	Second     Result
	Difference int64
}

// Calculator computes period consumption from stored readings.
type Calculator struct {
	readings ReadingSource
	meters   MeterSource
	now      func() time.Time
}

// NewCalculator creates a consumption calculator.
func NewCalculator(readings ReadingSource, meters MeterSource) *Calculator {
	return &Calculator{
		readings: readings,
		meters:   meters,
		now:      time.Now,
	}
}

// ForMeter computes consumption for one meter over one period.
func (c *Calculator) ForMeter(ctx context.Context, meterID string, kind PeriodKind) (Result, error) {
	period, err := periodFor(kind, c.now())
	if err != nil {
		return Result{}, err
	}

	readings, err := c.readings.FindInRange(ctx, meterID, period.Start, period.End)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load readings for %s: %w", meterID, err)
	}

	result := Result{SubjectKey: meterID, Period: period}
	if len(readings) == 0 {
		return result, nil
	}

	values := make([]int64, len(readings))
	for i, r := range readings {
		values[i] = r.Value
	}

	result.Value = consumptionOf(values)
	result.FirstReading = values[0]
	result.LastReading = values[len(values)-1]
	return result, nil
}

// ForMeterAllPeriods computes consumption for one meter over every
// supported period.
func (c *Calculator) ForMeterAllPeriods(ctx context.Context, meterID string) (map[PeriodKind]Result, error) {
	results := make(map[PeriodKind]Result, len(SupportedPeriods()))
	for _, kind := range SupportedPeriods() {
		result, err := c.ForMeter(ctx, meterID, kind)
		if err != nil {
			return nil, err
		}
		results[kind] = result
	}
	return results, nil
}

// ForCustomer sums per-meter consumption across every meter the customer
// owns. Meters with fewer than two readings in range contribute zero. The
// aggregate carries no meaningful first/last reading.
func (c *Calculator) ForCustomer(ctx context.Context, customerID uuid.UUID, kind PeriodKind) (Result, error) {
	period, err := periodFor(kind, c.now())
	if err != nil {
		return Result{}, err
	}

	meters, err := c.meters.FindByCustomer(ctx, customerID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list customer meters: %w", err)
	}

	var total int64
	for _, meter := range meters {
		result, err := c.ForMeter(ctx, meter.Identifier, kind)
		if err != nil {
			return Result{}, err
		}
		total += result.Value
	}

	return Result{
		SubjectKey: "CUSTOMER_" + customerID.String(),
		Period:     period,
		Value:      total,
	}, nil
}

// ForCustomerAllPeriods computes the customer aggregate over every
// supported period.
func (c *Calculator) ForCustomerAllPeriods(ctx context.Context, customerID uuid.UUID) (map[PeriodKind]Result, error) {
	results := make(map[PeriodKind]Result, len(SupportedPeriods()))
	for _, kind := range SupportedPeriods() {
		result, err := c.ForCustomer(ctx, customerID, kind)
		if err != nil {
			return nil, err
		}
		results[kind] = result
	}
	return results, nil
}

// Compare computes two period results for one meter and their signed
// difference (second minus first).
func (c *Calculator) Compare(ctx context.Context, meterID string, first, second PeriodKind) (Comparison, error) {
	a, err := c.ForMeter(ctx, meterID, first)
	if err != nil {
		return Comparison{}, err
	}
	b, err := c.ForMeter(ctx, meterID, second)
	if err != nil {
		return Comparison{}, err
	}

	return Comparison{
		First:      a,
		Second:     b,
		Difference: b.Value - a.Value,
	}, nil
}
